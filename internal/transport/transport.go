// Package transport defines the external collaborators the producer actor
// depends on but does not implement: the broker lookup service ("Admin"),
// the per-broker connection pool ("ConnectionManager"), and the multiplexed
// broker session ("Connection"). This package is the seam between the
// actor core and a real wire implementation
// (internal/transport/pulsarconn) or a test fake.
package transport

import (
	"context"

	"github.com/pulsar-local-lab/partition-producer/internal/pmessage"
)

// MessageID is an opaque broker-assigned identifier for a persisted
// message, returned by a successful send.
type MessageID interface {
	String() string
}

// CreateProducerReply is what Connection.create_producer returns on
// success: the broker-assigned identity plus the negotiated limits.
type CreateProducerReply struct {
	ProducerID         uint64
	ProducerName       string
	ProducerAccessMode int
	LastSequenceID     uint64
	MaxMessageSize     uint32
	Properties         map[string]string
}

// ProducerOptions are the opaque producer-construction options forwarded to
// the broker by create_producer: the access mode and the producer
// properties.
type ProducerOptions struct {
	AccessMode int
	Properties map[string]string
}

// Connection is the multiplexed broker session the actor sends on. A real
// implementation is shared across many producers/consumers, keyed
// internally by producer_id; the actor only ever sees its own slice of it.
type Connection interface {
	// CreateProducer registers a new producer on this connection for the
	// given topic and returns the broker's reply.
	CreateProducer(ctx context.Context, topicName string, opts ProducerOptions) (CreateProducerReply, error)

	// SendMessage dispatches a single message and waits for the broker's
	// acknowledgement.
	SendMessage(ctx context.Context, producerID uint64, msg *pmessage.Message) (MessageID, error)

	// SendMessages dispatches a whole batch in one call; a single reply
	// applies to every message in the batch.
	SendMessages(ctx context.Context, producerID uint64, msgs []*pmessage.Message) (MessageID, error)

	// Closed returns a channel that is closed when this connection's
	// liveness is lost. The actor treats a close signal as fatal
	// (connection_down).
	Closed() <-chan struct{}
}

// ConnectionManager returns a Connection for a broker. The actor obtains it
// once, during producer creation, and keeps sending on it for its whole
// lifetime; the interface has no step that returns a Connection to the
// manager.
type ConnectionManager interface {
	GetConnection(ctx context.Context, broker string) (Connection, error)
}

// LookupService resolves the broker currently owning a topic. It must be
// safe to call repeatedly and idempotently — the actor calls it once at
// start and then on every refresh tick.
type LookupService interface {
	LookupTopic(ctx context.Context, topicName string) (broker string, err error)
}
