// Package pulsarconn is the production implementation of
// internal/transport's Connection/ConnectionManager/LookupService
// interfaces, backed by github.com/apache/pulsar-client-go.
//
// Batching is disabled on the underlying pulsar.Producer: the producer
// actor (internal/actor) already performs its own software coalescing, so
// letting the wire client additionally re-batch would hide the actor's
// batch-size/flush-interval triggers behind a second, uncontrolled
// batching layer.
package pulsarconn

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/apache/pulsar-client-go/pulsar"
	"github.com/sirupsen/logrus"

	"github.com/pulsar-local-lab/partition-producer/internal/pmessage"
	"github.com/pulsar-local-lab/partition-producer/internal/transport"
)

// ClientOptions configures how new broker clients are dialed.
type ClientOptions struct {
	OperationTimeoutSeconds   int
	ConnectionTimeoutSeconds  int
}

// Manager is a per-broker pool of pulsar.Client handles, the production
// ConnectionManager. Each broker endpoint gets exactly one underlying
// client, shared (multiplexed) across every producer checked out against
// it.
type Manager struct {
	opts ClientOptions

	mu      sync.Mutex
	clients map[string]*Connection
}

// NewManager returns a connection manager with no clients yet dialed.
func NewManager(opts ClientOptions) *Manager {
	if opts.OperationTimeoutSeconds == 0 {
		opts.OperationTimeoutSeconds = 30
	}
	if opts.ConnectionTimeoutSeconds == 0 {
		opts.ConnectionTimeoutSeconds = 30
	}
	return &Manager{opts: opts, clients: make(map[string]*Connection)}
}

// GetConnection returns the shared Connection for broker, dialing it on
// first use. Checkout is a cheap map lookup; the actual client is created
// lazily and reused by every future caller for the same broker.
func (m *Manager) GetConnection(ctx context.Context, broker string) (transport.Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if conn, ok := m.clients[broker]; ok && !conn.isClosed() {
		return conn, nil
	}

	client, err := pulsar.NewClient(pulsar.ClientOptions{
		URL:               broker,
		OperationTimeout:  time.Duration(m.opts.OperationTimeoutSeconds) * time.Second,
		ConnectionTimeout: time.Duration(m.opts.ConnectionTimeoutSeconds) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("pulsarconn: dial broker %s: %w", broker, err)
	}

	conn := &Connection{
		broker:    broker,
		client:    client,
		producers: make(map[uint64]pulsar.Producer),
		closed:    make(chan struct{}),
	}
	m.clients[broker] = conn
	return conn, nil
}

// Connection adapts a pulsar.Client into transport.Connection. A single
// Connection may back many producers (keyed by producer_id), matching the
// wire protocol's own multiplexing.
type Connection struct {
	broker string
	client pulsar.Client

	mu        sync.Mutex
	producers map[uint64]pulsar.Producer
	nextID    uint64

	closeOnce sync.Once
	closed    chan struct{}
}

func (c *Connection) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// CreateProducer creates a broker-side producer for topicName and returns
// its assigned identity. The producer_id here is a local multiplexing key
// (this package's own counter), since pulsar-client-go does not surface
// the wire-level producer id to callers.
func (c *Connection) CreateProducer(ctx context.Context, topicName string, opts transport.ProducerOptions) (transport.CreateProducerReply, error) {
	producer, err := c.client.CreateProducer(pulsar.ProducerOptions{
		Topic:           topicName,
		DisableBatching: true,
		Properties:      opts.Properties,
	})
	if err != nil {
		if isConnectionError(err) {
			c.signalClosed()
		}
		return transport.CreateProducerReply{}, fmt.Errorf("pulsarconn: create producer for %s: %w", topicName, err)
	}

	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.producers[id] = producer
	c.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"broker": c.broker,
		"topic":  topicName,
		"pid":    id,
	}).Debug("pulsarconn: producer created")

	return transport.CreateProducerReply{
		ProducerID:     id,
		ProducerName:   producer.Name(),
		LastSequenceID: uint64(producer.LastSequenceID()),
		MaxMessageSize: 0, // pulsar-client-go does not surface the negotiated max size
		Properties:     opts.Properties,
	}, nil
}

// SendMessage sends a single message synchronously.
func (c *Connection) SendMessage(ctx context.Context, producerID uint64, msg *pmessage.Message) (transport.MessageID, error) {
	producer, err := c.producerFor(producerID)
	if err != nil {
		return nil, err
	}
	id, err := producer.Send(ctx, toWireMessage(msg))
	if err != nil {
		if isConnectionError(err) {
			c.signalClosed()
		}
		return nil, fmt.Errorf("pulsarconn: send: %w", err)
	}
	return messageID{id}, nil
}

// SendMessages dispatches every message in the batch concurrently and
// waits for all of them; it returns the last successful MessageID (or the
// first error) as the single reply that fans out to every queued caller.
func (c *Connection) SendMessages(ctx context.Context, producerID uint64, msgs []*pmessage.Message) (transport.MessageID, error) {
	producer, err := c.producerFor(producerID)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, nil
	}

	var wg sync.WaitGroup
	results := make([]pulsar.MessageID, len(msgs))
	errs := make([]error, len(msgs))

	for i, m := range msgs {
		wg.Add(1)
		producer.SendAsync(ctx, toWireMessage(m), func(idx int) func(pulsar.MessageID, *pulsar.ProducerMessage, error) {
			return func(id pulsar.MessageID, _ *pulsar.ProducerMessage, err error) {
				results[idx] = id
				errs[idx] = err
				wg.Done()
			}
		}(i))
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			if isConnectionError(err) {
				c.signalClosed()
			}
			return nil, fmt.Errorf("pulsarconn: send batch: %w", err)
		}
	}
	last := results[len(results)-1]
	return messageID{last}, nil
}

// Closed returns the liveness channel; it is closed exactly once, the
// first time a send or producer-creation call observes a connection-level
// error.
func (c *Connection) Closed() <-chan struct{} {
	return c.closed
}

func (c *Connection) signalClosed() {
	c.closeOnce.Do(func() { close(c.closed) })
}

func (c *Connection) producerFor(producerID uint64) (pulsar.Producer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.producers[producerID]
	if !ok {
		return nil, fmt.Errorf("pulsarconn: unknown producer id %d", producerID)
	}
	return p, nil
}

func toWireMessage(m *pmessage.Message) *pulsar.ProducerMessage {
	wm := &pulsar.ProducerMessage{
		Payload:     m.Payload,
		Properties:  m.Properties,
		Key:         m.PartitionKey,
		OrderingKey: string(m.OrderingKey),
	}
	if !m.EventTime.IsZero() {
		wm.EventTime = m.EventTime
	}
	if m.Delayed() {
		wm.DeliverAt = m.DeliverAtTime
	}
	return wm
}

// isConnectionError classifies a send/create error as connection-level
// (vs. a per-message broker rejection). pulsar-client-go does not export a
// stable sentinel for "connection closed" across versions, so this checks
// the wrapped connection-closed case it does document.
func isConnectionError(err error) bool {
	return err == pulsar.ErrConnectionClosed || err == pulsar.ErrProducerClosed
}

type messageID struct {
	pulsar.MessageID
}

func (m messageID) String() string {
	if m.MessageID == nil {
		return ""
	}
	return fmt.Sprintf("%d:%d:%d", m.LedgerID(), m.EntryID(), m.BatchIdx())
}
