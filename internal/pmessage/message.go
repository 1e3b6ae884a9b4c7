// Package pmessage implements the Message Builder component: it turns a
// user payload and publish options into an immutable ProducerMessage,
// assigning the next sequence id. Builder calls are pure — they never
// suspend and never touch the network.
package pmessage

import "time"

// Message is the immutable, fully-populated unit the actor hands to a
// Connection. Once constructed it is never mutated.
type Message struct {
	ProducerID   uint64
	ProducerName string
	SequenceID   uint64

	Payload []byte

	Properties    map[string]string
	PartitionKey  string
	OrderingKey   []byte
	EventTime     time.Time
	DeliverAtTime time.Time // zero value means "no delayed delivery"
}

// Delayed reports whether this message carries a non-null deliver_at_time
// and therefore must bypass batching.
func (m *Message) Delayed() bool {
	return !m.DeliverAtTime.IsZero()
}

// Build allocates a Message from a payload and normalised options, using the
// producer identity and sequence counter supplied by the caller (the actor).
// It returns the message together with the sequence id the actor's state
// should advance to; Build never mutates its inputs and never suspends.
func Build(producerID uint64, producerName string, lastSequenceID uint64, payload []byte, opts Options) (msg *Message, nextSequenceID uint64) {
	seq := lastSequenceID + 1
	msg = &Message{
		ProducerID:    producerID,
		ProducerName:  producerName,
		SequenceID:    seq,
		Payload:       payload,
		Properties:    opts.Properties,
		PartitionKey:  opts.PartitionKey,
		OrderingKey:   opts.OrderingKey,
		EventTime:     opts.EventTime,
		DeliverAtTime: opts.DeliverAtTime,
	}
	return msg, seq
}
