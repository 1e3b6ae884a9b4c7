// Package pqueue implements a bounded FIFO of (message, reply-handle)
// pairs awaiting dispatch. It is owned exclusively by a single producer
// actor, so it needs no internal locking — callers provide their own
// exclusion (the actor's single-threaded event loop).
package pqueue

import (
	"github.com/pulsar-local-lab/partition-producer/internal/pmessage"
	"github.com/pulsar-local-lab/partition-producer/internal/transport"
)

// Result is what a reply handle eventually receives: the broker-assigned
// id on success, or a classified error on failure.
type Result struct {
	ID  transport.MessageID
	Err error
}

// Reply is the optional one-shot sink a caller uses to learn the outcome of
// a publish. A nil Reply means fire-and-forget: nothing is ever sent to it,
// and posting to it is simply skipped. It is buffered with capacity 1 so
// the actor's single dispatch turn never blocks on a slow or abandoned
// caller — an orphaned reply handle's eventual post is simply a no-op.
type Reply chan Result

// Entry pairs a built message with the reply sink (if any) waiting on its
// dispatch outcome.
type Entry struct {
	Message *pmessage.Message
	Reply   Reply
}

// Queue is an array-backed FIFO sized to batch_size. Entries are appended
// at the tail and drained from the head in strict insertion order — that
// order is the broker-visible send order and must never be permuted.
type Queue struct {
	entries []Entry
}

// New returns an empty queue pre-sized for batchSize entries, avoiding
// reallocation on the hot append path.
func New(batchSize int) *Queue {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Queue{entries: make([]Entry, 0, batchSize)}
}

// Append adds an entry to the tail of the queue.
func (q *Queue) Append(e Entry) {
	q.entries = append(q.entries, e)
}

// Len returns the current number of queued entries.
func (q *Queue) Len() int {
	return len(q.entries)
}

// Drain removes and returns every queued entry, in FIFO order, leaving the
// queue empty. The returned slice is a fresh copy — the caller may dispatch
// it concurrently with further queue use without racing.
func (q *Queue) Drain() []Entry {
	if len(q.entries) == 0 {
		return nil
	}
	drained := make([]Entry, len(q.entries))
	copy(drained, q.entries)
	q.entries = q.entries[:0]
	return drained
}

// Messages extracts the parallel []*pmessage.Message slice from a drained
// batch, preserving order — this is what gets handed to
// Connection.send_messages.
func Messages(batch []Entry) []*pmessage.Message {
	if len(batch) == 0 {
		return nil
	}
	msgs := make([]*pmessage.Message, len(batch))
	for i, e := range batch {
		msgs[i] = e.Message
	}
	return msgs
}
