// Package generator synthesizes load-test payloads for the demo producer
// CLI: fixed-size buffers carrying a monotonic sequence number, reused via
// a pool so the publish loop doesn't allocate per message.
package generator

import (
	"crypto/rand"
	"encoding/binary"
	"sync"
)

// PayloadPool hands out reusable byte buffers of a fixed size so the load
// generator's publish loop doesn't allocate on every iteration.
type PayloadPool struct {
	size int
	pool *sync.Pool
}

// NewPayloadPool creates a buffer pool for payloads of the given size.
func NewPayloadPool(size, capacity int) *PayloadPool {
	return &PayloadPool{
		size: size,
		pool: &sync.Pool{
			New: func() interface{} {
				return make([]byte, size)
			},
		},
	}
}

// Get retrieves a buffer of the pool's configured size. The contents may
// be stale from a previous use and must be overwritten by the caller.
func (p *PayloadPool) Get() []byte {
	return p.pool.Get().([]byte)
}

// Put returns buf to the pool. buf must not be used again afterward.
func (p *PayloadPool) Put(buf []byte) {
	p.pool.Put(buf)
}

// GenerateSequentialPayloadTo fills buf with a big-endian sequence number
// in the first 8 bytes, followed by random filler. buf must be at least 8
// bytes; this is the zero-allocation form used against a pooled buffer.
func GenerateSequentialPayloadTo(buf []byte, seqNum uint64) []byte {
	if len(buf) < 8 {
		panic("buffer must be at least 8 bytes for sequence number")
	}

	binary.BigEndian.PutUint64(buf[0:8], seqNum)
	if len(buf) > 8 {
		rand.Read(buf[8:])
	}

	return buf
}

// ExtractSequenceNumber extracts the sequence number embedded by
// GenerateSequentialPayloadTo. Returns false if payload is too short to
// carry one.
func ExtractSequenceNumber(payload []byte) (uint64, bool) {
	if len(payload) < 8 {
		return 0, false
	}
	return binary.BigEndian.Uint64(payload[0:8]), true
}
