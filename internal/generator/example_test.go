package generator_test

import (
	"fmt"

	"github.com/pulsar-local-lab/partition-producer/internal/generator"
)

// Example demonstrates zero-allocation payload generation with pooled
// buffers, the pattern cmd/producer's load generator uses on every
// publish.
func ExamplePayloadPool() {
	pool := generator.NewPayloadPool(1024, 100)

	for i := uint64(0); i < 3; i++ {
		buf := pool.Get()
		generator.GenerateSequentialPayloadTo(buf, i)

		seqNum, _ := generator.ExtractSequenceNumber(buf)
		fmt.Printf("Sequence: %d\n", seqNum)

		pool.Put(buf)
	}
	// Output:
	// Sequence: 0
	// Sequence: 1
	// Sequence: 2
}
