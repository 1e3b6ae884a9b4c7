package generator

import (
	"sync"
	"testing"
)

func TestGenerateSequentialPayloadTo(t *testing.T) {
	t.Run("fills buffer with sequence", func(t *testing.T) {
		buf := make([]byte, 1024)
		seqNum := uint64(12345)

		result := GenerateSequentialPayloadTo(buf, seqNum)

		extracted, ok := ExtractSequenceNumber(result)
		if !ok {
			t.Fatal("failed to extract sequence number")
		}
		if extracted != seqNum {
			t.Errorf("expected sequence %d, got %d", seqNum, extracted)
		}
	})

	t.Run("panics on small buffer", func(t *testing.T) {
		defer func() {
			if r := recover(); r == nil {
				t.Error("expected panic for buffer < 8 bytes")
			}
		}()

		buf := make([]byte, 4)
		GenerateSequentialPayloadTo(buf, 123)
	})

	t.Run("works with pooled buffer", func(t *testing.T) {
		pool := NewPayloadPool(1024, 10)
		buf := pool.Get()

		GenerateSequentialPayloadTo(buf, 999)

		extracted, ok := ExtractSequenceNumber(buf)
		if !ok || extracted != 999 {
			t.Errorf("expected sequence 999, got %d (ok=%v)", extracted, ok)
		}

		pool.Put(buf)
	})

	t.Run("exact 8 bytes carries no filler", func(t *testing.T) {
		buf := make([]byte, 8)
		GenerateSequentialPayloadTo(buf, 7)

		extracted, ok := ExtractSequenceNumber(buf)
		if !ok || extracted != 7 {
			t.Errorf("expected sequence 7, got %d (ok=%v)", extracted, ok)
		}
	})
}

func TestExtractSequenceNumber(t *testing.T) {
	tests := []struct {
		name      string
		payload   []byte
		expectSeq uint64
		expectOk  bool
	}{
		{
			name:      "valid payload with seq 42",
			payload:   GenerateSequentialPayloadTo(make([]byte, 1024), 42),
			expectSeq: 42,
			expectOk:  true,
		},
		{
			name:      "valid payload with seq 0",
			payload:   GenerateSequentialPayloadTo(make([]byte, 8), 0),
			expectSeq: 0,
			expectOk:  true,
		},
		{
			name:      "payload too small",
			payload:   []byte{1, 2, 3},
			expectSeq: 0,
			expectOk:  false,
		},
		{
			name:      "empty payload",
			payload:   []byte{},
			expectSeq: 0,
			expectOk:  false,
		},
		{
			name:      "nil payload",
			payload:   nil,
			expectSeq: 0,
			expectOk:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq, ok := ExtractSequenceNumber(tt.payload)

			if ok != tt.expectOk {
				t.Errorf("expected ok=%v, got ok=%v", tt.expectOk, ok)
			}

			if ok && seq != tt.expectSeq {
				t.Errorf("expected sequence %d, got %d", tt.expectSeq, seq)
			}
		})
	}
}

func TestPayloadPool(t *testing.T) {
	t.Run("basic get and put", func(t *testing.T) {
		pool := NewPayloadPool(1024, 10)

		buf := pool.Get()
		if len(buf) != 1024 {
			t.Errorf("expected buffer size 1024, got %d", len(buf))
		}

		pool.Put(buf)
	})

	t.Run("concurrent access", func(t *testing.T) {
		pool := NewPayloadPool(1024, 100)
		var wg sync.WaitGroup
		concurrency := 10
		iterations := 100

		for i := 0; i < concurrency; i++ {
			wg.Add(1)
			go func(base int) {
				defer wg.Done()
				for j := 0; j < iterations; j++ {
					buf := pool.Get()
					if len(buf) != 1024 {
						t.Errorf("expected buffer size 1024, got %d", len(buf))
					}
					GenerateSequentialPayloadTo(buf, uint64(base*iterations+j))
					pool.Put(buf)
				}
			}(i)
		}

		wg.Wait()
	})
}

func BenchmarkGenerateSequentialPayloadTo(b *testing.B) {
	sizes := []int{64, 256, 1024, 4096}

	for _, size := range sizes {
		b.Run(string(rune(size)), func(b *testing.B) {
			pool := NewPayloadPool(size, 100)
			b.SetBytes(int64(size))
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				buf := pool.Get()
				GenerateSequentialPayloadTo(buf, uint64(i))
				pool.Put(buf)
			}
		})
	}
}

func BenchmarkPayloadPoolParallel(b *testing.B) {
	pool := NewPayloadPool(1024, 100)

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			buf := pool.Get()
			GenerateSequentialPayloadTo(buf, 0)
			pool.Put(buf)
		}
	})
}

func BenchmarkExtractSequenceNumber(b *testing.B) {
	payload := GenerateSequentialPayloadTo(make([]byte, 1024), 12345)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = ExtractSequenceNumber(payload)
	}
}
