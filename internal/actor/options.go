package actor

import "time"

const (
	minBatchSize          = 1
	minFlushInterval      = 100 * time.Millisecond
	minRefreshInterval    = 10 * time.Second
	maxTerminationTimeout = 5 * time.Second

	defaultBatchSize          = 100
	defaultFlushInterval      = 100 * time.Millisecond
	defaultRefreshInterval    = 60 * time.Second
	defaultTerminationTimeout = 3 * time.Second
)

// Options configures a producer actor's construction. The floors/ceiling
// below are enforced by normalize, never trusted from the caller.
type Options struct {
	BatchEnabled       bool
	BatchSize          int
	FlushInterval      time.Duration
	RefreshInterval    time.Duration
	TerminationTimeout time.Duration

	// ProducerAccessMode and Properties are opaque values forwarded to
	// Connection.create_producer.
	ProducerAccessMode int
	Properties         map[string]string
}

// DefaultOptions returns sensible defaults for a producer actor.
func DefaultOptions() Options {
	return Options{
		BatchEnabled:       false,
		BatchSize:          defaultBatchSize,
		FlushInterval:      defaultFlushInterval,
		RefreshInterval:    defaultRefreshInterval,
		TerminationTimeout: defaultTerminationTimeout,
	}
}

// normalize clamps every tunable to its floor/ceiling: batch_size >= 1,
// flush_interval >= 100ms, refresh_interval >= 10s, termination_timeout <=
// 5s (larger values are silently capped).
func (o Options) normalize() Options {
	if o.BatchSize < minBatchSize {
		o.BatchSize = minBatchSize
	}
	if o.FlushInterval < minFlushInterval {
		o.FlushInterval = minFlushInterval
	}
	if o.RefreshInterval < minRefreshInterval {
		o.RefreshInterval = minRefreshInterval
	}
	if o.TerminationTimeout <= 0 {
		o.TerminationTimeout = defaultTerminationTimeout
	}
	if o.TerminationTimeout > maxTerminationTimeout {
		o.TerminationTimeout = maxTerminationTimeout
	}
	return o
}
