package pmessage

import "time"

// Options is the normalised form of a publish call's recognised keys:
// properties, partition_key, ordering_key, event_time, deliver_at_time.
// Whether the caller supplied an ordered sequence of Option funcs or a
// map[string]any, normalisation converges on the same Options value.
type Options struct {
	Properties    map[string]string
	PartitionKey  string
	OrderingKey   []byte
	EventTime     time.Time
	DeliverAtTime time.Time

	// delaySet/deliverAtSet track which of the two competing knobs the
	// caller actually touched, so Normalize can apply "delay wins" without
	// needing a sentinel zero-time comparison that would misfire for a
	// legitimately-zero EventTime.
	delaySet     bool
	delay        time.Duration
	deliverAtSet bool
}

// Option mutates an Options value, modeling an ordered keyword-like
// sequence of publish-call knobs.
type Option func(*Options)

// WithProperties sets the string-to-string property map.
func WithProperties(props map[string]string) Option {
	return func(o *Options) { o.Properties = props }
}

// WithPartitionKey sets the routing partition key.
func WithPartitionKey(key string) Option {
	return func(o *Options) { o.PartitionKey = key }
}

// WithOrderingKey sets the ordering key used by key-shared subscriptions.
func WithOrderingKey(key []byte) Option {
	return func(o *Options) { o.OrderingKey = key }
}

// WithEventTime sets the application-supplied event timestamp.
func WithEventTime(t time.Time) Option {
	return func(o *Options) { o.EventTime = t }
}

// WithDeliverAtTime sets an absolute delayed-delivery timestamp.
func WithDeliverAtTime(t time.Time) Option {
	return func(o *Options) {
		o.DeliverAtTime = t
		o.deliverAtSet = true
	}
}

// WithDelay sets a relative delay from "now"; it takes precedence over
// WithDeliverAtTime regardless of call order.
func WithDelay(d time.Duration) Option {
	return func(o *Options) {
		o.delay = d
		o.delaySet = true
	}
}

// Normalize builds an Options value from an ordered sequence of Option
// funcs and resolves the delay/deliver_at_time precedence rule. now is
// threaded in explicitly (rather than calling time.Now internally) so the
// function stays pure and callers can keep it deterministic in tests.
func Normalize(now time.Time, opts ...Option) Options {
	var o Options
	for _, apply := range opts {
		apply(&o)
	}
	resolveDelay(&o, now)
	return o
}

// FromMap builds an Options value from a mapping, mirroring Normalize's
// precedence rules. Unknown keys are dropped silently. Recognised keys:
// properties, partition_key, ordering_key, event_time, deliver_at_time,
// delay.
func FromMap(now time.Time, m map[string]any) Options {
	var o Options
	if v, ok := m["properties"].(map[string]string); ok {
		o.Properties = v
	}
	if v, ok := m["partition_key"].(string); ok {
		o.PartitionKey = v
	}
	if v, ok := m["ordering_key"].([]byte); ok {
		o.OrderingKey = v
	}
	if v, ok := m["event_time"].(time.Time); ok {
		o.EventTime = v
	}
	if v, ok := m["deliver_at_time"].(time.Time); ok {
		o.DeliverAtTime = v
		o.deliverAtSet = true
	}
	switch v := m["delay"].(type) {
	case time.Duration:
		o.delay = v
		o.delaySet = true
	case int:
		o.delay = time.Duration(v) * time.Millisecond
		o.delaySet = true
	case int64:
		o.delay = time.Duration(v) * time.Millisecond
		o.delaySet = true
	}
	resolveDelay(&o, now)
	return o
}

// resolveDelay applies "delay wins over deliver_at_time when both are
// present" and converts a relative delay into an absolute timestamp.
func resolveDelay(o *Options, now time.Time) {
	if o.delaySet {
		o.DeliverAtTime = now.Add(o.delay)
		return
	}
	if !o.deliverAtSet {
		o.DeliverAtTime = time.Time{}
	}
}
