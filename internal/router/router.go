// Package router is a minimal partitioned-topic fan-out: it constructs
// one producer actor per partition, routes a publish to the right actor
// by key, and recreates an actor that exits abnormally once its
// termination backoff has elapsed.
package router

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/pulsar-local-lab/partition-producer/internal/actor"
	"github.com/pulsar-local-lab/partition-producer/internal/metrics"
	"github.com/pulsar-local-lab/partition-producer/internal/pmessage"
	"github.com/pulsar-local-lab/partition-producer/internal/topic"
	"github.com/pulsar-local-lab/partition-producer/internal/transport"
)

// Router owns one producer actor per partition of a partitioned topic and
// fans Publish calls out by partition key. It does not itself speak the
// wire protocol — it composes transport.LookupService/ConnectionManager
// and internal/actor exactly as the standalone actor does.
type Router struct {
	baseTopic topic.Name
	lookup    transport.LookupService
	connMgr   transport.ConnectionManager
	opts      actor.Options
	collector *metrics.Collector
	log       *logrus.Entry

	mu        sync.RWMutex
	actors    []*actor.Actor
	running   bool
	wg        sync.WaitGroup
	cancelAll context.CancelFunc
}

// New constructs a Router for a partitioned topic with numPartitions
// shards, but does not start any actor yet — call Start for that.
func New(baseTopic topic.Name, numPartitions int, lookup transport.LookupService, connMgr transport.ConnectionManager, opts actor.Options, collector *metrics.Collector) (*Router, error) {
	if numPartitions < 1 {
		return nil, fmt.Errorf("router: numPartitions must be >= 1, got %d", numPartitions)
	}
	return &Router{
		baseTopic: baseTopic,
		lookup:    lookup,
		connMgr:   connMgr,
		opts:      opts,
		collector: collector,
		log:       logrus.WithField("topic", baseTopic.String()),
		actors:    make([]*actor.Actor, numPartitions),
	}, nil
}

// Start binds every partition's actor. If any partition fails to bind,
// every already-started actor is closed and the error is returned —
// there is no point routing traffic to a partially-constructed router.
func (r *Router) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return fmt.Errorf("router: already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	r.cancelAll = cancel
	r.mu.Unlock()

	for i := range r.actors {
		a, err := actor.Start(runCtx, r.baseTopic.WithPartition(i).String(), r.lookup, r.connMgr, r.opts, r.collector)
		if err != nil {
			r.Stop()
			return fmt.Errorf("router: start partition %d: %w", i, err)
		}
		r.mu.Lock()
		r.actors[i] = a
		r.mu.Unlock()
		r.supervise(runCtx, i)
	}

	r.mu.Lock()
	r.running = true
	r.mu.Unlock()
	return nil
}

// supervise watches one partition's actor and, if it exits with a
// non-nil (fatal) reason, recreates it after its own termination backoff
// has already elapsed — the actor's sleep inside terminate is the pacing;
// the supervisor adds no backoff of its own.
func (r *Router) supervise(ctx context.Context, partition int) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for {
			r.mu.RLock()
			a := r.actors[partition]
			r.mu.RUnlock()
			if a == nil {
				return
			}

			select {
			case <-a.Done():
			case <-ctx.Done():
				return
			}

			if a.Err() == nil {
				return // a deliberate Close/Stop, not a failure to recover from
			}

			r.log.WithError(a.Err()).WithField("partition", partition).Warn("recreating producer actor after abnormal exit")

			next, err := actor.Start(ctx, r.baseTopic.WithPartition(partition).String(), r.lookup, r.connMgr, r.opts, r.collector)
			if err != nil {
				r.log.WithError(err).WithField("partition", partition).Error("failed to recreate producer actor, giving up on this partition")
				return
			}

			r.mu.Lock()
			r.actors[partition] = next
			r.mu.Unlock()
		}
	}()
}

// Stop closes every partition's actor and waits for their supervisors to
// exit.
func (r *Router) Stop() error {
	r.mu.Lock()
	if !r.running && r.cancelAll == nil {
		r.mu.Unlock()
		return nil
	}
	r.running = false
	cancel := r.cancelAll
	actors := make([]*actor.Actor, len(r.actors))
	copy(actors, r.actors)
	r.mu.Unlock()

	for _, a := range actors {
		if a != nil {
			_ = a.Close(context.Background())
		}
	}
	if cancel != nil {
		cancel()
	}
	r.wg.Wait()
	return nil
}

// Publish routes payload to the partition selected by partitionKey's hash
// modulo the partition count, and publishes synchronously on that
// partition's actor.
func (r *Router) Publish(ctx context.Context, partitionKey string, payload []byte, opts ...pmessage.Option) (transport.MessageID, error) {
	a, err := r.actorFor(partitionKey)
	if err != nil {
		return nil, err
	}
	return a.Publish(ctx, payload, opts...)
}

// PublishToPartition bypasses key-based routing and publishes directly to
// a caller-chosen partition index.
func (r *Router) PublishToPartition(ctx context.Context, partition int, payload []byte, opts ...pmessage.Option) (transport.MessageID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if partition < 0 || partition >= len(r.actors) || r.actors[partition] == nil {
		return nil, fmt.Errorf("router: no actor for partition %d", partition)
	}
	return r.actors[partition].Publish(ctx, payload, opts...)
}

func (r *Router) actorFor(partitionKey string) (*actor.Actor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.actors) == 0 {
		return nil, fmt.Errorf("router: no partitions configured")
	}
	idx := partitionIndex(partitionKey, len(r.actors))
	a := r.actors[idx]
	if a == nil {
		return nil, fmt.Errorf("router: partition %d has no live actor", idx)
	}
	return a, nil
}

// partitionIndex hashes key into [0, numPartitions). An empty key always
// maps to partition 0, matching the common "no key supplied" default.
func partitionIndex(key string, numPartitions int) int {
	if key == "" {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(numPartitions))
}

// PartitionCount returns the number of partitions this router manages.
func (r *Router) PartitionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.actors)
}

// Metrics returns the shared collector every partition actor reports
// into.
func (r *Router) Metrics() *metrics.Collector {
	return r.collector
}
