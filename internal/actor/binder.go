package actor

import (
	"context"
	"math/rand"
	"time"

	"github.com/pulsar-local-lab/partition-producer/internal/transport"
)

// jitteredRefreshInterval returns a duration in [base, 2*base): the
// jitter is mandatory so a fleet of per-partition actors doesn't storm the
// lookup service in lockstep.
func jitteredRefreshInterval(base time.Duration) time.Duration {
	return base + time.Duration(rand.Int63n(int64(base)))
}

// refreshResult is the outcome of one Broker Binder refresh tick.
type refreshResult int

const (
	refreshSameBroker refreshResult = iota
	refreshBrokerChanged
	refreshFailed
)

// checkRefresh re-runs the topic lookup and compares it against the
// broker the actor is currently bound to. It never mutates actor state;
// the caller decides what to do with the verdict.
func (a *Actor) checkRefresh(ctx context.Context) (refreshResult, error) {
	broker, err := a.lookup.LookupTopic(ctx, a.topicName)
	if err != nil {
		return refreshFailed, err
	}
	if broker != a.broker {
		return refreshBrokerChanged, nil
	}
	return refreshSameBroker, nil
}

// bind performs the Broker Binder's start-up sequence: lookup, checkout a
// connection, and create the broker-side producer. It is only ever called
// once, from Start.
func bind(ctx context.Context, topicName string, lookup transport.LookupService, connMgr transport.ConnectionManager, opts Options) (broker string, conn transport.Connection, reply transport.CreateProducerReply, err error) {
	broker, err = lookup.LookupTopic(ctx, topicName)
	if err != nil {
		return "", nil, transport.CreateProducerReply{}, newError(KindLookupFailed, err)
	}

	conn, err = connMgr.GetConnection(ctx, broker)
	if err != nil {
		return "", nil, transport.CreateProducerReply{}, newError(KindCreateProducerFailed, err)
	}

	reply, err = conn.CreateProducer(ctx, topicName, transport.ProducerOptions{
		AccessMode: opts.ProducerAccessMode,
		Properties: opts.Properties,
	})
	if err != nil {
		return "", nil, transport.CreateProducerReply{}, newError(KindCreateProducerFailed, err)
	}

	return broker, conn, reply, nil
}
