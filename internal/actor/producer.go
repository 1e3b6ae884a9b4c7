// Package actor implements the producer actor: a single-threaded event
// loop that owns one partition's producer state, multiplexing publish
// requests, flush/refresh timers, connection-down notifications, and
// shutdown into one serialised stream of turns.
package actor

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pulsar-local-lab/partition-producer/internal/metrics"
	"github.com/pulsar-local-lab/partition-producer/internal/pmessage"
	"github.com/pulsar-local-lab/partition-producer/internal/pqueue"
	"github.com/pulsar-local-lab/partition-producer/internal/transport"
)

// publishRequest is the event admitted by Publish/PublishAsync. reply is
// nil for fire-and-forget publishes.
type publishRequest struct {
	payload []byte
	opts    pmessage.Options
	reply   pqueue.Reply
}

// Actor is a partitioned producer's single-threaded event loop. Every
// field below is touched only from run's goroutine; external callers
// communicate exclusively through channels.
type Actor struct {
	topicName string
	lookup    transport.LookupService
	connMgr   transport.ConnectionManager
	opts      Options
	metrics   *metrics.Collector
	log       *logrus.Entry

	// Producer state, owned exclusively by run's goroutine.
	broker       string
	conn         transport.Connection
	producerID   uint64
	producerName string
	lastSeq      uint64
	queue        *pqueue.Queue

	publishCh chan publishRequest
	closeCh   chan chan struct{}

	stopped  chan struct{}
	exitOnce sync.Once
	exitErr  error
}

// Start binds the actor to its partition's owning broker and creates the
// broker-side producer, then launches the event loop. A non-nil error
// here is always fatal at start (lookup_failed or create_producer_failed)
// — there is no actor to run.
func Start(ctx context.Context, topicName string, lookup transport.LookupService, connMgr transport.ConnectionManager, opts Options, collector *metrics.Collector) (*Actor, error) {
	opts = opts.normalize()

	broker, conn, reply, err := bind(ctx, topicName, lookup, connMgr, opts)
	if err != nil {
		return nil, err
	}

	a := &Actor{
		topicName:    topicName,
		lookup:       lookup,
		connMgr:      connMgr,
		opts:         opts,
		metrics:      collector,
		log:          logrus.WithFields(logrus.Fields{"topic": topicName, "broker": broker}),
		broker:       broker,
		conn:         conn,
		producerID:   reply.ProducerID,
		producerName: reply.ProducerName,
		lastSeq:      reply.LastSequenceID,
		queue:        pqueue.New(opts.BatchSize),
		publishCh:    make(chan publishRequest),
		closeCh:      make(chan chan struct{}),
		stopped:      make(chan struct{}),
	}

	go a.run(ctx)
	return a, nil
}

// Publish sends payload synchronously: it blocks until the actor has
// dispatched the message (directly, or as part of a batch) and the
// broker's reply has fanned back out. It relies on the caller's own
// context for cancellation/timeout — the actor never times out a queued
// entry on its own.
func (a *Actor) Publish(ctx context.Context, payload []byte, opts ...pmessage.Option) (transport.MessageID, error) {
	reply := make(pqueue.Reply, 1)
	req := publishRequest{payload: payload, opts: pmessage.Normalize(time.Now(), opts...), reply: reply}

	select {
	case a.publishCh <- req:
	case <-a.stopped:
		return nil, newError(KindClosed, nil)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case res := <-reply:
		return res.ID, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// PublishAsync enqueues payload and returns immediately; it never blocks
// on a broker round-trip and discards the eventual result. The connection
// layer is responsible for logging async-send failures.
func (a *Actor) PublishAsync(payload []byte, opts ...pmessage.Option) error {
	req := publishRequest{payload: payload, opts: pmessage.Normalize(time.Now(), opts...), reply: nil}
	select {
	case a.publishCh <- req:
		return nil
	case <-a.stopped:
		return newError(KindClosed, nil)
	}
}

// Close asks the actor to terminate with a normal ("shutdown") exit
// reason: the queue is still fast-failed, but no termination backoff is
// applied. It blocks until the event loop has exited or ctx is done.
func (a *Actor) Close(ctx context.Context) error {
	ack := make(chan struct{})
	select {
	case a.closeCh <- ack:
	case <-a.stopped:
		return nil
	}
	select {
	case <-ack:
		return nil
	case <-a.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done returns a channel closed once the event loop has fully exited
// (after any termination backoff).
func (a *Actor) Done() <-chan struct{} { return a.stopped }

// Err returns the actor's exit reason once Done is closed; it is nil for
// a normal (shutdown/close-directive) exit.
func (a *Actor) Err() error { return a.exitErr }

func (a *Actor) run(ctx context.Context) {
	var flushC <-chan time.Time
	if a.opts.BatchEnabled {
		ticker := time.NewTicker(a.opts.FlushInterval)
		defer ticker.Stop()
		flushC = ticker.C
	}

	refreshTimer := time.NewTimer(jitteredRefreshInterval(a.opts.RefreshInterval))
	defer refreshTimer.Stop()

	connDown := a.conn.Closed()

	for {
		select {
		case req := <-a.publishCh:
			a.handlePublish(ctx, req)

		case ack := <-a.closeCh:
			a.terminate(nil)
			close(ack)
			return

		case <-flushC:
			a.handleFlush(ctx)

		case <-refreshTimer.C:
			result, err := a.checkRefresh(ctx)
			switch {
			case err != nil:
				a.terminate(newError(KindLookupFailed, err))
				return
			case result == refreshBrokerChanged:
				a.terminate(newError(KindBrokerChanged, nil))
				return
			default:
				refreshTimer.Reset(jitteredRefreshInterval(a.opts.RefreshInterval))
			}

		case <-connDown:
			a.terminate(newError(KindConnectionDown, nil))
			return

		case <-ctx.Done():
			a.terminate(nil)
			return
		}
	}
}

// handlePublish implements the publish dispatch decision: direct-send when
// batching is off or the message is delayed, otherwise
// queue-and-maybe-dispatch.
func (a *Actor) handlePublish(ctx context.Context, req publishRequest) {
	msg, nextSeq := pmessage.Build(a.producerID, a.producerName, a.lastSeq, req.payload, req.opts)
	a.lastSeq = nextSeq

	if !a.opts.BatchEnabled || msg.Delayed() {
		a.sendSingle(ctx, msg, req.reply)
		return
	}

	a.queue.Append(pqueue.Entry{Message: msg, Reply: req.reply})
	if a.queue.Len() >= a.opts.BatchSize {
		a.dispatchBatch(ctx)
	}
	// Else: leave queued. A sync caller here gets no reply until a later
	// flush tick or size trigger drains the queue.
}

// sendSingle dispatches one message via Connection.send_message and
// replies immediately — used for non-batched producers and for
// delayed-delivery messages, which always bypass the queue.
func (a *Actor) sendSingle(ctx context.Context, msg *pmessage.Message, reply pqueue.Reply) {
	start := time.Now()
	id, err := a.conn.SendMessage(ctx, a.producerID, msg)
	a.recordSend(len(msg.Payload), time.Since(start), err)
	a.postReply(reply, id, err)
}

// handleFlush implements the flush tick: dispatch whatever is queued, if
// anything, and let the ticker rearm itself.
func (a *Actor) handleFlush(ctx context.Context) {
	if a.queue.Len() > 0 {
		a.dispatchBatch(ctx)
	}
}

// dispatchBatch drains the queue, issues one Connection.send_messages
// call, and fans the single reply out to every waiting caller — the
// broker round-trip and the fan-out are the only suspension and the only
// per-turn work the actor does here.
func (a *Actor) dispatchBatch(ctx context.Context) {
	batch := a.queue.Drain()
	if len(batch) == 0 {
		return
	}
	msgs := pqueue.Messages(batch)

	start := time.Now()
	id, err := a.conn.SendMessages(ctx, a.producerID, msgs)
	latency := time.Since(start)
	for _, m := range msgs {
		a.recordSend(len(m.Payload), latency, err)
	}

	for _, entry := range batch {
		a.postReply(entry.Reply, id, err)
	}
}

// postReply fans a result to a (possibly nil) reply handle. The channel
// is buffered with capacity 1, so this never blocks the actor's turn even
// if the original caller has already abandoned it (orphaned timeout).
func (a *Actor) postReply(r pqueue.Reply, id transport.MessageID, err error) {
	if r == nil {
		return
	}
	res := pqueue.Result{ID: id}
	if err != nil {
		res.Err = newError(KindSendFailed, err)
	}
	select {
	case r <- res:
	default:
	}
}

func (a *Actor) recordSend(bytes int, latency time.Duration, err error) {
	if a.metrics == nil {
		return
	}
	if err != nil {
		a.metrics.RecordFailure()
		return
	}
	a.metrics.RecordSend(bytes, latency)
}

// terminate implements shutdown/fast-fail: every queued entry is failed
// with {error, closed} in FIFO order, then the exit reason is classified
// by Kind.fatal. A nil reason, or one whose Kind is not fatal, is
// "shutdown"/"normal" — log at debug and return immediately. A fatal
// reason logs at error and sleeps termination_timeout before the loop
// (and therefore the actor) exits, so a supervisor cannot recreate this
// producer in a tight loop against a broker that just rejected it.
func (a *Actor) terminate(reason error) {
	for _, entry := range a.queue.Drain() {
		a.postReply(entry.Reply, nil, newError(KindClosed, nil))
	}

	a.exitOnce.Do(func() {
		a.exitErr = reason
		if !isFatal(reason) {
			a.log.Debug("producer actor stopped")
			close(a.stopped)
			return
		}
		a.log.WithError(reason).Error("producer actor exiting abnormally")
		time.Sleep(a.opts.TerminationTimeout)
		close(a.stopped)
	})
}

// isFatal reports whether reason carries one of the actor's fatal exit
// Kinds (see Kind.fatal). A nil reason, or one that isn't an *Error at
// all, is never fatal.
func isFatal(reason error) bool {
	actorErr, ok := reason.(*Error)
	return ok && actorErr.Kind.fatal()
}

func init() {
	rand.Seed(time.Now().UnixNano())
}
