package manager

import (
	"context"
	"sync/atomic"

	"textgend/internal/queue"
)

// replyChannels are the two per-request queues shared by a ThreadRequest
// (worker side, sole writer) and its Reply (caller side, sole reader).
type replyChannels struct {
	promptTokens *queue.Unbounded[int]
	tokens       *queue.Unbounded[Token]
	// dropped is set when the request was discarded without reaching a worker.
	dropped atomic.Bool
}

func newReplyChannels() *replyChannels {
	return &replyChannels{
		promptTokens: queue.NewUnbounded[int](),
		tokens:       queue.NewUnbounded[Token](),
	}
}

func (c *replyChannels) close() {
	c.promptTokens.Close()
	c.tokens.Close()
}

// ThreadRequest is the unit of work placed on the dispatch queue. The worker
// that pops it owns the writing side of its reply channels.
type ThreadRequest struct {
	ctx   context.Context
	kind  RequestKind
	reply *replyChannels
}

// Context is canceled when the caller abandons the request.
func (r *ThreadRequest) Context() context.Context { return r.ctx }

// Request returns the work item: *GenerateRequest or *TokenizeRequest.
func (r *ThreadRequest) Request() RequestKind { return r.kind }

// SendPromptTokens delivers the one-shot prompt token count.
func (r *ThreadRequest) SendPromptTokens(n int) error {
	err := r.reply.promptTokens.Push(n)
	r.reply.promptTokens.Close()
	return err
}

// SendToken appends t to the token stream. A terminal token closes the stream.
// It fails with queue.ErrClosed once the caller has abandoned the request.
func (r *ThreadRequest) SendToken(t Token) error {
	if err := r.reply.tokens.Push(t); err != nil {
		return err
	}
	if t.Terminal() {
		r.reply.tokens.Close()
	}
	return nil
}

// Close closes both reply channels. Values already sent stay readable.
func (r *ThreadRequest) Close() { r.reply.close() }

// drop discards a request that will never be served.
func (r *ThreadRequest) drop() {
	r.reply.dropped.Store(true)
	r.reply.close()
}

// Reply is the caller's side of a dispatched request.
type Reply struct {
	reply  *replyChannels
	cancel context.CancelFunc
}

// Abandon cancels the request context and closes the reply channels so a
// worker still writing to them stops. Safe to call more than once.
func (r *Reply) Abandon() {
	r.cancel()
	r.reply.close()
}

// Dropped reports whether the request was discarded before a worker took it.
func (r *Reply) Dropped() bool { return r.reply.dropped.Load() }

// Dispatcher is the dispatch channel: an unbounded queue with many producers
// (callers) and one consumer (the generation worker).
type Dispatcher struct {
	q *queue.Unbounded[*ThreadRequest]
}

// NewDispatcher returns an open dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{q: queue.NewUnbounded[*ThreadRequest]()}
}

// Dispatch enqueues kind with two freshly allocated reply channels. It never
// waits for the worker; it fails only when the dispatcher is closed.
func (d *Dispatcher) Dispatch(ctx context.Context, kind RequestKind) (*Reply, error) {
	rctx, cancel := context.WithCancel(ctx)
	ch := newReplyChannels()
	tr := &ThreadRequest{ctx: rctx, kind: kind, reply: ch}
	if err := d.q.Push(tr); err != nil {
		cancel()
		ch.close()
		return nil, err
	}
	return &Reply{reply: ch, cancel: cancel}, nil
}

// Next blocks until a request is available. It returns queue.ErrClosed once
// the dispatcher is closed and drained.
func (d *Dispatcher) Next(ctx context.Context) (*ThreadRequest, error) {
	return d.q.Pop(ctx)
}

// Close stops accepting new requests. Queued requests can still be taken with Next.
func (d *Dispatcher) Close() { d.q.Close() }

// Drain closes the dispatcher and drops every queued request, releasing their
// callers. It returns how many requests were dropped.
func (d *Dispatcher) Drain() int {
	d.q.Close()
	n := 0
	for {
		tr, err := d.q.Pop(context.Background())
		if err != nil {
			return n
		}
		tr.drop()
		n++
	}
}

// Len returns the number of queued requests.
func (d *Dispatcher) Len() int { return d.q.Len() }
