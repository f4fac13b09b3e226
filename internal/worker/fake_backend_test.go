package worker

import (
	"context"
	"strings"
	"sync/atomic"

	"textgend/internal/manager"
)

// fakeBackend counts whitespace-separated words as tokens and replays frags.
type fakeBackend struct {
	frags    []string
	err      error
	countErr error
	// block makes Generate wait for cancellation after signalling started.
	block   bool
	started chan struct{}
	panics  bool

	calls atomic.Int32
	// countCtx is the context of the last CountTokens call.
	countCtx atomic.Value
}

func (b *fakeBackend) CountTokens(ctx context.Context, prompt string) (int, error) {
	b.countCtx.Store(ctx)
	if b.countErr != nil {
		return 0, b.countErr
	}
	return len(strings.Fields(prompt)), nil
}

func (b *fakeBackend) Generate(ctx context.Context, req *manager.GenerateRequest, onToken func(string) error) error {
	b.calls.Add(1)
	if b.panics {
		panic("boom")
	}
	if b.block {
		close(b.started)
		<-ctx.Done()
		return ctx.Err()
	}
	for _, f := range b.frags {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := onToken(f); err != nil {
			return err
		}
	}
	return b.err
}

func (b *fakeBackend) Close() error { return nil }
