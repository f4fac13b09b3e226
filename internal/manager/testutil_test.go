package manager

import (
	"context"
	"testing"
	"time"
)

// testCtx returns a context with a short timeout, canceled on test cleanup.
func testCtx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return c
}

// serveWith runs a fake worker loop over m until the test ends. handle owns
// the reply channels of every request it receives; serveWith closes them after.
func serveWith(t *testing.T, m *Manager, handle func(tr *ThreadRequest)) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			tr, err := m.Next(ctx)
			if err != nil {
				return
			}
			handle(tr)
			tr.Close()
		}
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

// scripted returns a handler that answers every generate request with the
// given prompt token count and token sequence.
func scripted(promptTokens int, toks ...Token) func(tr *ThreadRequest) {
	return func(tr *ThreadRequest) {
		_ = tr.SendPromptTokens(promptTokens)
		for _, tok := range toks {
			if err := tr.SendToken(tok); err != nil {
				return
			}
		}
	}
}

// popDispatched dispatches kind on d and returns both ends of the request.
func popDispatched(t *testing.T, d *Dispatcher, kind RequestKind) (*ThreadRequest, *Reply) {
	t.Helper()
	reply, err := d.Dispatch(context.Background(), kind)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	tr, err := d.Next(testCtx(t))
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	return tr, reply
}
