package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"textgend/internal/httpapi"
	"textgend/internal/manager"
	"textgend/internal/registry"
	"textgend/internal/worker"
)

// createTempModelsDir creates a temporary directory populated with .gguf
// placeholder files and returns its path.
func createTempModelsDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		p := filepath.Join(dir, n)
		if err := os.WriteFile(p, []byte("gguf"), 0o644); err != nil {
			t.Fatalf("write temp model %s: %v", p, err)
		}
	}
	return dir
}

// scriptBackend answers known prompts with fixed fragments and echoes any
// other prompt back one rune at a time. Tokens are whitespace-separated words.
type scriptBackend struct {
	replies map[string][]string
	delay   time.Duration
}

func (b *scriptBackend) CountTokens(_ context.Context, prompt string) (int, error) {
	return len(strings.Fields(prompt)), nil
}

func (b *scriptBackend) Generate(ctx context.Context, req *manager.GenerateRequest, onToken func(string) error) error {
	frags, ok := b.replies[req.Prompt]
	if !ok {
		for _, r := range req.Prompt {
			frags = append(frags, string(r))
		}
	}
	for _, f := range frags {
		if b.delay > 0 {
			select {
			case <-time.After(b.delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err := onToken(f); err != nil {
			return err
		}
	}
	return nil
}

func (b *scriptBackend) Close() error { return nil }

// newStack wires registry, manager, worker and HTTP API the way textgend does.
// A nil backend leaves the manager loading with no worker.
func newStack(t *testing.T, b worker.Backend, cfg manager.ManagerConfig) (*httptest.Server, *manager.Manager) {
	t.Helper()
	dir := createTempModelsDir(t, "tiny.gguf")
	reg, err := registry.LoadDir(dir)
	if err != nil {
		t.Fatalf("load registry: %v", err)
	}
	cfg.Registry = reg
	if cfg.Model == "" {
		cfg.Model = reg[0].ID
	}
	mgr := manager.NewWithConfig(cfg)
	srv := httptest.NewServer(httpapi.NewMux(mgr))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	if b != nil {
		mgr.MarkReady(cfg.Model)
		go func() {
			defer close(done)
			_ = worker.New(b, zerolog.Nop()).Run(ctx, mgr)
		}()
	} else {
		close(done)
	}
	t.Cleanup(func() {
		srv.Close()
		mgr.Close()
		cancel()
		<-done
	})
	return srv, mgr
}

func httpPostJSON(t *testing.T, url, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, b
}

func httpGetJSON(t *testing.T, url string, v any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	defer resp.Body.Close()
	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp
}
