package manager

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"textgend/internal/queue"
	"textgend/pkg/types"
)

func TestNewWithConfig_Defaults(t *testing.T) {
	m := NewWithConfig(ManagerConfig{})
	if m.MaxTokens() != defaultMaxTokens {
		t.Fatalf("max tokens=%d", m.MaxTokens())
	}
	if m.timeout != defaultRequestTimeout {
		t.Fatalf("timeout=%v", m.timeout)
	}
	if m.Ready() {
		t.Fatalf("new manager should be loading")
	}
	if st := m.Status(); st.State != string(StateLoading) || st.MaxTokens != defaultMaxTokens {
		t.Fatalf("status=%+v", st)
	}

	m = NewWithConfig(ManagerConfig{RequestTimeout: -time.Second, MaxTokens: 7})
	if m.timeout != 0 || m.MaxTokens() != 7 {
		t.Fatalf("overrides not applied: timeout=%v max=%d", m.timeout, m.MaxTokens())
	}
}

func TestMarkReady(t *testing.T) {
	m := New(nil, "", 0)
	m.MarkReady("tiny.gguf")
	if !m.Ready() {
		t.Fatalf("expected ready")
	}
	if s := m.Snapshot(); s.Model != "tiny.gguf" || s.State != StateReady {
		t.Fatalf("snapshot=%+v", s)
	}
}

func TestStatus_ReportsFailure(t *testing.T) {
	m := New(nil, "tiny.gguf", 0)
	m.MarkReady("")
	m.MarkFailed(errors.New("out of memory"))
	st := m.Status()
	if m.Ready() || st.State != string(StateError) || st.Error != "out of memory" || st.Model != "tiny.gguf" {
		t.Fatalf("status=%+v", st)
	}
}

func TestListModels_ReturnsCopy(t *testing.T) {
	m := New([]types.Model{{ID: "a"}, {ID: "b"}}, "a", 0)
	got := m.ListModels()
	got[0].ID = "mutated"
	if m.ListModels()[0].ID != "a" {
		t.Fatalf("registry was mutated through ListModels")
	}
}

func TestClose_WorkerDrainsThenStops(t *testing.T) {
	m := New(nil, "", 0)
	reply, err := m.dispatcher.Dispatch(testCtx(t), &GenerateRequest{})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	defer reply.Abandon()
	m.Close()
	if _, err := m.Next(testCtx(t)); err != nil {
		t.Fatalf("queued request should still be delivered: %v", err)
	}
	if _, err := m.Next(testCtx(t)); !errors.Is(err, queue.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestLogPublisher_WritesEvents(t *testing.T) {
	var buf bytes.Buffer
	p := NewLogPublisher(zerolog.New(&buf).Level(zerolog.DebugLevel))
	p.Publish(Event{Name: "completion_end", ModelID: "m", Fields: map[string]any{"finish_reason": "stop"}})
	p.Publish(Event{Name: "state_error", Fields: map[string]any{"error": "boom"}})
	out := buf.String()
	if !strings.Contains(out, `"message":"completion_end"`) || !strings.Contains(out, `"finish_reason":"stop"`) {
		t.Fatalf("missing completion_end line: %s", out)
	}
	if !strings.Contains(out, `"level":"error"`) || !strings.Contains(out, `"error":"boom"`) {
		t.Fatalf("missing state_error line: %s", out)
	}
}
