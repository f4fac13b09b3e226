package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"textgend/internal/manager"
	"textgend/pkg/types"
)

// sseEvents returns the data payloads of an SSE body.
func sseEvents(t *testing.T, body string) []string {
	t.Helper()
	var out []string
	for _, block := range strings.Split(strings.TrimSpace(body), "\n\n") {
		if !strings.HasPrefix(block, "data: ") {
			t.Fatalf("malformed event %q", block)
		}
		out = append(out, strings.TrimPrefix(block, "data: "))
	}
	return out
}

func streamChunks() []types.CompletionChunk {
	stop := types.FinishReasonStop
	return []types.CompletionChunk{
		{ID: "cmpl-1", Object: types.ObjectTextCompletion, Choices: []types.CompletionChunkChoice{{Text: "he"}}},
		{ID: "cmpl-1", Object: types.ObjectTextCompletion, Choices: []types.CompletionChunkChoice{{Text: "y"}}},
		{ID: "cmpl-1", Object: types.ObjectTextCompletion, Choices: []types.CompletionChunkChoice{{FinishReason: &stop}},
			Counter: &types.TokenCounter{PromptTokens: 1, CompletionTokens: 2, TotalTokens: 3}},
	}
}

func TestCompletions_Stream(t *testing.T) {
	svc := &mockService{chunks: streamChunks()}
	w := postJSON(NewMux(svc), "/v1/completions", `{"prompt":"hi","stream":true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content-type=%q", ct)
	}
	events := sseEvents(t, w.Body.String())
	if len(events) != 4 || events[3] != "[DONE]" {
		t.Fatalf("events=%q", events)
	}
	var first, last types.CompletionChunk
	if err := json.Unmarshal([]byte(events[0]), &first); err != nil {
		t.Fatalf("json: %v", err)
	}
	if err := json.Unmarshal([]byte(events[2]), &last); err != nil {
		t.Fatalf("json: %v", err)
	}
	if first.Choices[0].Text != "he" || first.Choices[0].FinishReason != nil {
		t.Fatalf("first chunk=%+v", first)
	}
	if last.Choices[0].FinishReason == nil || *last.Choices[0].FinishReason != types.FinishReasonStop || last.Counter.TotalTokens != 3 {
		t.Fatalf("last chunk=%+v", last)
	}
}

func TestCompletions_StreamErrorBeforeOutputIsJSON(t *testing.T) {
	svc := &mockService{err: manager.ErrWorkerUnavailable("closed")}
	w := postJSON(NewMux(svc), "/v1/completions", `{"stream":true}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Fatalf("content-type=%q", ct)
	}
}

func TestCompletions_StreamErrorAfterOutputIsInBand(t *testing.T) {
	svc := &mockService{chunks: streamChunks()[:1], err: manager.ErrWorkerUnavailable("dropped")}
	w := postJSON(NewMux(svc), "/v1/completions", `{"stream":true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	events := sseEvents(t, w.Body.String())
	if len(events) != 3 || events[2] != "[DONE]" {
		t.Fatalf("events=%q", events)
	}
	var e types.ErrorResponse
	if err := json.Unmarshal([]byte(events[1]), &e); err != nil || e.Code != http.StatusServiceUnavailable {
		t.Fatalf("error event=%q", events[1])
	}
}

func TestCompletions_StreamWithDebugLogging(t *testing.T) {
	svc := &mockService{chunks: streamChunks()}
	w := postJSON(NewMux(svc), "/v1/completions?log=debug", `{"stream":true}`)
	if w.Code != http.StatusOK || len(sseEvents(t, w.Body.String())) != 4 {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}
