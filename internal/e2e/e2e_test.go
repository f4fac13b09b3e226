package e2e

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"textgend/internal/manager"
	"textgend/pkg/types"
)

func TestE2E_HelloCompletion(t *testing.T) {
	srv, _ := newStack(t, &scriptBackend{replies: map[string][]string{"Hello": {"!"}}}, manager.ManagerConfig{})

	resp, body := httpPostJSON(t, srv.URL+"/v1/completions", `{"prompt":"Hello","max_tokens":5}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d body=%s", resp.StatusCode, body)
	}
	var out types.CompletionResponse
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("json: %v", err)
	}
	if out.Object != "text_completion" || out.Model != "tiny.gguf" || len(out.Choices) != 1 {
		t.Fatalf("unexpected response: %s", body)
	}
	c := out.Choices[0]
	if c.Text != "!" || c.Index != 0 || c.FinishReason != types.FinishReasonStop {
		t.Fatalf("unexpected choice: %+v", c)
	}
	if out.Counter != (types.TokenCounter{PromptTokens: 1, CompletionTokens: 1, TotalTokens: 2}) {
		t.Fatalf("usage=%+v", out.Counter)
	}
}

func TestE2E_MaxTokensAndStop(t *testing.T) {
	srv, _ := newStack(t, &scriptBackend{}, manager.ManagerConfig{MaxTokens: 4})

	// ceiling of 4 wins over the requested 100
	_, body := httpPostJSON(t, srv.URL+"/v1/completions", `{"prompt":"abcdefgh","max_tokens":100}`)
	var out types.CompletionResponse
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("json: %v", err)
	}
	if out.Choices[0].Text != "abcd" || out.Choices[0].FinishReason != types.FinishReasonLength {
		t.Fatalf("unexpected: %s", body)
	}

	_, body = httpPostJSON(t, srv.URL+"/completions", `{"prompt":"xyEND","stop":"EN"}`)
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("json: %v", err)
	}
	if out.Choices[0].Text != "xy" || out.Choices[0].FinishReason != types.FinishReasonStop {
		t.Fatalf("unexpected: %s", body)
	}

	_, body = httpPostJSON(t, srv.URL+"/v1/completions", `{"prompt":"a b","max_tokens":0}`)
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("json: %v", err)
	}
	if out.Choices[0].Text != "" || out.Choices[0].FinishReason != types.FinishReasonLength || out.Counter.PromptTokens != 2 {
		t.Fatalf("unexpected: %s", body)
	}
}

func TestE2E_Streaming(t *testing.T) {
	srv, _ := newStack(t, &scriptBackend{}, manager.ManagerConfig{})

	resp, body := httpPostJSON(t, srv.URL+"/v1/completions", `{"prompt":"hey","stream":true}`)
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "text/event-stream" {
		t.Fatalf("status=%d content-type=%q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	var texts []string
	var final types.CompletionChunk
	events := strings.Split(strings.TrimSpace(string(body)), "\n\n")
	if events[len(events)-1] != "data: [DONE]" {
		t.Fatalf("missing [DONE]: %q", body)
	}
	for _, ev := range events[:len(events)-1] {
		var c types.CompletionChunk
		if err := json.Unmarshal([]byte(strings.TrimPrefix(ev, "data: ")), &c); err != nil {
			t.Fatalf("chunk %q: %v", ev, err)
		}
		if c.Choices[0].FinishReason != nil {
			final = c
			continue
		}
		texts = append(texts, c.Choices[0].Text)
	}
	if strings.Join(texts, "|") != "h|e|y" {
		t.Fatalf("fragments=%v", texts)
	}
	if *final.Choices[0].FinishReason != types.FinishReasonStop || final.Counter == nil || final.Counter.CompletionTokens != 3 {
		t.Fatalf("final chunk=%+v", final)
	}
}

func TestE2E_ConcurrentRequestsStayIsolated(t *testing.T) {
	srv, mgr := newStack(t, &scriptBackend{delay: time.Millisecond}, manager.ManagerConfig{})

	const n = 16
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			prompt := fmt.Sprintf("caller-%02d", i)
			_, body := httpPostJSON(t, srv.URL+"/v1/completions", fmt.Sprintf(`{"prompt":%q}`, prompt))
			var out types.CompletionResponse
			if err := json.Unmarshal(body, &out); err != nil {
				errs <- err
				return
			}
			if out.Choices[0].Text != prompt {
				errs <- fmt.Errorf("caller %d got %q", i, out.Choices[0].Text)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
	var st types.StatusResponse
	httpGetJSON(t, srv.URL+"/status", &st)
	if st.CompletionsTotal != n || st.State != "ready" || mgr.Status().Inflight != 0 {
		t.Fatalf("status=%+v", st)
	}
}

func TestE2E_TokenizeAndModels(t *testing.T) {
	srv, _ := newStack(t, &scriptBackend{}, manager.ManagerConfig{})

	_, body := httpPostJSON(t, srv.URL+"/v1/tokenize", `{"prompt":"one two three"}`)
	var tok types.TokenizeResponse
	if err := json.Unmarshal(body, &tok); err != nil || tok.Count != 3 {
		t.Fatalf("tokenize: %s (%v)", body, err)
	}

	var models types.ModelsResponse
	httpGetJSON(t, srv.URL+"/v1/models", &models)
	if len(models.Data) != 1 || models.Data[0].ID != "tiny.gguf" || models.Data[0].Name != "tiny" {
		t.Fatalf("models=%+v", models)
	}
}

func TestE2E_NoWorkerAfterLoadFailure(t *testing.T) {
	srv, mgr := newStack(t, nil, manager.ManagerConfig{})
	if resp := httpGetJSON(t, srv.URL+"/readyz", nil); resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("readyz=%d while loading", resp.StatusCode)
	}
	mgr.MarkFailed(manager.ErrDependencyUnavailable("model load failed"))

	resp, body := httpPostJSON(t, srv.URL+"/v1/completions", `{"prompt":"hi"}`)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status=%d body=%s", resp.StatusCode, body)
	}
	var st types.StatusResponse
	httpGetJSON(t, srv.URL+"/status", &st)
	if st.State != "error" || st.Error != "model load failed" {
		t.Fatalf("status=%+v", st)
	}
}

func TestE2E_TimeoutMaps504(t *testing.T) {
	srv, _ := newStack(t, &scriptBackend{delay: 200 * time.Millisecond}, manager.ManagerConfig{RequestTimeout: 50 * time.Millisecond})
	resp, body := httpPostJSON(t, srv.URL+"/v1/completions", `{"prompt":"slow"}`)
	if resp.StatusCode != http.StatusGatewayTimeout {
		t.Fatalf("status=%d body=%s", resp.StatusCode, body)
	}
	// the worker stops the abandoned generation and serves the next caller
	resp, _ = httpPostJSON(t, srv.URL+"/v1/tokenize", `{"prompt":"next one"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("tokenize after timeout status=%d", resp.StatusCode)
	}
}
