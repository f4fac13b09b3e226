//go:build llama

package e2e

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"textgend/internal/manager"
	"textgend/internal/registry"
	"textgend/internal/worker"
	"textgend/pkg/types"
)

// TestLlama_Haiku runs a real completion through go-llama.cpp.
// Skips unless ~/models/llm (or TEXTGEND_MODELS_DIR) holds a GGUF file.
func TestLlama_Haiku(t *testing.T) {
	dir := os.Getenv("TEXTGEND_MODELS_DIR")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, "models", "llm")
	}
	reg, err := registry.LoadDir(dir)
	if err != nil || len(reg) == 0 {
		t.Skipf("no GGUF found under %s", dir)
	}
	b, err := worker.NewLlamaBackend(reg[0].Path, 2048, 0)
	if err != nil {
		t.Fatalf("load %s: %v", reg[0].Path, err)
	}
	srv, _ := newStack(t, b, manager.ManagerConfig{Model: reg[0].ID, RequestTimeout: -1})

	resp, body := httpPostJSON(t, srv.URL+"/v1/completions",
		`{"prompt":"Write a 3-line haiku about the ocean.\n","max_tokens":64,"temperature":0.7,"stop":"\n\n"}`)
	if resp.StatusCode != 200 {
		t.Fatalf("status=%d body=%s", resp.StatusCode, body)
	}
	var out types.CompletionResponse
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("json: %v", err)
	}
	text := strings.TrimSpace(out.Choices[0].Text)
	if text == "" || out.Counter.CompletionTokens == 0 {
		t.Fatalf("empty completion: %s", body)
	}
	t.Logf("haiku (%s):\n%s", out.Choices[0].FinishReason, text)
}
