package worker

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"textgend/internal/manager"
)

// llamaServerBackend drives a running llama.cpp server through its native
// /tokenize and streaming /completion endpoints.
type llamaServerBackend struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewLlamaServerBackend returns a Backend for the llama.cpp server at baseURL.
func NewLlamaServerBackend(baseURL, apiKey string, connectTimeout time.Duration, log zerolog.Logger) Backend {
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   connectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          4,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	// no client timeout: every call carries the request context
	return &llamaServerBackend{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Transport: tr},
		log:        log,
	}
}

type tokenizeRequest struct {
	Content string `json:"content"`
}

type tokenizeResponse struct {
	Tokens []int `json:"tokens"`
}

type completionRequest struct {
	Prompt           string  `json:"prompt"`
	NPredict         int     `json:"n_predict"`
	Temperature      float32 `json:"temperature"`
	TopP             float32 `json:"top_p"`
	PresencePenalty  float32 `json:"presence_penalty"`
	FrequencyPenalty float32 `json:"frequency_penalty"`
	Stream           bool    `json:"stream"`
}

type completionEvent struct {
	Content string `json:"content"`
	Stop    bool   `json:"stop"`
}

func (b *llamaServerBackend) CountTokens(ctx context.Context, prompt string) (int, error) {
	resp, err := b.post(ctx, "/tokenize", tokenizeRequest{Content: prompt})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	var out tokenizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decode tokenize response: %w", err)
	}
	return len(out.Tokens), nil
}

func (b *llamaServerBackend) Generate(ctx context.Context, req *manager.GenerateRequest, onToken func(string) error) error {
	resp, err := b.post(ctx, "/completion", completionRequest{
		Prompt: req.Prompt,
		// one spare token so the budget check in onToken fires before the server stops on its own
		NPredict:         req.MaxTokens + 1,
		Temperature:      req.Sampler.Temperature,
		TopP:             req.Sampler.TopP,
		PresencePenalty:  req.Sampler.PresencePenalty,
		FrequencyPenalty: req.Sampler.FrequencyPenalty,
		Stream:           true,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	r := bufio.NewReader(resp.Body)
	for {
		line, err := r.ReadString('\n')
		if data, ok := strings.CutPrefix(strings.TrimSpace(line), "data:"); ok {
			data = strings.TrimSpace(data)
			if data == "[DONE]" {
				return nil
			}
			var ev completionEvent
			if jerr := json.Unmarshal([]byte(data), &ev); jerr != nil {
				b.log.Debug().Str("line", line).Msg("llama server: unknown stream line")
			} else {
				if ev.Content != "" {
					if cbErr := onToken(ev.Content); cbErr != nil {
						return cbErr
					}
				}
				if ev.Stop {
					return nil
				}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read completion stream: %w", err)
		}
	}
}

func (b *llamaServerBackend) post(ctx context.Context, path string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if b.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.apiKey)
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, manager.ErrDependencyUnavailable("llama server unreachable: " + err.Error())
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("llama server %s: %s: %s", path, resp.Status, bytes.TrimSpace(msg))
	}
	return resp, nil
}

func (b *llamaServerBackend) Close() error {
	b.httpClient.CloseIdleConnections()
	return nil
}
