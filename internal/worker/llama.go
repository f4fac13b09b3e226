//go:build llama

package worker

import (
	"context"
	"errors"
	"strings"

	llama "github.com/go-skynet/go-llama.cpp"

	"textgend/internal/manager"
)

// llamaBackend runs a GGUF model in-process through go-llama.cpp.
type llamaBackend struct {
	model   *llama.LLama
	threads int
}

// NewLlamaBackend loads the model at path. ctxSize and threads fall back to
// the library defaults when zero.
func NewLlamaBackend(path string, ctxSize, threads int) (Backend, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("model path is empty")
	}
	var mo []llama.ModelOption
	if ctxSize > 0 {
		mo = append(mo, llama.SetContext(ctxSize))
	}
	m, err := llama.New(path, mo...)
	if err != nil {
		return nil, err
	}
	return &llamaBackend{model: m, threads: threads}, nil
}

func (b *llamaBackend) CountTokens(_ context.Context, prompt string) (int, error) {
	if b.model == nil {
		return 0, errors.New("llama model not initialized")
	}
	n, _, err := b.model.TokenizeString(prompt, b.threadOpts()...)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (b *llamaBackend) Generate(ctx context.Context, req *manager.GenerateRequest, onToken func(string) error) error {
	if b.model == nil {
		return errors.New("llama model not initialized")
	}
	var cbErr error
	b.model.SetTokenCallback(func(tok string) bool {
		select {
		case <-ctx.Done():
			cbErr = ctx.Err()
			return false
		default:
		}
		if err := onToken(tok); err != nil {
			cbErr = err
			return false
		}
		return true
	})
	defer b.model.SetTokenCallback(nil)

	// one spare token so the budget check in onToken fires before the library stops on its own
	po := append(b.threadOpts(),
		llama.SetTokens(req.MaxTokens+1),
		llama.SetTemperature(req.Sampler.Temperature),
		llama.SetTopP(req.Sampler.TopP),
		llama.SetPresencePenalty(req.Sampler.PresencePenalty),
		llama.SetFrequencyPenalty(req.Sampler.FrequencyPenalty),
	)
	_, err := b.model.Predict(req.Prompt, po...)
	if cbErr != nil {
		return cbErr
	}
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (b *llamaBackend) threadOpts() []llama.PredictOption {
	if b.threads > 0 {
		return []llama.PredictOption{llama.SetThreads(b.threads)}
	}
	return nil
}

func (b *llamaBackend) Close() error {
	if b.model != nil {
		b.model.Free()
		b.model = nil
	}
	return nil
}
