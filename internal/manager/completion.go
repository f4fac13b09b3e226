package manager

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"textgend/pkg/types"
)

// Completions runs one completion request through the worker and returns the
// assembled response.
func (m *Manager) Completions(ctx context.Context, req types.CompletionRequest) (types.CompletionResponse, error) {
	return m.complete(ctx, req, nil)
}

// StreamCompletions behaves like Completions but also calls emit for every
// generated fragment and once more with a final chunk carrying the finish
// reason and usage. An emit error aborts the request.
func (m *Manager) StreamCompletions(ctx context.Context, req types.CompletionRequest, emit func(types.CompletionChunk) error) (types.CompletionResponse, error) {
	return m.complete(ctx, req, emit)
}

func (m *Manager) complete(ctx context.Context, req types.CompletionRequest, emit func(types.CompletionChunk) error) (types.CompletionResponse, error) {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}
	id := "cmpl-" + uuid.NewString()
	created := time.Now().Unix()
	model := m.currentModel()
	gen := NewGenerateRequest(req, m.maxTokens)

	reply, err := m.dispatcher.Dispatch(ctx, gen)
	if err != nil {
		m.publish(Event{Name: "dispatch_failed", ModelID: model, Fields: map[string]any{"id": id, "error": err.Error()}})
		return types.CompletionResponse{}, ErrWorkerUnavailable("dispatch queue closed")
	}
	defer reply.Abandon()
	m.inflight.Add(1)
	defer m.inflight.Add(-1)
	m.publish(Event{Name: "completion_start", ModelID: model, Fields: map[string]any{"id": id, "max_tokens": gen.MaxTokens}})

	var observe func(Token) error
	if emit != nil {
		observe = func(t Token) error {
			if t.Kind != TokenText {
				return nil
			}
			return emit(types.CompletionChunk{
				ID:      id,
				Object:  types.ObjectTextCompletion,
				Created: created,
				Model:   model,
				Choices: []types.CompletionChunkChoice{{Text: t.Text, Index: 0}},
			})
		}
	}

	start := time.Now()
	agg, err := Aggregate(ctx, reply, observe)
	if err != nil {
		m.log.Debug().Str("id", id).Err(err).Msg("completion aborted")
		return types.CompletionResponse{}, err
	}
	if agg.FinishReason == types.FinishReasonNull && reply.Dropped() {
		return types.CompletionResponse{}, ErrWorkerUnavailable("request dropped before generation")
	}

	resp := BuildCompletionResponse(agg)
	resp.ID = id
	resp.Created = created
	resp.Model = model

	m.completionsTotal.Add(1)
	m.promptTotal.Add(uint64(agg.Counter.PromptTokens))
	m.completionTotal.Add(uint64(agg.Counter.CompletionTokens))
	m.publish(Event{Name: "completion_end", ModelID: model, Fields: map[string]any{
		"id":                id,
		"finish_reason":     string(agg.FinishReason),
		"prompt_tokens":     agg.Counter.PromptTokens,
		"completion_tokens": agg.Counter.CompletionTokens,
		"dur_ms":            time.Since(start).Milliseconds(),
	}})

	if emit != nil {
		// a stream without a terminal token keeps finish_reason JSON null
		var reason *types.FinishReason
		if agg.FinishReason != types.FinishReasonNull {
			r := agg.FinishReason
			reason = &r
		}
		usage := agg.Counter
		final := types.CompletionChunk{
			ID:      id,
			Object:  types.ObjectTextCompletion,
			Created: created,
			Model:   model,
			Choices: []types.CompletionChunkChoice{{Index: 0, FinishReason: reason}},
			Counter: &usage,
		}
		if err := emit(final); err != nil {
			return resp, err
		}
	}
	return resp, nil
}

// CountTokens asks the worker how many tokens prompt encodes to.
func (m *Manager) CountTokens(ctx context.Context, prompt string) (int, error) {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}
	reply, err := m.dispatcher.Dispatch(ctx, &TokenizeRequest{Prompt: prompt})
	if err != nil {
		return 0, ErrWorkerUnavailable("dispatch queue closed")
	}
	defer reply.Abandon()
	agg, err := Aggregate(ctx, reply, nil)
	if err != nil {
		return 0, err
	}
	if agg.FinishReason == types.FinishReasonNull {
		if reply.Dropped() {
			return 0, ErrWorkerUnavailable("request dropped before generation")
		}
		return 0, errors.New("tokenize: worker returned no count")
	}
	return agg.Counter.PromptTokens, nil
}
