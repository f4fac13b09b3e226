package manager

import (
	"context"
	"errors"
	"strings"

	"textgend/internal/queue"
	"textgend/pkg/types"
)

// Aggregation is the end state of one consumed reply stream.
type Aggregation struct {
	Text         string
	Counter      types.TokenCounter
	FinishReason types.FinishReason
}

// Aggregate folds a reply into text, usage and finish reason.
//
// A prompt token channel closed without a value counts as zero prompt tokens,
// and a token stream closed without a terminal token leaves the finish reason
// at null; neither is an error here. observe, when non-nil, sees every token in
// arrival order before it is folded; an observer error aborts aggregation.
func Aggregate(ctx context.Context, r *Reply, observe func(Token) error) (Aggregation, error) {
	promptTokens, err := r.reply.promptTokens.Pop(ctx)
	if err != nil {
		if !errors.Is(err, queue.ErrClosed) {
			return Aggregation{}, err
		}
		promptTokens = 0
	}

	agg := Aggregation{
		Counter: types.TokenCounter{
			PromptTokens: promptTokens,
			TotalTokens:  promptTokens,
		},
		FinishReason: types.FinishReasonNull,
	}
	var text strings.Builder

loop:
	for {
		tok, err := r.reply.tokens.Pop(ctx)
		if errors.Is(err, queue.ErrClosed) {
			break
		}
		if err != nil {
			return Aggregation{}, err
		}
		if observe != nil {
			if err := observe(tok); err != nil {
				return Aggregation{}, err
			}
		}
		switch tok.Kind {
		case TokenText:
			text.WriteString(tok.Text)
			agg.Counter.CompletionTokens++
			agg.Counter.TotalTokens++
		case TokenEndOfText:
			agg.FinishReason = types.FinishReasonStop
			break loop
		case TokenCutOff:
			agg.FinishReason = types.FinishReasonLength
			break loop
		}
	}
	agg.Text = text.String()
	return agg, nil
}

// BuildCompletionResponse wraps an aggregation into the single-choice wire
// response. Identity fields (ID, Created, Model) are left to the caller.
func BuildCompletionResponse(agg Aggregation) types.CompletionResponse {
	return types.CompletionResponse{
		Object: types.ObjectTextCompletion,
		Choices: []types.CompletionChoice{{
			Text:         agg.Text,
			Index:        0,
			FinishReason: agg.FinishReason,
		}},
		Counter: agg.Counter,
	}
}
