package manager

import (
	"strings"

	"textgend/pkg/types"
)

// RequestKind is the closed set of work items the worker understands:
// *GenerateRequest and *TokenizeRequest.
type RequestKind interface {
	requestKind()
}

// GenerateRequest is the internal generation task built from a completion request.
type GenerateRequest struct {
	Prompt    string
	MaxTokens int
	Stop      []string
	Sampler   Sampler
	// Occurrences counts emitted fragments for penalty sampling. Only the
	// worker touches it once the request has been dispatched.
	Occurrences map[string]int
}

func (*GenerateRequest) requestKind() {}

// TokenizeRequest asks the worker for the prompt token count only.
type TokenizeRequest struct {
	Prompt string
}

func (*TokenizeRequest) requestKind() {}

// NewGenerateRequest translates an external completion request. ceiling is the
// server-wide max_tokens limit; it is applied when positive.
func NewGenerateRequest(req types.CompletionRequest, ceiling int) *GenerateRequest {
	maxTokens := req.MaxTokens
	if ceiling > 0 && maxTokens > ceiling {
		maxTokens = ceiling
	}
	return &GenerateRequest{
		Prompt:    strings.Join(req.Prompt, ""),
		MaxTokens: maxTokens,
		Stop:      normalizeStop(req.Stop),
		Sampler: Sampler{
			Temperature:      req.Temperature,
			TopP:             req.TopP,
			PresencePenalty:  req.PresencePenalty,
			FrequencyPenalty: req.FrequencyPenalty,
		},
		Occurrences: make(map[string]int),
	}
}

// normalizeStop returns a fresh slice without empty sequences; an empty stop
// sequence would match before any output.
func normalizeStop(stop []string) []string {
	out := make([]string, 0, len(stop))
	for _, s := range stop {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
