package types

import (
	"encoding/json"
	"fmt"
)

// Request defaults applied when a field is absent from the JSON body.
const (
	DefaultMaxTokens        = 256
	DefaultTemperature      = 1.0
	DefaultTopP             = 1.0
	DefaultPresencePenalty  = 0.0
	DefaultFrequencyPenalty = 0.0
)

// ObjectTextCompletion is the object discriminator of completion responses and chunks.
const ObjectTextCompletion = "text_completion"

// CompletionRequest represents a completion request payload. Every field is optional.
type CompletionRequest struct {
	// Prompt text; a string or an array of strings joined without separator.
	// example: Write a haiku about the ocean.
	Prompt StringList `json:"prompt" swaggertype:"string" example:"Write a haiku about the ocean."`
	// Maximum number of new tokens to generate, capped by the server ceiling.
	// example: 128
	MaxTokens int `json:"max_tokens" example:"128"`
	// Optional stop sequences; a string or an array of strings.
	// example: ["\n\n","END"]
	Stop StringList `json:"stop" swaggertype:"array,string" example:"\n\n,END"`
	// Sampling temperature (higher = more random).
	// example: 0.7
	Temperature float32 `json:"temperature" example:"0.7"`
	// Nucleus sampling probability.
	// example: 0.9
	TopP float32 `json:"top_p" example:"0.9"`
	// Penalty applied to tokens that already appeared at least once.
	// example: 0
	PresencePenalty float32 `json:"presence_penalty" example:"0"`
	// Penalty proportional to how often a token already appeared.
	// example: 0
	FrequencyPenalty float32 `json:"frequency_penalty" example:"0"`
	// If true, stream tokens as server-sent events.
	// example: false
	Stream bool `json:"stream" example:"false"`
}

// DefaultCompletionRequest returns a request with every field at its default.
func DefaultCompletionRequest() CompletionRequest {
	return CompletionRequest{
		MaxTokens:        DefaultMaxTokens,
		Temperature:      DefaultTemperature,
		TopP:             DefaultTopP,
		PresencePenalty:  DefaultPresencePenalty,
		FrequencyPenalty: DefaultFrequencyPenalty,
	}
}

// UnmarshalJSON decodes over the defaults so that absent fields keep them.
func (r *CompletionRequest) UnmarshalJSON(b []byte) error {
	type plain CompletionRequest
	p := plain(DefaultCompletionRequest())
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*r = CompletionRequest(p)
	return nil
}

// Validate rejects values that cannot be clamped into something meaningful.
func (r CompletionRequest) Validate() error {
	if r.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must not be negative")
	}
	return nil
}

// FinishReason tells why generation ended.
type FinishReason string

const (
	// FinishReasonNull means the stream ended without a terminal token.
	FinishReasonNull FinishReason = "null"
	// FinishReasonStop means the model emitted end-of-text or hit a stop sequence.
	FinishReasonStop FinishReason = "stop"
	// FinishReasonLength means the token budget was exhausted.
	FinishReasonLength FinishReason = "length"
)

// TokenCounter holds usage accounting. TotalTokens is always PromptTokens+CompletionTokens.
type TokenCounter struct {
	// example: 5
	PromptTokens int `json:"prompt_tokens" example:"5"`
	// example: 12
	CompletionTokens int `json:"completion_tokens" example:"12"`
	// example: 17
	TotalTokens int `json:"total_tokens" example:"17"`
}

// CompletionChoice is one generated completion.
type CompletionChoice struct {
	// example: The sea breathes slow
	Text string `json:"text" example:"The sea breathes slow"`
	// example: 0
	Index int `json:"index" example:"0"`
	// One of null, stop, length.
	// example: stop
	FinishReason FinishReason `json:"finish_reason" swaggertype:"string" enums:"null,stop,length" example:"stop"`
}

// CompletionResponse is returned by POST /v1/completions.
type CompletionResponse struct {
	// example: cmpl-0f8fad5b-d9cb-469f-a165-70867728950e
	ID string `json:"id" example:"cmpl-0f8fad5b-d9cb-469f-a165-70867728950e"`
	// example: text_completion
	Object string `json:"object" example:"text_completion"`
	// example: 1700000000
	Created int64 `json:"created" example:"1700000000"`
	// example: tinyllama-q4.gguf
	Model   string             `json:"model,omitempty" example:"tinyllama-q4.gguf"`
	Choices []CompletionChoice `json:"choices"`
	Counter TokenCounter       `json:"usage"`
}

// CompletionChunkChoice is the choice of a streamed chunk. FinishReason is
// JSON null until the last chunk, and stays null there when the stream ended
// without a terminal token.
type CompletionChunkChoice struct {
	Text         string        `json:"text"`
	Index        int           `json:"index"`
	FinishReason *FinishReason `json:"finish_reason" swaggertype:"string" enums:"stop,length" x-nullable:"true"`
}

// CompletionChunk is one server-sent event of a streamed completion.
type CompletionChunk struct {
	ID      string                  `json:"id"`
	Object  string                  `json:"object"`
	Created int64                   `json:"created"`
	Model   string                  `json:"model,omitempty"`
	Choices []CompletionChunkChoice `json:"choices"`
	// Only set on the final chunk.
	Counter *TokenCounter `json:"usage,omitempty"`
}

// TokenizeRequest is the body of POST /v1/tokenize.
type TokenizeRequest struct {
	// example: Hello world
	Prompt StringList `json:"prompt" swaggertype:"string" example:"Hello world"`
}

// TokenizeResponse reports how many tokens a prompt encodes to.
type TokenizeResponse struct {
	// example: 3
	Count int `json:"count" example:"3"`
}

// ModelsResponse wraps the list of models returned by GET /v1/models.
type ModelsResponse struct {
	// example: list
	Object string `json:"object" example:"list"`
	// Models found in the models directory.
	Data []Model `json:"data"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Lifecycle state of the generation worker (loading, ready, error).
	// example: ready
	State string `json:"state" example:"ready"`
	// Model served by the worker.
	// example: tinyllama-q4.gguf
	Model string `json:"model,omitempty" example:"tinyllama-q4.gguf"`
	// Last error observed by the manager (if any).
	Error string `json:"error,omitempty"`
	// Requests waiting in the dispatch queue.
	// example: 0
	QueueLen int `json:"queue_len" example:"0"`
	// Completion calls currently waiting on the worker.
	// example: 1
	Inflight int64 `json:"inflight" example:"1"`
	// Server-wide ceiling applied to max_tokens.
	// example: 4096
	MaxTokens int `json:"max_tokens" example:"4096"`
	// Completed calls since start.
	// example: 12
	CompletionsTotal uint64 `json:"completions_total" example:"12"`
	// example: 340
	PromptTokensTotal uint64 `json:"prompt_tokens_total" example:"340"`
	// example: 1024
	CompletionTokensTotal uint64 `json:"completion_tokens_total" example:"1024"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}
