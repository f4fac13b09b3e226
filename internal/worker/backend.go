package worker

import (
	"context"

	"textgend/internal/manager"
)

// Backend abstracts the model runtime driven by the Worker.
// Concrete implementations (e.g., llama.cpp) should satisfy this interface.
type Backend interface {
	// CountTokens returns how many tokens prompt encodes to. It gives up when
	// ctx is done.
	CountTokens(ctx context.Context, prompt string) (int, error)
	// Generate streams fragments for req.Prompt using req.Sampler. onToken is
	// invoked once per generated token; a non-nil return stops generation and
	// is returned by Generate. Implementations must return when ctx is canceled
	// and return nil when the model ends the text on its own.
	Generate(ctx context.Context, req *manager.GenerateRequest, onToken func(string) error) error
	// Close releases the model.
	Close() error
}
