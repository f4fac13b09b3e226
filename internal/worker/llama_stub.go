//go:build !llama

package worker

import "textgend/internal/manager"

// NewLlamaBackend is unavailable unless the binary is built with -tags=llama.
func NewLlamaBackend(path string, ctxSize, threads int) (Backend, error) {
	return nil, manager.ErrDependencyUnavailable("llama backend not built; rebuild with -tags=llama")
}
