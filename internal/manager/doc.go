// Package manager is the bridge between HTTP callers and the single
// generation worker. It is structured into small files by concern:
//
//   - manager.go: core Manager type, lifecycle (MarkReady/MarkFailed/Close), getters.
//   - config.go: ManagerConfig and package defaults; NewWithConfig applies defaults.
//   - sampler.go, token.go, request.go: Sampler, the Token stream values and the
//     closed set of request kinds; NewGenerateRequest translates a completion request.
//   - dispatch.go: Dispatcher (unbounded multi-producer queue to the worker),
//     ThreadRequest (worker side) and Reply (caller side) with fresh reply channels.
//   - aggregate.go: Aggregate folds a reply stream into text, usage and finish
//     reason; BuildCompletionResponse wraps the result.
//   - completion.go: Completions, StreamCompletions and CountTokens entry points.
//   - errors.go: error types and helpers (IsWorkerUnavailable, IsDependencyUnavailable).
//   - events.go, eventpub_memory.go: event publishing (zerolog and in-memory).
//   - status_report.go: Status/Snapshot reporting helpers.
//
// The worker itself lives in internal/worker and consumes requests through
// Manager.Next. Each request owns its reply channels; the worker is their only
// writer and the calling goroutine their only reader, so the response path
// takes no locks.
package manager
