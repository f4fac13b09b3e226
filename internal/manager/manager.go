package manager

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"textgend/pkg/types"
)

type Manager struct {
	mu       sync.RWMutex
	state    State
	err      string
	registry []types.Model
	model    string

	maxTokens int
	timeout   time.Duration

	dispatcher *Dispatcher
	log        zerolog.Logger
	events     EventPublisher

	// status counters
	inflight         atomic.Int64
	completionsTotal atomic.Uint64
	promptTotal      atomic.Uint64
	completionTotal  atomic.Uint64
	startTime        time.Time
}

// New constructs a Manager for a single model with default limits.
func New(reg []types.Model, model string, maxTokens int) *Manager {
	return NewWithConfig(ManagerConfig{
		Registry:  reg,
		Model:     model,
		MaxTokens: maxTokens,
	})
}

// Ready reports whether the worker has loaded its model.
func (m *Manager) Ready() bool {
	return m.Snapshot().State == StateReady
}

func (m *Manager) ListModels() []types.Model {
	m.mu.RLock()
	defer m.mu.RUnlock()
	// return a shallow copy to avoid external mutation
	out := make([]types.Model, len(m.registry))
	copy(out, m.registry)
	return out
}

// MaxTokens returns the server-wide max_tokens ceiling.
func (m *Manager) MaxTokens() int { return m.maxTokens }

// Next hands the next dispatched request to the generation worker.
func (m *Manager) Next(ctx context.Context) (*ThreadRequest, error) {
	return m.dispatcher.Next(ctx)
}

// MarkReady records that the worker loaded model and is consuming requests.
func (m *Manager) MarkReady(model string) {
	m.mu.Lock()
	m.state = StateReady
	m.err = ""
	if model != "" {
		m.model = model
	}
	m.mu.Unlock()
	m.publish(Event{Name: "state_ready", ModelID: model})
}

// MarkFailed records a fatal worker error. The dispatch queue is closed and
// drained so waiting and future callers fail with ErrWorkerUnavailable.
func (m *Manager) MarkFailed(err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	m.mu.Lock()
	m.state = StateError
	m.err = msg
	model := m.model
	m.mu.Unlock()
	dropped := m.dispatcher.Drain()
	m.publish(Event{Name: "state_error", ModelID: model, Fields: map[string]any{"error": msg, "dropped": dropped}})
}

// Close stops accepting requests. Requests already queued are still served
// by a running worker, which then returns.
func (m *Manager) Close() {
	m.dispatcher.Close()
}

// SetEventPublisher replaces the event sink; nil restores the no-op publisher.
func (m *Manager) SetEventPublisher(p EventPublisher) {
	if p == nil {
		p = noopPublisher{}
	}
	m.mu.Lock()
	m.events = p
	m.mu.Unlock()
}

func (m *Manager) currentModel() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.model
}

func (m *Manager) publish(e Event) {
	m.mu.RLock()
	p := m.events
	m.mu.RUnlock()
	p.Publish(e)
}
