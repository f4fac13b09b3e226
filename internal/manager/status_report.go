package manager

import (
	"time"

	"textgend/pkg/types"
)

// Snapshot returns a read-only view of the manager state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{State: m.state, Model: m.model, Err: m.err}
}

// Status builds a detailed status response for /status.
func (m *Manager) Status() types.StatusResponse {
	snap := m.Snapshot()
	resp := types.StatusResponse{
		State: string(snap.State),
		Model: snap.Model,
		Error: snap.Err,
	}
	now := time.Now()
	resp.QueueLen = m.dispatcher.Len()
	resp.Inflight = m.inflight.Load()
	resp.MaxTokens = m.maxTokens
	resp.CompletionsTotal = m.completionsTotal.Load()
	resp.PromptTokensTotal = m.promptTotal.Load()
	resp.CompletionTokensTotal = m.completionTotal.Load()
	resp.UptimeSeconds = int64(now.Sub(m.startTime).Seconds())
	resp.ServerTimeUnix = now.Unix()
	return resp
}
