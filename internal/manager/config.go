package manager

import (
	"time"

	"github.com/rs/zerolog"

	"textgend/pkg/types"
)

// Defaults applied when corresponding ManagerConfig fields are unset.
const (
	defaultMaxTokens      = 4096
	defaultRequestTimeout = 5 * time.Minute
)

// ManagerConfig encapsulates all tunables for Manager construction.
type ManagerConfig struct {
	Registry []types.Model
	// Model is the id of the model served by the worker, reported in responses.
	Model string
	// MaxTokens is the server-wide ceiling applied to every request's max_tokens.
	MaxTokens int
	// RequestTimeout bounds how long a caller waits on the worker. Zero selects
	// the default; negative disables the timeout.
	RequestTimeout time.Duration
	Logger         zerolog.Logger
	Events         EventPublisher
}

// NewWithConfig constructs a Manager from ManagerConfig.
func NewWithConfig(cfg ManagerConfig) *Manager {
	m := &Manager{
		state:      StateLoading,
		registry:   cfg.Registry,
		model:      cfg.Model,
		dispatcher: NewDispatcher(),
		log:        cfg.Logger,
		events:     cfg.Events,
		startTime:  time.Now(),
	}
	// Apply defaults if unset
	if cfg.MaxTokens <= 0 {
		m.maxTokens = defaultMaxTokens
	} else {
		m.maxTokens = cfg.MaxTokens
	}
	switch {
	case cfg.RequestTimeout == 0:
		m.timeout = defaultRequestTimeout
	case cfg.RequestTimeout < 0:
		m.timeout = 0
	default:
		m.timeout = cfg.RequestTimeout
	}
	if m.events == nil {
		m.events = noopPublisher{}
	}
	return m
}
