package manager

// State represents lifecycle state of the generation worker as seen by the manager.
type State string

const (
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateError   State = "error"
)

// Snapshot is a read-only projection of the manager state.
type Snapshot struct {
	State State
	Model string
	Err   string
}
