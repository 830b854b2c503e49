package swarm

import (
	"sync"
	"time"
)

// PauseState is the singleton pause record. PreviousCliState is non-nil
// exactly while the swarm is paused; it holds the policy snapshot that
// resume restores verbatim.
type PauseState struct {
	Paused           bool                 `json:"paused"`
	PausedAt         *time.Time           `json:"paused_at"`
	PausedBy         *string              `json:"paused_by"`
	PreviousCliState map[string]CliPolicy `json:"previous_cli_state"`
}

// PauseStore persists the pause state document.
type PauseStore struct {
	path string
	mu   sync.Mutex
}

// NewPauseStore creates a store backed by the given file path.
func NewPauseStore(path string) *PauseStore {
	return &PauseStore{path: path}
}

// Load reads the pause state. A missing or malformed file reads as
// "not paused" rather than failing.
func (s *PauseStore) Load() *PauseState {
	s.mu.Lock()
	defer s.mu.Unlock()

	var state PauseState
	if err := readJSON(s.path, &state); err != nil {
		return &PauseState{}
	}
	return &state
}

// Save writes the full document atomically.
func (s *PauseStore) Save(state *PauseState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSON(s.path, state)
}
