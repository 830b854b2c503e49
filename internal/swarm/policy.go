// Package swarm holds the fleet pause/resume state machine and the
// on-disk policy documents it mutates.
package swarm

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// KnownCLIs is the fixed set of agent CLI tools the swarm can spawn.
var KnownCLIs = []string{"claude", "opencode", "codex", "gemini"}

// CliPolicy controls whether a single CLI tool may be used for new spawns.
type CliPolicy struct {
	Enabled  bool   `json:"enabled"`
	Reason   string `json:"reason"`
	Priority int    `json:"priority"`
}

// PolicyDoc is the on-disk policy document, rewritten wholesale on
// every mutation so readers never observe a half-toggled state.
type PolicyDoc struct {
	CLIs    map[string]CliPolicy `json:"clis"`
	Updated string               `json:"_updated"`
}

// DefaultPolicy returns a document with every known CLI enabled.
func DefaultPolicy() *PolicyDoc {
	doc := &PolicyDoc{
		CLIs:    make(map[string]CliPolicy, len(KnownCLIs)),
		Updated: time.Now().Format("2006-01-02"),
	}
	for i, name := range KnownCLIs {
		doc.CLIs[name] = CliPolicy{Enabled: true, Reason: "default", Priority: i + 1}
	}
	return doc
}

// PolicyStore persists the policy document as pretty-printed JSON.
// Writes go through a temp file and rename so a crash mid-write leaves
// the previous document intact.
type PolicyStore struct {
	path string
	mu   sync.Mutex
}

// NewPolicyStore creates a store backed by the given file path.
func NewPolicyStore(path string) *PolicyStore {
	return &PolicyStore{path: path}
}

// Load reads the policy document. A missing or malformed file falls
// back to the default policy rather than failing the read path.
func (s *PolicyStore) Load() *PolicyDoc {
	s.mu.Lock()
	defer s.mu.Unlock()

	var doc PolicyDoc
	if err := readJSON(s.path, &doc); err != nil || doc.CLIs == nil {
		return DefaultPolicy()
	}
	return &doc
}

// Save writes the full document atomically.
func (s *PolicyStore) Save(doc *PolicyDoc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc.Updated = time.Now().Format("2006-01-02")
	return writeJSON(s.path, doc)
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".swarm-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
