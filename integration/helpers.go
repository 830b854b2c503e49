//go:build integration

package integration

import (
	"os"
	"path/filepath"
	"testing"
)

// SwarmRoot scaffolds a throwaway swarm state directory: genome files,
// a decision log, scoring artifacts, and an executable spawn script
// that echoes its genome argument.
type SwarmRoot struct {
	Dir         string
	GenomeDir   string
	DecisionLog string
	PolicyFile  string
	PauseFile   string
	SpawnScript string
}

// NewSwarmRoot builds the scaffold under t.TempDir.
func NewSwarmRoot(t *testing.T) *SwarmRoot {
	t.Helper()
	dir := t.TempDir()

	root := &SwarmRoot{
		Dir:         dir,
		GenomeDir:   filepath.Join(dir, "genomes"),
		DecisionLog: filepath.Join(dir, "decisions.jsonl"),
		PolicyFile:  filepath.Join(dir, "cli-control.json"),
		PauseFile:   filepath.Join(dir, "swarm-pause.json"),
		SpawnScript: filepath.Join(dir, "spawn-agent.sh"),
	}

	if err := os.MkdirAll(root.GenomeDir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"claude_architect.md", "opencode_backend.md"} {
		if err := os.WriteFile(filepath.Join(root.GenomeDir, name), []byte("# genome\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	script := "#!/bin/sh\necho \"spawning $1\"\n"
	if err := os.WriteFile(root.SpawnScript, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}

	return root
}

// WriteDecisions appends JSONL lines to the decision log.
func (r *SwarmRoot) WriteDecisions(t *testing.T, lines ...string) {
	t.Helper()
	f, err := os.OpenFile(r.DecisionLog, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	for _, line := range lines {
		if _, err := f.WriteString(line + "\n"); err != nil {
			t.Fatal(err)
		}
	}
}
