package procman

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// spawnNamespace is a fixed UUID namespace so a genome's run IDs are
// reproducible across restarts for the same spawn minute.
var spawnNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// SpawnResult carries the spawner's output back to the caller verbatim.
// The output format is owned by the external spawn script; nothing here
// parses it.
type SpawnResult struct {
	RunID  string
	Genome string
	Output string
}

// Spawner invokes the external agent spawn entry point.
type Spawner struct {
	runner CommandRunner
	script string
}

// NewSpawner creates a Spawner for the given spawn script path.
func NewSpawner(runner CommandRunner, script string) *Spawner {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Spawner{runner: runner, script: script}
}

// Spawn runs the spawn script with the genome name as its sole
// argument. Unlike the batch operations, a spawn failure is surfaced to
// the caller: it is a single synchronous action with a meaningful result.
func (s *Spawner) Spawn(genome string) (SpawnResult, error) {
	res := SpawnResult{
		RunID:  uuid.NewSHA1(spawnNamespace, []byte(genome+time.Now().Format("200601021504"))).String(),
		Genome: genome,
	}

	out, err := s.runner.Run(s.script, genome)
	res.Output = strings.TrimRight(string(out), "\n")
	if err != nil {
		return res, fmt.Errorf("spawning %s: %w", genome, err)
	}
	return res, nil
}
