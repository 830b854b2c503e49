package swarm

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/kraliki/swarm-ops/internal/domain"
	"github.com/kraliki/swarm-ops/internal/procman"
)

// AgentSpawner invokes the external spawn entry point for a genome.
type AgentSpawner interface {
	Spawn(genome string) (procman.SpawnResult, error)
}

// Result is the envelope returned by controller operations. Success is
// false both for real failures and for no-op transitions (pausing an
// already-paused swarm); Message distinguishes the two for the caller.
type Result struct {
	Success bool   `json:"success"`
	Paused  bool   `json:"paused"`
	Killed  int    `json:"killed,omitempty"`
	Message string `json:"message"`
}

// Controller owns the RUNNING/PAUSED state machine. All transitions and
// spawns serialize through one mutex so a pause cannot interleave with
// an in-flight spawn.
type Controller struct {
	policy   *PolicyStore
	pause    *PauseStore
	proc     procman.Manager
	spawner  AgentSpawner
	patterns []string // agent kill patterns for kill_running sweeps
	services []string // PM2 service names for power on/off/restart
	now      func() time.Time

	mu sync.Mutex
}

// NewController wires the state machine to its stores and process manager.
func NewController(policy *PolicyStore, pause *PauseStore, proc procman.Manager, spawner AgentSpawner, services []string) *Controller {
	return &Controller{
		policy:   policy,
		pause:    pause,
		proc:     proc,
		spawner:  spawner,
		patterns: procman.AgentPatterns,
		services: services,
		now:      time.Now,
	}
}

// State returns the current pause record.
func (c *Controller) State() *PauseState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pause.Load()
}

// Pause transitions RUNNING -> PAUSED: snapshots the policy, disables
// every CLI, and optionally kills running agent processes. Pausing an
// already-paused swarm changes nothing and reports failure.
func (c *Controller) Pause(actor string, killRunning bool) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	state := c.pause.Load()
	if state.Paused {
		return Result{Paused: true, Message: "swarm is already paused"}, nil
	}

	doc := c.policy.Load()
	snapshot := make(map[string]CliPolicy, len(doc.CLIs))
	for name, p := range doc.CLIs {
		snapshot[name] = p
	}

	disabled := &PolicyDoc{CLIs: make(map[string]CliPolicy, len(doc.CLIs))}
	for name, p := range doc.CLIs {
		p.Enabled = false
		p.Reason = fmt.Sprintf("Paused by %s", actor)
		disabled.CLIs[name] = p
	}

	pausedAt := c.now()
	newState := &PauseState{
		Paused:           true,
		PausedAt:         &pausedAt,
		PausedBy:         &actor,
		PreviousCliState: snapshot,
	}
	if err := c.pause.Save(newState); err != nil {
		return Result{}, fmt.Errorf("saving pause state: %w", err)
	}
	if err := c.policy.Save(disabled); err != nil {
		// Roll the pause record back so the two documents stay consistent.
		if rbErr := c.pause.Save(state); rbErr != nil {
			log.Printf("[swarm] pause rollback failed: %v", rbErr)
		}
		return Result{}, fmt.Errorf("saving policy: %w", err)
	}

	res := Result{Success: true, Paused: true, Message: fmt.Sprintf("swarm paused by %s", actor)}
	if killRunning {
		res.Killed = procman.KillAllMatching(c.proc, c.patterns)
		res.Message = fmt.Sprintf("%s, killed %d running agent(s)", res.Message, res.Killed)
	}
	log.Printf("[swarm] %s", res.Message)
	return res, nil
}

// Resume transitions PAUSED -> RUNNING, restoring the snapshotted
// policy verbatim. Without a snapshot every known CLI is re-enabled
// with a default reason. Resuming a running swarm changes nothing and
// reports failure.
func (c *Controller) Resume() (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	state := c.pause.Load()
	if !state.Paused {
		return Result{Message: "swarm is not paused"}, nil
	}

	restored := &PolicyDoc{CLIs: make(map[string]CliPolicy)}
	if state.PreviousCliState != nil {
		for name, p := range state.PreviousCliState {
			p.Reason = "Restored after resume"
			restored.CLIs[name] = p
		}
	} else {
		// Snapshot lost (state file reset externally): enable everything.
		for i, name := range KnownCLIs {
			restored.CLIs[name] = CliPolicy{Enabled: true, Reason: "Enabled after resume (no snapshot)", Priority: i + 1}
		}
	}

	if err := c.policy.Save(restored); err != nil {
		return Result{}, fmt.Errorf("saving policy: %w", err)
	}
	if err := c.pause.Save(&PauseState{}); err != nil {
		return Result{}, fmt.Errorf("saving pause state: %w", err)
	}

	log.Printf("[swarm] resumed, %d CLI(s) restored", len(restored.CLIs))
	return Result{Success: true, Message: "swarm resumed"}, nil
}

// Power starts, stops, or restarts the swarm's long-running services.
// "off" also sweeps running agent processes. Batch failures are
// reported in the message, never aborted on.
func (c *Controller) Power(action string) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch action {
	case "on":
		batch := procman.StartAll(c.proc, c.services)
		return Result{Success: batch.Failed() == 0, Message: batch.Summary("started")}, nil
	case "off":
		batch := procman.StopAll(c.proc, c.services)
		killed := procman.KillAllMatching(c.proc, c.patterns)
		res := Result{Success: batch.Failed() == 0, Killed: killed, Message: batch.Summary("stopped")}
		if killed > 0 {
			res.Message = fmt.Sprintf("%s, killed %d agent(s)", res.Message, killed)
		}
		return res, nil
	case "restart":
		batch := procman.RestartAll(c.proc, c.services)
		return Result{Success: batch.Failed() == 0, Message: batch.Summary("restarted")}, nil
	default:
		return Result{}, fmt.Errorf("unknown power action %q", action)
	}
}

// SpawnResult is the envelope for a spawn request. Output carries the
// spawn script's stdout and stderr verbatim.
type SpawnResult struct {
	Success bool   `json:"success"`
	Genome  string `json:"genome"`
	RunID   string `json:"run_id,omitempty"`
	Output  string `json:"output"`
	Error   string `json:"error,omitempty"`
}

// Spawn launches an agent from the named genome. The pause flag and the
// genome's CLI policy are both checked under the controller lock, so a
// concurrent pause either beats the spawn (which is then rejected) or
// sweeps the spawned process in its kill_running pass.
func (c *Controller) Spawn(genome string) (SpawnResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	res := SpawnResult{Genome: genome}

	if c.pause.Load().Paused {
		res.Error = "swarm is paused"
		return res, nil
	}

	cli := domain.GenomeCLI(genome)
	if policy, ok := c.policy.Load().CLIs[cli]; ok && !policy.Enabled {
		res.Error = fmt.Sprintf("%s is disabled: %s", cli, policy.Reason)
		return res, nil
	}

	out, err := c.spawner.Spawn(genome)
	res.Output = out.Output
	res.RunID = out.RunID
	if err != nil {
		res.Error = err.Error()
		return res, nil
	}

	res.Success = true
	log.Printf("[swarm] spawned %s (run %s)", genome, out.RunID)
	return res, nil
}
