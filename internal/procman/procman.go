// Package procman wraps the external process-management primitives the
// swarm runs on: PM2 for long-running services and pkill for agent
// processes matched by command-line pattern.
package procman

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// AgentPatterns are the command-line shapes of running agent CLI
// invocations, one per known CLI. KillMatching sweeps use these.
var AgentPatterns = []string{
	"claude --dangerously-skip-permissions",
	"opencode run",
	"codex exec",
	"gemini --yolo",
}

// ProcessInfo is a read-only snapshot of one managed process.
type ProcessInfo struct {
	Name      string
	PID       int
	Status    string // "online", "stopped", "errored"
	StartedAt time.Time
	CPU       float64 // percent
	Memory    float64 // resident bytes
}

// Manager abstracts the process manager so the shell-exec mechanism is
// swappable in tests.
type Manager interface {
	List() ([]ProcessInfo, error)
	Start(name string) error
	Stop(name string) error
	Restart(name string) error
	KillMatching(pattern string) (int, error)
}

// CommandRunner executes an external command and returns its combined
// output.
type CommandRunner interface {
	Run(name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands via os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).CombinedOutput()
}

// PM2 manages processes through the pm2 CLI.
type PM2 struct {
	runner CommandRunner
}

// NewPM2 creates a PM2 manager using the given runner.
func NewPM2(runner CommandRunner) *PM2 {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &PM2{runner: runner}
}

// pm2Process mirrors the fields we read from `pm2 jlist` output.
type pm2Process struct {
	Name   string `json:"name"`
	PID    int    `json:"pid"`
	PM2Env struct {
		Status   string `json:"status"`
		PMUptime int64  `json:"pm_uptime"` // epoch millis of process start
	} `json:"pm2_env"`
	Monit struct {
		CPU    float64 `json:"cpu"`
		Memory float64 `json:"memory"`
	} `json:"monit"`
}

// List returns a snapshot of all PM2-managed processes.
func (p *PM2) List() ([]ProcessInfo, error) {
	out, err := p.runner.Run("pm2", "jlist")
	if err != nil {
		return nil, fmt.Errorf("pm2 jlist: %w", err)
	}

	var procs []pm2Process
	if err := json.Unmarshal(out, &procs); err != nil {
		return nil, fmt.Errorf("parsing pm2 jlist output: %w", err)
	}

	infos := make([]ProcessInfo, 0, len(procs))
	for _, pr := range procs {
		infos = append(infos, ProcessInfo{
			Name:      pr.Name,
			PID:       pr.PID,
			Status:    pr.PM2Env.Status,
			StartedAt: time.UnixMilli(pr.PM2Env.PMUptime),
			CPU:       pr.Monit.CPU,
			Memory:    pr.Monit.Memory,
		})
	}
	return infos, nil
}

// Start starts a named PM2 process.
func (p *PM2) Start(name string) error {
	if out, err := p.runner.Run("pm2", "start", name); err != nil {
		return fmt.Errorf("pm2 start %s: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Stop stops a named PM2 process.
func (p *PM2) Stop(name string) error {
	if out, err := p.runner.Run("pm2", "stop", name); err != nil {
		return fmt.Errorf("pm2 stop %s: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Restart restarts a named PM2 process.
func (p *PM2) Restart(name string) error {
	if out, err := p.runner.Run("pm2", "restart", name); err != nil {
		return fmt.Errorf("pm2 restart %s: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// KillMatching force-kills all processes whose command line matches the
// pattern and returns how many were signalled. A pattern that matches
// nothing is a no-op, not an error.
func (p *PM2) KillMatching(pattern string) (int, error) {
	out, err := p.runner.Run("pkill", "-9", "-c", "-f", pattern)
	count, _ := strconv.Atoi(strings.TrimSpace(string(out)))
	if err != nil {
		// pkill exits 1 when nothing matched.
		if ee, ok := err.(*exec.ExitError); ok && ee.ExitCode() == 1 {
			return 0, nil
		}
		return count, fmt.Errorf("pkill -f %q: %w", pattern, err)
	}
	return count, nil
}
