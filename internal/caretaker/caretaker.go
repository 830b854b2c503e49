// Package caretaker produces point-in-time fleet health snapshots. It
// observes PM2 process state, host resources, and per-agent ages, and
// never mutates anything: long-running agents are flagged for
// visibility, not killed.
package caretaker

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/kraliki/swarm-ops/internal/notify"
	"github.com/kraliki/swarm-ops/internal/procman"
)

// DefaultLongRunning is the observation threshold for flagging agents.
// Below this there is no intervention of any kind; at or above it the
// agent is listed in the report and escalated, still without action.
const DefaultLongRunning = 9 * time.Hour

// LongRunner is an agent process that has exceeded the age threshold.
type LongRunner struct {
	Name string `json:"name"`
	PID  int    `json:"pid"`
	Age  string `json:"age"`
}

// Report is a structured health snapshot.
type Report struct {
	TakenAt        time.Time    `json:"taken_at"`
	AgentsTotal    int          `json:"agents_total"`
	AgentsOnline   int          `json:"agents_online"`
	AgentsErrored  int          `json:"agents_errored"`
	ServicesOnline int          `json:"services_online"`
	ServicesTotal  int          `json:"services_total"`
	Resources      Resources    `json:"resources"`
	LongRunning    []LongRunner `json:"long_running"`
	Summary        []string     `json:"summary"`
}

// Monitor samples fleet health on demand.
type Monitor struct {
	proc          procman.Manager
	sampler       Sampler
	notifier      notify.Notifier
	agentPrefixes []string
	serviceNames  []string
	longRunning   time.Duration
	now           func() time.Time
}

// Config holds monitor construction parameters.
type Config struct {
	AgentPrefixes []string // PM2 process name prefixes that are agents
	ServiceNames  []string // PM2 process names that are swarm services
	LongRunning   time.Duration
}

// New creates a Monitor. A nil sampler samples the live host; a nil
// notifier disables escalation.
func New(proc procman.Manager, sampler Sampler, notifier notify.Notifier, cfg Config) *Monitor {
	if sampler == nil {
		sampler = SystemSampler{}
	}
	if notifier == nil {
		notifier = notify.NoopNotifier{}
	}
	if cfg.LongRunning <= 0 {
		cfg.LongRunning = DefaultLongRunning
	}
	return &Monitor{
		proc:          proc,
		sampler:       sampler,
		notifier:      notifier,
		agentPrefixes: cfg.AgentPrefixes,
		serviceNames:  cfg.ServiceNames,
		longRunning:   cfg.LongRunning,
		now:           time.Now,
	}
}

func (m *Monitor) isAgent(name string) bool {
	for _, prefix := range m.agentPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

func (m *Monitor) isService(name string) bool {
	for _, svc := range m.serviceNames {
		if name == svc {
			return true
		}
	}
	return false
}

// Snapshot produces a health report. Both inputs degrade rather than
// fail: an unreachable process manager or sampler yields a report that
// says so in its summary.
func (m *Monitor) Snapshot() *Report {
	now := m.now()
	report := &Report{TakenAt: now, LongRunning: []LongRunner{}}

	procs, err := m.proc.List()
	if err != nil {
		log.Printf("[caretaker] process list: %v", err)
		report.Summary = append(report.Summary, fmt.Sprintf("process manager unavailable: %v", err))
	}

	for _, p := range procs {
		switch {
		case m.isAgent(p.Name):
			report.AgentsTotal++
			switch p.Status {
			case "online":
				report.AgentsOnline++
			case "errored":
				report.AgentsErrored++
			}
			age := now.Sub(p.StartedAt)
			if p.Status == "online" && age >= m.longRunning {
				report.LongRunning = append(report.LongRunning, LongRunner{
					Name: p.Name,
					PID:  p.PID,
					Age:  age.Round(time.Minute).String(),
				})
			}
		case m.isService(p.Name):
			report.ServicesTotal++
			if p.Status == "online" {
				report.ServicesOnline++
			}
		}
	}
	// Services that PM2 has never seen still count toward the total.
	if report.ServicesTotal < len(m.serviceNames) {
		report.ServicesTotal = len(m.serviceNames)
	}

	res, err := m.sampler.Sample()
	if err != nil {
		log.Printf("[caretaker] resource sample: %v", err)
		report.Summary = append(report.Summary, fmt.Sprintf("resource counters unavailable: %v", err))
	}
	report.Resources = res

	sort.Slice(report.LongRunning, func(i, j int) bool {
		return report.LongRunning[i].Name < report.LongRunning[j].Name
	})

	report.Summary = append(report.Summary,
		fmt.Sprintf("agents: %d/%d online, %d errored", report.AgentsOnline, report.AgentsTotal, report.AgentsErrored),
		fmt.Sprintf("services: %d/%d online", report.ServicesOnline, report.ServicesTotal),
		fmt.Sprintf("memory: %.1f%% used, disk: %.1f%% used, load: %.2f", res.MemoryUsedPct, res.DiskUsedPct, res.Load1),
	)
	for _, lr := range report.LongRunning {
		report.Summary = append(report.Summary,
			fmt.Sprintf("long-running: %s (%s) - monitoring, no action", lr.Name, lr.Age))
	}

	return report
}

// Sweep takes a snapshot and escalates long-running agents through the
// notifier. Notification failures are logged, never propagated.
func (m *Monitor) Sweep() *Report {
	report := m.Snapshot()

	if len(report.LongRunning) > 0 {
		names := make([]string, len(report.LongRunning))
		for i, lr := range report.LongRunning {
			names[i] = fmt.Sprintf("%s (%s)", lr.Name, lr.Age)
		}
		err := m.notifier.Send(notify.Notification{
			Title:   fmt.Sprintf("%d long-running agent(s)", len(report.LongRunning)),
			Message: strings.Join(names, "\n"),
			Type:    notify.NotifyWarning,
		})
		if err != nil {
			log.Printf("[caretaker] escalation: %v", err)
		}
	}

	return report
}
