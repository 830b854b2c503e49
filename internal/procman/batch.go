package procman

import (
	"fmt"
	"log"
	"strings"
)

// OpResult is the outcome of one operation within a batch.
type OpResult struct {
	Name string
	Err  error
}

// BatchResult aggregates per-item outcomes of a best-effort batch.
// Individual failures never abort the batch; they are collected here
// instead of being silently lost.
type BatchResult struct {
	Results []OpResult
}

// Failed returns how many operations in the batch failed.
func (b BatchResult) Failed() int {
	n := 0
	for _, r := range b.Results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// Summary returns a one-line description suitable for an API envelope.
func (b BatchResult) Summary(verb string) string {
	ok := len(b.Results) - b.Failed()
	if b.Failed() == 0 {
		return fmt.Sprintf("%s %d process(es)", verb, ok)
	}
	var failed []string
	for _, r := range b.Results {
		if r.Err != nil {
			failed = append(failed, r.Name)
		}
	}
	return fmt.Sprintf("%s %d process(es), %d failed: %s", verb, ok, b.Failed(), strings.Join(failed, ", "))
}

// StopAll stops each named process, continuing past failures.
func StopAll(m Manager, names []string) BatchResult {
	var batch BatchResult
	for _, name := range names {
		err := m.Stop(name)
		if err != nil {
			log.Printf("[procman] stop %s: %v", name, err)
		}
		batch.Results = append(batch.Results, OpResult{Name: name, Err: err})
	}
	return batch
}

// StartAll starts each named process, continuing past failures.
func StartAll(m Manager, names []string) BatchResult {
	var batch BatchResult
	for _, name := range names {
		err := m.Start(name)
		if err != nil {
			log.Printf("[procman] start %s: %v", name, err)
		}
		batch.Results = append(batch.Results, OpResult{Name: name, Err: err})
	}
	return batch
}

// RestartAll restarts each named process, continuing past failures.
func RestartAll(m Manager, names []string) BatchResult {
	var batch BatchResult
	for _, name := range names {
		err := m.Restart(name)
		if err != nil {
			log.Printf("[procman] restart %s: %v", name, err)
		}
		batch.Results = append(batch.Results, OpResult{Name: name, Err: err})
	}
	return batch
}

// KillAllMatching sweeps every pattern and returns the total number of
// processes killed. Pattern failures are logged and skipped.
func KillAllMatching(m Manager, patterns []string) int {
	total := 0
	for _, pattern := range patterns {
		n, err := m.KillMatching(pattern)
		if err != nil {
			log.Printf("[procman] kill %q: %v", pattern, err)
			continue
		}
		total += n
	}
	return total
}
