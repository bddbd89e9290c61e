package engine

import (
	"sort"
	"strings"
	"sync"
)

// Ledger accumulates findings across evidence sources and strategies
type Ledger struct {
	Findings []Finding
	mu       sync.RWMutex
}

// NewLedger creates an empty ledger
func NewLedger() *Ledger {
	return &Ledger{
		Findings: make([]Finding, 0),
	}
}

// AddFindings ingests findings. A finding for a check and evidence source
// that is already present replaces the earlier one in place.
func (l *Ledger) AddFindings(newFindings []Finding) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, f := range newFindings {
		exists := false
		for i, existing := range l.Findings {
			if existing.TestID == f.TestID && strings.Join(existing.Evidence, ",") == strings.Join(f.Evidence, ",") {
				l.Findings[i] = f
				exists = true
				break
			}
		}

		if !exists {
			l.Findings = append(l.Findings, f)
		}
	}
}

// Snapshot returns a copy of the current findings
func (l *Ledger) Snapshot() []Finding {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return append([]Finding(nil), l.Findings...)
}

// Summary counts findings by verdict and priority
type Summary struct {
	Total  int              `json:"total" yaml:"total"`
	Passed int              `json:"passed" yaml:"passed"`
	Failed int              `json:"failed" yaml:"failed"`
	Fails  map[Priority]int `json:"fails_by_priority" yaml:"fails_by_priority"`
}

// Summarize counts the given findings.
func Summarize(findings []Finding) Summary {
	s := Summary{Fails: make(map[Priority]int)}
	for _, f := range findings {
		s.Total++
		if f.Verdict == VerdictPass {
			s.Passed++
			continue
		}
		s.Failed++
		s.Fails[f.Priority]++
	}
	return s
}

// HasFailureAtOrAbove reports whether any FAIL finding has at least the
// given priority.
func HasFailureAtOrAbove(findings []Finding, p Priority) bool {
	for _, f := range findings {
		if f.Verdict == VerdictFail && f.Priority.Rank() >= p.Rank() {
			return true
		}
	}
	return false
}

// SortByPriority orders findings High first, keeping declaration order
// within the same priority.
func SortByPriority(findings []Finding) []Finding {
	out := append([]Finding(nil), findings...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority.Rank() > out[j].Priority.Rank()
	})
	return out
}
