package engine

import (
	"fmt"
	"strings"
)

// Verdict is the outcome of a single check
type Verdict string

const (
	VerdictPass Verdict = "PASS"
	VerdictFail Verdict = "FAIL"
)

func (v Verdict) IsValid() bool {
	return v == VerdictPass || v == VerdictFail
}

func (v Verdict) String() string {
	return string(v)
}

// Priority is the fixed remediation priority attached to a check branch
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Rank returns an integer rank for comparison (Low=1, High=3).
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	default:
		return 0
	}
}

func (p Priority) IsValid() bool {
	return p.Rank() > 0
}

func (p Priority) String() string {
	return string(p)
}

// ParsePriority parses a priority string case-insensitively.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return PriorityLow, nil
	case "medium", "moderate":
		return PriorityMedium, nil
	case "high":
		return PriorityHigh, nil
	default:
		return "", fmt.Errorf("invalid priority: %q", s)
	}
}

// MaturityLevel is the Essential Eight maturity tier a check belongs to
type MaturityLevel string

const (
	MaturityLevel1 MaturityLevel = "ML1"
	MaturityLevel2 MaturityLevel = "ML2"
	MaturityLevel3 MaturityLevel = "ML3"
)

func (m MaturityLevel) IsValid() bool {
	switch m {
	case MaturityLevel1, MaturityLevel2, MaturityLevel3:
		return true
	}
	return false
}

func (m MaturityLevel) String() string {
	return string(m)
}

// ParseMaturityLevel accepts "ml2", "ML2" or a bare "2".
func ParseMaturityLevel(s string) (MaturityLevel, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	if len(v) == 1 {
		v = "ML" + v
	}
	m := MaturityLevel(v)
	if !m.IsValid() {
		return "", fmt.Errorf("invalid maturity level: %q", s)
	}
	return m, nil
}

// Finding represents one detected pass/fail condition for a control check
type Finding struct {
	TestID         string        `json:"test_id" yaml:"test_id"`
	SubStrategy    string        `json:"sub_strategy" yaml:"sub_strategy"`
	Level          MaturityLevel `json:"detected_level" yaml:"detected_level"`
	Verdict        Verdict       `json:"pass_fail" yaml:"pass_fail"`
	Priority       Priority      `json:"priority" yaml:"priority"`
	Recommendation string        `json:"recommendation" yaml:"recommendation"`
	Evidence       []string      `json:"evidence" yaml:"evidence"` // source labels
}

// evidenceRefs returns the evidence list for a source label. An empty label
// yields an empty, non-nil list so serialized output stays "[]".
func evidenceRefs(source string) []string {
	if source == "" {
		return []string{}
	}
	return []string{source}
}

// key identifies a finding for deduplication and snapshot comparison
func (f Finding) key() string {
	return f.TestID + "|" + string(f.Verdict) + "|" + strings.Join(f.Evidence, ",")
}
