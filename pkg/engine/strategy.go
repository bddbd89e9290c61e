package engine

import (
	"errors"
	"fmt"
)

var ErrInvalidRulebook = errors.New("invalid rulebook")

// Strategy is one control family (e.g. Regular Backups) that maps evidence
// text to findings. Implementations must be safe for concurrent use.
type Strategy interface {
	ID() string
	Name() string
	Describe() string
	Evaluate(text, source string) []Finding
}

// Branch is one side (pass or fail) of a check slot
type Branch struct {
	When           Condition
	Priority       Priority
	Recommendation string
}

// Check is one row of a rulebook. Pass is tested first; Fail only when Pass
// does not hold.
type Check struct {
	ID    string
	Label string
	Level MaturityLevel
	Pass  Branch
	Fail  *Branch
}

// Rulebook is a Strategy driven by an ordered table of checks
type Rulebook struct {
	id          string
	name        string
	description string
	checks      []Check
}

// NewRulebook validates the check table and returns a Rulebook over a copy of it.
func NewRulebook(id, name, description string, checks []Check) (*Rulebook, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: missing strategy id", ErrInvalidRulebook)
	}
	if description == "" {
		return nil, fmt.Errorf("%w: %s: missing description", ErrInvalidRulebook, id)
	}

	seen := make(map[string]bool, len(checks))
	for i, c := range checks {
		if c.ID == "" {
			return nil, fmt.Errorf("%w: %s: check %d has no id", ErrInvalidRulebook, id, i)
		}
		if seen[c.ID] {
			return nil, fmt.Errorf("%w: %s: duplicate check id %s", ErrInvalidRulebook, id, c.ID)
		}
		seen[c.ID] = true

		if !c.Level.IsValid() {
			return nil, fmt.Errorf("%w: %s: invalid maturity level %q", ErrInvalidRulebook, c.ID, c.Level)
		}
		if err := validateBranch(c.Pass); err != nil {
			return nil, fmt.Errorf("%w: %s pass: %w", ErrInvalidRulebook, c.ID, err)
		}
		if c.Fail != nil {
			if err := validateBranch(*c.Fail); err != nil {
				return nil, fmt.Errorf("%w: %s fail: %w", ErrInvalidRulebook, c.ID, err)
			}
		}
	}

	if name == "" {
		name = id
	}
	return &Rulebook{
		id:          id,
		name:        name,
		description: description,
		checks:      append([]Check(nil), checks...),
	}, nil
}

// MustNewRulebook is for built-in tables.
func MustNewRulebook(id, name, description string, checks []Check) *Rulebook {
	rb, err := NewRulebook(id, name, description, checks)
	if err != nil {
		panic(err)
	}
	return rb
}

func validateBranch(b Branch) error {
	if b.When == nil {
		return errors.New("missing condition")
	}
	if !b.Priority.IsValid() {
		return fmt.Errorf("invalid priority %q", b.Priority)
	}
	return nil
}

func (r *Rulebook) ID() string       { return r.id }
func (r *Rulebook) Name() string     { return r.name }
func (r *Rulebook) Describe() string { return r.description }

// Checks returns a copy of the check table in declaration order.
func (r *Rulebook) Checks() []Check {
	return append([]Check(nil), r.checks...)
}

// Evaluate walks the check table in order and emits at most one finding per
// check. The result is never nil.
func (r *Rulebook) Evaluate(text, source string) []Finding {
	t := lower(text)
	out := make([]Finding, 0, len(r.checks))

	for _, c := range r.checks {
		switch {
		case c.Pass.When.Holds(t):
			out = append(out, c.finding(VerdictPass, c.Pass, source))
		case c.Fail != nil && c.Fail.When.Holds(t):
			out = append(out, c.finding(VerdictFail, *c.Fail, source))
		}
	}
	return out
}

func (c Check) finding(v Verdict, b Branch, source string) Finding {
	return Finding{
		TestID:         c.ID,
		SubStrategy:    c.Label,
		Level:          c.Level,
		Verdict:        v,
		Priority:       b.Priority,
		Recommendation: b.Recommendation,
		Evidence:       evidenceRefs(source),
	}
}
