package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

var (
	ErrDuplicateStrategy = errors.New("duplicate strategy")
	ErrStrategyNotFound  = errors.New("strategy not found")
)

// ConditionSpec is the YAML form of a branch condition. Exactly one of
// Keywords or Expr must be set.
type ConditionSpec struct {
	Keywords       []string `yaml:"keywords,omitempty"`
	Expr           string   `yaml:"expr,omitempty"`
	Priority       string   `yaml:"priority"`
	Recommendation string   `yaml:"recommendation"`
}

// ControlSpec is the YAML form of a single check
type ControlSpec struct {
	ID    string         `yaml:"id"`
	Label string         `yaml:"label"`
	Level string         `yaml:"level,omitempty"` // defaults to ML1
	Pass  ConditionSpec  `yaml:"pass"`
	Fail  *ConditionSpec `yaml:"fail,omitempty"`
}

// Profile is a rule family loaded from YAML (e.g. Patch Applications)
type Profile struct {
	ID          string        `yaml:"id"`
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Checks      []ControlSpec `yaml:"checks"`
}

// Rulebook compiles the profile into a Strategy.
func (p Profile) Rulebook() (*Rulebook, error) {
	checks := make([]Check, 0, len(p.Checks))
	for _, cs := range p.Checks {
		level := MaturityLevel1
		if cs.Level != "" {
			lvl, err := ParseMaturityLevel(cs.Level)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %w", ErrInvalidRulebook, cs.ID, err)
			}
			level = lvl
		}

		pass, err := cs.Pass.branch()
		if err != nil {
			return nil, fmt.Errorf("%w: %s pass: %w", ErrInvalidRulebook, cs.ID, err)
		}

		c := Check{ID: cs.ID, Label: cs.Label, Level: level, Pass: pass}
		if cs.Fail != nil {
			fail, err := cs.Fail.branch()
			if err != nil {
				return nil, fmt.Errorf("%w: %s fail: %w", ErrInvalidRulebook, cs.ID, err)
			}
			c.Fail = &fail
		}
		checks = append(checks, c)
	}

	return NewRulebook(p.ID, p.Name, p.Description, checks)
}

func (cs ConditionSpec) branch() (Branch, error) {
	prio, err := ParsePriority(cs.Priority)
	if err != nil {
		return Branch{}, err
	}

	b := Branch{Priority: prio, Recommendation: cs.Recommendation}
	switch {
	case len(cs.Keywords) > 0 && cs.Expr != "":
		return Branch{}, errors.New("set either keywords or expr, not both")
	case len(cs.Keywords) > 0:
		b.When = Keywords(cs.Keywords...)
	case cs.Expr != "":
		ec, err := Expr(cs.Expr)
		if err != nil {
			return Branch{}, err
		}
		b.When = ec
	default:
		return Branch{}, errors.New("missing keywords or expr")
	}
	return b, nil
}

// Engine holds the registered strategies
type Engine struct {
	strategies map[string]Strategy
	mu         sync.RWMutex
}

// NewEngine creates an engine with the built-in strategies registered
func NewEngine() *Engine {
	e := &Engine{
		strategies: make(map[string]Strategy),
	}
	// Built-in IDs are unique.
	_ = e.Register(RegularBackups())
	return e
}

// Register adds a strategy. IDs are unique.
func (e *Engine) Register(s Strategy) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.strategies[s.ID()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateStrategy, s.ID())
	}
	e.strategies[s.ID()] = s
	return nil
}

// LoadProfiles reads YAML rule profiles from a directory and registers them.
// It returns the IDs of the loaded profiles.
func (e *Engine) LoadProfiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var loaded []string
	for _, entry := range entries {
		if entry.IsDir() || (filepath.Ext(entry.Name()) != ".yaml" && filepath.Ext(entry.Name()) != ".yml") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return loaded, err
		}

		var p Profile
		if err := yaml.Unmarshal(data, &p); err != nil {
			return loaded, fmt.Errorf("failed to parse %s: %w", entry.Name(), err)
		}
		rb, err := p.Rulebook()
		if err != nil {
			return loaded, fmt.Errorf("%s: %w", entry.Name(), err)
		}
		if err := e.Register(rb); err != nil {
			return loaded, fmt.Errorf("%s: %w", entry.Name(), err)
		}
		loaded = append(loaded, rb.ID())
	}
	return loaded, nil
}

// ListStrategies returns the registered strategies sorted by ID
func (e *Engine) ListStrategies() []Strategy {
	e.mu.RLock()
	defer e.mu.RUnlock()

	list := make([]Strategy, 0, len(e.strategies))
	for _, s := range e.strategies {
		list = append(list, s)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID() < list[j].ID() })
	return list
}

// GetStrategy retrieves a strategy by ID, falling back to a
// case-insensitive match on ID or name.
func (e *Engine) GetStrategy(id string) (Strategy, error) {
	e.mu.RLock()
	s, ok := e.strategies[id]
	e.mu.RUnlock()
	if ok {
		return s, nil
	}

	for _, s := range e.ListStrategies() {
		if strings.EqualFold(s.ID(), id) || strings.EqualFold(s.Name(), id) {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrStrategyNotFound, id)
}

// EvaluateAll runs every registered strategy over the text in ID order.
func (e *Engine) EvaluateAll(text, source string) []Finding {
	findings := make([]Finding, 0)
	for _, s := range e.ListStrategies() {
		findings = append(findings, s.Evaluate(text, source)...)
	}
	return findings
}

// EvaluateWith runs only the named strategies, in the given order.
func (e *Engine) EvaluateWith(ids []string, text, source string) ([]Finding, error) {
	findings := make([]Finding, 0)
	for _, id := range ids {
		s, err := e.GetStrategy(id)
		if err != nil {
			return nil, err
		}
		findings = append(findings, s.Evaluate(text, source)...)
	}
	return findings, nil
}
