package engine

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"
)

// dottedCapitalI lowercases to "i" plus U+0307, so "FAİLED" never reads as
// "failed". strings.ToLower alone maps it to a bare "i".
var dottedCapitalI = strings.NewReplacer("\u0130", "i\u0307")

// lower folds text the way check keywords are matched.
func lower(text string) string {
	return strings.ToLower(dottedCapitalI.Replace(text))
}

// Condition decides whether a check branch fires for already-lowercased text.
type Condition interface {
	Holds(text string) bool
}

// KeywordCondition holds when any of its keywords is a substring of the text.
type KeywordCondition struct {
	keywords []string
}

// Keywords builds a [KeywordCondition]. Keywords are lowercased so that
// matching against lowercased text is case-insensitive.
func Keywords(keywords ...string) *KeywordCondition {
	kc := &KeywordCondition{keywords: make([]string, 0, len(keywords))}
	for _, k := range keywords {
		if k == "" {
			continue
		}
		kc.keywords = append(kc.keywords, lower(k))
	}
	return kc
}

func (kc *KeywordCondition) Holds(text string) bool {
	for _, k := range kc.keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

// List returns a copy of the keywords.
func (kc *KeywordCondition) List() []string {
	return append([]string(nil), kc.keywords...)
}

// CEL environment creation and compilation are serialized.
var celMutex sync.Mutex

// ExprCondition evaluates a compiled CEL expression against the text.
//
// The expression sees a single variable:
//   - `text` (string): the lowercased evidence text
//
// and must return a boolean, e.g.
//   - text.contains("restore failed") && !text.contains("retry succeeded")
//   - text.matches("retained for [0-9]+ days")
type ExprCondition struct {
	source  string
	program cel.Program
}

// Expr compiles a CEL expression into an [ExprCondition].
func Expr(expression string) (*ExprCondition, error) {
	celMutex.Lock()
	defer celMutex.Unlock()

	env, err := cel.NewEnv(cel.Variable("text", cel.StringType))
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}

	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile expression: %w", issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("expression %q must return bool, got %s", expression, ast.OutputType())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("create CEL program: %w", err)
	}

	return &ExprCondition{source: expression, program: program}, nil
}

// MustExpr is like [Expr] but panics on error.
func MustExpr(expression string) *ExprCondition {
	ec, err := Expr(expression)
	if err != nil {
		panic(err)
	}
	return ec
}

// Holds reports whether the expression evaluates to true. Evaluation errors
// and non-boolean results are treated as a non-match.
func (ec *ExprCondition) Holds(text string) bool {
	result, _, err := ec.program.Eval(map[string]any{"text": text})
	if err != nil {
		return false
	}
	b, ok := result.Value().(bool)
	return ok && b
}

func (ec *ExprCondition) String() string {
	return ec.source
}
