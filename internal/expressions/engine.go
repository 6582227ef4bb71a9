package expressions

import (
	"context"
	"fmt"
	"sort"

	"github.com/rendis/vetassist/pkg/schema"
)

// Engine evaluates diagnosis rule expressions against case facts.
// Three implementations: CEL (conditions), Expr (conditions and scoring), GoJQ (queries).
type Engine interface {
	Name() string
	Evaluate(ctx context.Context, expression string, data map[string]any) (any, error)
}

// Facts is the data a rule expression sees about one case.
type Facts struct {
	Animal       string   `json:"animal"`
	Symptoms     []string `json:"symptoms"`
	Categories   []string `json:"categories"`
	HasImage     bool     `json:"has_image"`
	SymptomCount int      `json:"symptom_count"`
}

// Map converts the facts into the variable map handed to an Engine.
// Symptom and category lists are sorted so jq outputs are deterministic.
func (f Facts) Map() map[string]any {
	symptoms := append([]string(nil), f.Symptoms...)
	sort.Strings(symptoms)
	categories := append([]string(nil), f.Categories...)
	sort.Strings(categories)
	if symptoms == nil {
		symptoms = []string{}
	}
	if categories == nil {
		categories = []string{}
	}
	return map[string]any{
		"animal":        f.Animal,
		"symptoms":      symptoms,
		"categories":    categories,
		"has_image":     f.HasImage,
		"symptom_count": int64(f.SymptomCount),
	}
}

// Set holds one engine per supported language.
type Set struct {
	engines map[string]Engine
}

// NewSet builds the CEL, Expr and jq engines.
func NewSet() (*Set, error) {
	celEngine, err := NewCELEngine()
	if err != nil {
		return nil, err
	}
	s := &Set{engines: make(map[string]Engine, 3)}
	for _, e := range []Engine{celEngine, NewExprEngine(), NewGoJQEngine()} {
		s.engines[e.Name()] = e
	}
	return s, nil
}

// Get returns the engine registered under name.
func (s *Set) Get(name string) (Engine, error) {
	e, ok := s.engines[name]
	if !ok {
		return nil, schema.NewErrorf(schema.ErrCodeValidation,
			"unknown expression language %q: must be one of cel, expr, jq", name)
	}
	return e, nil
}

// Check compiles expression in the given language without evaluating it.
func (s *Set) Check(language, expression string) error {
	if expression == "" {
		return schema.NewError(schema.ErrCodeValidation, "empty expression")
	}
	e, err := s.Get(language)
	if err != nil {
		return err
	}
	c, ok := e.(interface{ Compile(string) error })
	if !ok {
		return nil
	}
	return c.Compile(expression)
}

// Languages returns the registered language names in sorted order.
func (s *Set) Languages() []string {
	out := make([]string, 0, len(s.engines))
	for name := range s.engines {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// EvaluateBool evaluates a condition and requires a boolean result.
func EvaluateBool(ctx context.Context, e Engine, expression string, data map[string]any) (bool, error) {
	out, err := e.Evaluate(ctx, expression, data)
	if err != nil {
		return false, err
	}
	b, ok := out.(bool)
	if !ok {
		return false, schema.NewErrorf(schema.ErrCodeExpression,
			"%s condition %q returned %T, want bool", e.Name(), expression, out)
	}
	return b, nil
}

// EvaluateNumber evaluates a scoring expression and coerces the result to float64.
func EvaluateNumber(ctx context.Context, e Engine, expression string, data map[string]any) (float64, error) {
	out, err := e.Evaluate(ctx, expression, data)
	if err != nil {
		return 0, err
	}
	switch v := out.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	default:
		return 0, schema.NewError(schema.ErrCodeExpression,
			fmt.Sprintf("%s expression %q returned %T, want number", e.Name(), expression, out))
	}
}
