package diagnosis

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/rendis/vetassist/internal/expressions"
	"github.com/rendis/vetassist/internal/validation"
	"github.com/rendis/vetassist/pkg/schema"
)

//go:embed rules/default.yaml
var defaultRules embed.FS

// ParseRuleSet decodes a YAML rule set. Unknown fields are rejected.
func ParseRuleSet(data []byte) (*schema.RuleSet, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var rs schema.RuleSet
	if err := dec.Decode(&rs); err != nil {
		return nil, schema.NewError(schema.ErrCodeValidation, "parse rule set: "+err.Error()).WithCause(err)
	}
	return &rs, nil
}

// LoadRuleSet reads and parses a YAML rule set from path.
func LoadRuleSet(path string) (*schema.RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule set %s: %w", path, err)
	}
	return ParseRuleSet(data)
}

// DefaultRuleSet returns the built-in rule set.
func DefaultRuleSet() (*schema.RuleSet, error) {
	data, err := defaultRules.ReadFile("rules/default.yaml")
	if err != nil {
		return nil, fmt.Errorf("read built-in rules: %w", err)
	}
	return ParseRuleSet(data)
}

// RuleOption configures a RuleEngine.
type RuleOption func(*RuleEngine)

// WithCategorizer supplies symptom categories to rule expressions.
func WithCategorizer(c Categorizer) RuleOption {
	return func(e *RuleEngine) { e.categorizer = c }
}

// WithRuleLogger sets the logger used for rule match tracing.
func WithRuleLogger(l *slog.Logger) RuleOption {
	return func(e *RuleEngine) { e.logger = l }
}

// RuleEngine evaluates an ordered rule set against the case facts.
// The highest-priority matching rule wins; equal priorities keep file order.
type RuleEngine struct {
	rules       []schema.Rule
	fallback    *schema.DiagnosisResult
	exprs       *expressions.Set
	categorizer Categorizer
	logger      *slog.Logger
}

// NewRuleEngine validates rs (structure and expressions) and builds an engine over it.
func NewRuleEngine(rs *schema.RuleSet, opts ...RuleOption) (*RuleEngine, error) {
	exprs, err := expressions.NewSet()
	if err != nil {
		return nil, err
	}
	v, err := validation.NewRuleSetValidator(exprs)
	if err != nil {
		return nil, err
	}
	if err := v.ValidateRuleSet(rs); err != nil {
		return nil, err
	}

	rules := make([]schema.Rule, len(rs.Rules))
	copy(rules, rs.Rules)
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].Priority > rules[j].Priority })

	e := &RuleEngine{
		rules:    rules,
		fallback: rs.Fallback.Clone(),
		exprs:    exprs,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Rules returns the rules in evaluation order.
func (e *RuleEngine) Rules() []schema.Rule {
	out := make([]schema.Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// Diagnose returns the result of the first matching rule, the fallback when
// nothing matches, or an ENGINE_FAILED error when there is no fallback.
func (e *RuleEngine) Diagnose(ctx context.Context, in Input) (*schema.DiagnosisResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	facts := Facts(in, e.categorizer).Map()

	for _, rule := range e.rules {
		engine, err := e.exprs.Get(rule.EffectiveLanguage())
		if err != nil {
			return nil, err
		}
		matched, err := expressions.EvaluateBool(ctx, engine, rule.When, facts)
		if err != nil {
			return nil, schema.NewErrorf(schema.ErrCodeEngineFailed, "rule %q: %s", rule.ID, err.Error()).WithCause(err)
		}
		if !matched {
			continue
		}

		result := rule.Result.Clone()
		if rule.Confidence != "" {
			exprEngine, _ := e.exprs.Get(schema.LanguageExpr)
			score, err := expressions.EvaluateNumber(ctx, exprEngine, rule.Confidence, facts)
			if err != nil {
				return nil, schema.NewErrorf(schema.ErrCodeEngineFailed, "rule %q confidence: %s", rule.ID, err.Error()).WithCause(err)
			}
			result.Confidence = clampConfidence(score)
		}

		e.logger.DebugContext(ctx, "diagnosis rule matched",
			slog.String("rule", rule.ID),
			slog.Float64("confidence", result.Confidence),
		)
		return result, nil
	}

	if e.fallback != nil {
		e.logger.DebugContext(ctx, "no diagnosis rule matched, using fallback")
		return e.fallback.Clone(), nil
	}
	return nil, schema.NewError(schema.ErrCodeEngineFailed, "no diagnosis rule matched").
		WithDetails(map[string]any{"animal": string(in.AnimalType), "symptoms": in.Symptoms})
}

func clampConfidence(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return math.Round(v*10) / 10
}

var _ Engine = (*RuleEngine)(nil)
