package validation

import "github.com/rendis/vetassist/pkg/schema"

// RuleSetValidator checks a rule set in two stages: JSON Schema structure,
// then semantics (unique IDs, expressions that compile).
type RuleSetValidator struct {
	jsonSchema *JSONSchemaValidator
	checker    ExpressionChecker
}

// NewRuleSetValidator creates a RuleSetValidator.
// checker may be nil to skip expression compilation.
func NewRuleSetValidator(checker ExpressionChecker) (*RuleSetValidator, error) {
	jsv, err := NewJSONSchemaValidator()
	if err != nil {
		return nil, err
	}
	return &RuleSetValidator{jsonSchema: jsv, checker: checker}, nil
}

// Validate runs both stages and returns an aggregated result.
// Structural errors short-circuit the semantic stage.
func (v *RuleSetValidator) Validate(rs *schema.RuleSet) *schema.ValidationResult {
	if rs == nil {
		r := &schema.ValidationResult{}
		r.Errorf("/", schema.ErrCodeValidation, "rule set is nil")
		return r
	}

	result := v.jsonSchema.CheckRuleSet(rs)
	if !result.Valid() {
		return result
	}

	result.Merge(validateSemantic(rs, v.checker))
	return result
}

// ValidateRuleSet satisfies the Validator interface.
func (v *RuleSetValidator) ValidateRuleSet(rs *schema.RuleSet) error {
	return v.Validate(rs).Err()
}

// ValidateResult delegates to the underlying JSONSchemaValidator.
func (v *RuleSetValidator) ValidateResult(result *schema.DiagnosisResult) error {
	return v.jsonSchema.ValidateResult(result)
}

var _ Validator = (*RuleSetValidator)(nil)
