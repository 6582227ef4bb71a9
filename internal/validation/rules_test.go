package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/vetassist/internal/expressions"
	"github.com/rendis/vetassist/pkg/schema"
)

type stubChecker struct {
	bad map[string]bool
}

func (c stubChecker) Check(_, expression string) error {
	if c.bad[expression] {
		return errors.New("does not compile")
	}
	return nil
}

func ruleSet(rules ...schema.Rule) *schema.RuleSet {
	return &schema.RuleSet{Version: 1, Rules: rules}
}

func rule(id string, priority int, when string) schema.Rule {
	return schema.Rule{ID: id, Priority: priority, When: when, Result: *validResult()}
}

func TestRuleSetValidator_Valid(t *testing.T) {
	v, err := NewRuleSetValidator(stubChecker{})
	require.NoError(t, err)

	result := v.Validate(ruleSet(rule("a", 10, "true"), rule("b", 5, "false")))
	assert.True(t, result.Valid())
	assert.Empty(t, result.Warnings())
	assert.NoError(t, v.ValidateRuleSet(ruleSet(rule("a", 1, "true"))))
}

func TestRuleSetValidator_Nil(t *testing.T) {
	v, err := NewRuleSetValidator(nil)
	require.NoError(t, err)

	result := v.Validate(nil)
	require.Len(t, result.Errors(), 1)
	assert.Contains(t, result.Errors()[0].Message, "nil")
}

func TestRuleSetValidator_StructuralShortCircuits(t *testing.T) {
	v, err := NewRuleSetValidator(stubChecker{bad: map[string]bool{"boom": true}})
	require.NoError(t, err)

	rs := ruleSet(rule("a", 1, "boom"))
	rs.Version = 0
	result := v.Validate(rs)
	require.False(t, result.Valid())
	require.Len(t, result.Errors(), 1)
	assert.Equal(t, "/version", result.Errors()[0].Path)
	assert.Equal(t, CodeSchemaViolation, result.Errors()[0].Code)
}

func TestRuleSetValidator_DuplicateIDs(t *testing.T) {
	v, err := NewRuleSetValidator(nil)
	require.NoError(t, err)

	result := v.Validate(ruleSet(rule("a", 1, "true"), rule("a", 2, "true")))
	require.Len(t, result.Errors(), 1)
	assert.Equal(t, "rules[1].id", result.Errors()[0].Path)
	assert.Contains(t, result.Errors()[0].Message, "rules[0]")
}

func TestRuleSetValidator_PriorityTieWarns(t *testing.T) {
	v, err := NewRuleSetValidator(nil)
	require.NoError(t, err)

	result := v.Validate(ruleSet(rule("a", 3, "true"), rule("b", 3, "true")))
	assert.True(t, result.Valid())
	require.Len(t, result.Warnings(), 1)
	assert.Equal(t, "rules[1].priority", result.Warnings()[0].Path)
}

func TestRuleSetValidator_ExpressionErrors(t *testing.T) {
	set, err := expressions.NewSet()
	require.NoError(t, err)
	v, err := NewRuleSetValidator(set)
	require.NoError(t, err)

	bad := rule("cel-bad", 1, `"fever" in`)
	jq := rule("jq-ok", 2, `.has_image`)
	jq.Language = schema.LanguageJQ
	formula := rule("formula-bad", 3, `symptom_count > 0`)
	formula.Confidence = `symptom_count +* 3`

	result := v.Validate(ruleSet(bad, jq, formula))
	require.Len(t, result.Errors(), 2)
	assert.Equal(t, "rules[0].when", result.Errors()[0].Path)
	assert.Equal(t, schema.ErrCodeExpression, result.Errors()[0].Code)
	assert.Equal(t, "rules[2].confidence", result.Errors()[1].Path)

	err = v.ValidateRuleSet(ruleSet(bad, jq, formula))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 validation errors")
}

func TestRuleSetValidator_ValidateResultDelegates(t *testing.T) {
	v, err := NewRuleSetValidator(nil)
	require.NoError(t, err)

	assert.NoError(t, v.ValidateResult(validResult()))
	assert.Error(t, v.ValidateResult(&schema.DiagnosisResult{}))
}
