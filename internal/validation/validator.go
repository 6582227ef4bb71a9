package validation

import "github.com/rendis/vetassist/pkg/schema"

// Validator checks diagnosis engine output and rule sets before they are used.
// Uses JSON Schema Draft 2020-12 for structure.
type Validator interface {
	ValidateResult(result *schema.DiagnosisResult) error
	ValidateRuleSet(rs *schema.RuleSet) error
}
