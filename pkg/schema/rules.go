package schema

// Expression languages accepted in rule conditions.
const (
	LanguageCEL  = "cel"
	LanguageExpr = "expr"
	LanguageJQ   = "jq"
)

// RuleSet is the on-disk definition consumed by the rule-based diagnosis engine.
type RuleSet struct {
	Version  int              `json:"version" yaml:"version"`
	Rules    []Rule           `json:"rules" yaml:"rules"`
	Fallback *DiagnosisResult `json:"fallback,omitempty" yaml:"fallback,omitempty"`
}

// Rule maps a condition over case facts to a diagnosis.
// When Confidence is set it is an Expr formula that overrides Result.Confidence.
type Rule struct {
	ID         string          `json:"id" yaml:"id"`
	Priority   int             `json:"priority,omitempty" yaml:"priority,omitempty"`
	Language   string          `json:"language,omitempty" yaml:"language,omitempty"`
	When       string          `json:"when" yaml:"when"`
	Confidence string          `json:"confidence,omitempty" yaml:"confidence,omitempty"`
	Result     DiagnosisResult `json:"result" yaml:"result"`
}

// EffectiveLanguage returns the rule language, defaulting to CEL.
func (r Rule) EffectiveLanguage() string {
	if r.Language == "" {
		return LanguageCEL
	}
	return r.Language
}
