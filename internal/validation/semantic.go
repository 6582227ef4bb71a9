package validation

import (
	"fmt"

	"github.com/rendis/vetassist/pkg/schema"
)

// ExpressionChecker compiles an expression in a named language without running it.
type ExpressionChecker interface {
	Check(language, expression string) error
}

// validateSemantic checks what the rule-set schema cannot express:
// unique rule IDs, compilable conditions and confidence formulas, and
// priority ties that leave file order to decide.
func validateSemantic(rs *schema.RuleSet, checker ExpressionChecker) *schema.ValidationResult {
	result := &schema.ValidationResult{}

	seen := make(map[string]int, len(rs.Rules))
	byPriority := make(map[int]string, len(rs.Rules))

	for i, rule := range rs.Rules {
		path := fmt.Sprintf("rules[%d]", i)

		if prev, dup := seen[rule.ID]; dup {
			result.Errorf(path+".id", schema.ErrCodeValidation,
				"duplicate rule id %q (first defined at rules[%d])", rule.ID, prev)
		} else {
			seen[rule.ID] = i
		}

		if other, tie := byPriority[rule.Priority]; tie {
			result.Warnf(path+".priority", schema.ErrCodeValidation,
				"rule %q shares priority %d with %q; file order decides", rule.ID, rule.Priority, other)
		} else {
			byPriority[rule.Priority] = rule.ID
		}

		if checker == nil {
			continue
		}
		if err := checker.Check(rule.EffectiveLanguage(), rule.When); err != nil {
			result.Errorf(path+".when", schema.ErrCodeExpression, "%s", err)
		}
		if rule.Confidence != "" {
			if err := checker.Check(schema.LanguageExpr, rule.Confidence); err != nil {
				result.Errorf(path+".confidence", schema.ErrCodeExpression, "%s", err)
			}
		}
	}

	return result
}
