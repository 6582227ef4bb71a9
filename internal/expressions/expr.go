package expressions

import (
	"context"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

const langExpr = "expr"

// ExprEngine evaluates expr-lang expressions. Rule files use it for
// conditions and for confidence formulas such as
// `min(95, 60 + symptom_count * 8 + (has_image ? 5 : 0))`.
type ExprEngine struct {
	programs *programCache[*vm.Program]
}

func NewExprEngine() *ExprEngine {
	return &ExprEngine{programs: newProgramCache[*vm.Program]()}
}

func (e *ExprEngine) Name() string { return langExpr }

// Evaluate runs expression with data as its environment. Programs are
// compiled against the case facts, so data should carry the same keys.
func (e *ExprEngine) Evaluate(ctx context.Context, expression string, data map[string]any) (any, error) {
	if expression == "" {
		return nil, emptyError(langExpr)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prg, err := e.programs.get(expression, compileExpr)
	if err != nil {
		return nil, err
	}

	env := Facts{}.Map()
	for k, v := range data {
		env[k] = v
	}
	out, err := vm.Run(prg, env)
	if err != nil {
		return nil, evalError(langExpr, expression, err)
	}
	return out, nil
}

// Compile checks expression against the case facts environment.
func (e *ExprEngine) Compile(expression string) error {
	_, err := e.programs.get(expression, compileExpr)
	return err
}

func compileExpr(expression string) (*vm.Program, error) {
	prg, err := expr.Compile(expression, expr.Env(Facts{}.Map()), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, compileError(langExpr, expression, err)
	}
	return prg, nil
}

var _ Engine = (*ExprEngine)(nil)
