package expressions

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"
)

const langCEL = "cel"

// CELEngine evaluates Common Expression Language conditions over case facts.
// Programs are type-checked against the declared facts, so a condition like
// `symptom_count > "2"` fails at rule load rather than at diagnosis time.
type CELEngine struct {
	env      *cel.Env
	programs *programCache[cel.Program]
}

// NewCELEngine declares the case facts:
//   - animal:        string
//   - symptoms:      list(string)
//   - categories:    list(string)
//   - has_image:     bool
//   - symptom_count: int
func NewCELEngine() (*CELEngine, error) {
	stringList := cel.ListType(cel.StringType)
	env, err := cel.NewEnv(
		cel.Variable("animal", cel.StringType),
		cel.Variable("symptoms", stringList),
		cel.Variable("categories", stringList),
		cel.Variable("has_image", cel.BoolType),
		cel.Variable("symptom_count", cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}
	return &CELEngine{env: env, programs: newProgramCache[cel.Program]()}, nil
}

func (e *CELEngine) Name() string { return langCEL }

// Evaluate runs expression against data. Facts missing from data take their
// zero value.
func (e *CELEngine) Evaluate(ctx context.Context, expression string, data map[string]any) (any, error) {
	if expression == "" {
		return nil, emptyError(langCEL)
	}
	prg, err := e.programs.get(expression, e.compile)
	if err != nil {
		return nil, err
	}

	out, _, err := prg.ContextEval(ctx, activation(data))
	if err != nil {
		return nil, evalError(langCEL, expression, err)
	}
	return out.Value(), nil
}

// Compile type-checks expression without evaluating it.
func (e *CELEngine) Compile(expression string) error {
	_, err := e.programs.get(expression, e.compile)
	return err
}

func (e *CELEngine) compile(expression string) (cel.Program, error) {
	ast, issues := e.env.Compile(expression)
	if err := issues.Err(); err != nil {
		return nil, compileError(langCEL, expression, err)
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, compileError(langCEL, expression, err)
	}
	return prg, nil
}

// activation fills every declared fact so CEL never reports an undeclared
// variable at runtime. Unknown keys in data are dropped.
func activation(data map[string]any) map[string]any {
	vars := Facts{}.Map()
	for k, v := range data {
		if _, declared := vars[k]; declared && v != nil {
			vars[k] = v
		}
	}
	return vars
}

var _ Engine = (*CELEngine)(nil)
