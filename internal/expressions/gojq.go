package expressions

import (
	"context"

	"github.com/itchyny/gojq"
)

const langJQ = "jq"

// GoJQEngine runs jq programs. It backs jq rule conditions and the catalog
// query surface. $ENV is empty inside programs.
type GoJQEngine struct {
	programs *programCache[*gojq.Code]
}

func NewGoJQEngine() *GoJQEngine {
	return &GoJQEngine{programs: newProgramCache[*gojq.Code]()}
}

func (e *GoJQEngine) Name() string { return langJQ }

// Evaluate runs expression with data as the input document.
// One output is returned as is; several are collected into []any; none is nil.
func (e *GoJQEngine) Evaluate(ctx context.Context, expression string, data map[string]any) (any, error) {
	return e.Query(ctx, expression, data)
}

// Query runs expression over any JSON-shaped input, e.g. a decoded array.
func (e *GoJQEngine) Query(ctx context.Context, expression string, input any) (any, error) {
	if expression == "" {
		return nil, emptyError(langJQ)
	}
	code, err := e.programs.get(expression, compileJQ)
	if err != nil {
		return nil, err
	}

	iter := code.RunWithContext(ctx, toJQ(input))
	var results []any
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			return nil, evalError(langJQ, expression, err)
		}
		results = append(results, v)
	}

	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		return results[0], nil
	default:
		return results, nil
	}
}

// Compile checks that expression parses and compiles.
func (e *GoJQEngine) Compile(expression string) error {
	_, err := e.programs.get(expression, compileJQ)
	return err
}

func compileJQ(expression string) (*gojq.Code, error) {
	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, compileError(langJQ, expression, err)
	}
	code, err := gojq.Compile(query, gojq.WithEnvironLoader(func() []string { return nil }))
	if err != nil {
		return nil, compileError(langJQ, expression, err)
	}
	return code, nil
}

// toJQ rewrites Go values into the shapes gojq accepts: []any for slices,
// int or float64 for numbers.
func toJQ(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, x := range val {
			out[k] = toJQ(x)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, x := range val {
			out[i] = toJQ(x)
		}
		return out
	case []string:
		out := make([]any, len(val))
		for i, s := range val {
			out[i] = s
		}
		return out
	case []map[string]any:
		out := make([]any, len(val))
		for i, m := range val {
			out[i] = toJQ(m)
		}
		return out
	case int64:
		return int(val)
	case int32:
		return int(val)
	case uint64:
		return float64(val)
	case float32:
		return float64(val)
	default:
		return v
	}
}

var _ Engine = (*GoJQEngine)(nil)
