package expressions

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/vetassist/pkg/schema"
)

func TestExpr_ConfidenceFormula(t *testing.T) {
	e := NewExprEngine()
	assert.Equal(t, "expr", e.Name())

	score, err := EvaluateNumber(context.Background(), e,
		`min(95, 60 + symptom_count * 8 + (has_image ? 5 : 0))`, respiratoryCat())
	require.NoError(t, err)
	assert.Equal(t, float64(89), score)
}

func TestExpr_Conditions(t *testing.T) {
	e := NewExprEngine()
	data := respiratoryCat()

	tests := []struct {
		name string
		expr string
		want bool
	}{
		{"membership", `"fever" in symptoms`, true},
		{"any builtin", `any(symptoms, # == "sneezing")`, true},
		{"count builtin", `count(categories, # == "skin") == 0`, true},
		{"animal", `animal == "dog"`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := EvaluateBool(context.Background(), e, tt.expr, data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestExpr_CompileError(t *testing.T) {
	e := NewExprEngine()

	_, err := e.Evaluate(context.Background(), `symptom_count +* 2`, respiratoryCat())
	require.Error(t, err)
	var se *schema.Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, schema.ErrCodeValidation, se.Code)
}

func TestExpr_NonNumericScore(t *testing.T) {
	e := NewExprEngine()

	_, err := EvaluateNumber(context.Background(), e, `animal`, respiratoryCat())
	assert.Error(t, err)
}

func TestExpr_CancelledContext(t *testing.T) {
	e := NewExprEngine()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Evaluate(ctx, `1 + 1`, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
