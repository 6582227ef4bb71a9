package expressions

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/vetassist/pkg/schema"
)

func respiratoryCat() map[string]any {
	return Facts{
		Animal:       "cat",
		Symptoms:     []string{"sneezing", "nasal_discharge", "fever"},
		Categories:   []string{"respiratory", "general"},
		HasImage:     true,
		SymptomCount: 3,
	}.Map()
}

func TestNewCELEngine(t *testing.T) {
	e, err := NewCELEngine()
	require.NoError(t, err)
	assert.Equal(t, "cel", e.Name())
}

func TestCEL_RuleConditions(t *testing.T) {
	e, err := NewCELEngine()
	require.NoError(t, err)
	data := respiratoryCat()

	tests := []struct {
		name string
		expr string
		want bool
	}{
		{"animal match", `animal == "cat"`, true},
		{"animal mismatch", `animal == "dog"`, false},
		{"symptom membership", `"sneezing" in symptoms`, true},
		{"exists over list", `symptoms.exists(s, s == "fever")`, true},
		{"category and count", `"respiratory" in categories && symptom_count >= 2`, true},
		{"image flag", `has_image`, true},
		{"negated", `!("vomiting" in symptoms)`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := EvaluateBool(context.Background(), e, tt.expr, data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestCEL_MissingFactsDefaultToZero(t *testing.T) {
	e, err := NewCELEngine()
	require.NoError(t, err)

	out, err := EvaluateBool(context.Background(), e, `size(symptoms) == 0 && animal == ""`, nil)
	require.NoError(t, err)
	assert.True(t, out)
}

func TestCEL_CompileError(t *testing.T) {
	e, err := NewCELEngine()
	require.NoError(t, err)

	_, err = e.Evaluate(context.Background(), `animal ==`, nil)
	require.Error(t, err)
	var se *schema.Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, schema.ErrCodeValidation, se.Code)

	assert.Error(t, e.Compile(`undeclared_var > 1`))
	assert.NoError(t, e.Compile(`symptom_count > 1`))
}

func TestCEL_EmptyExpression(t *testing.T) {
	e, err := NewCELEngine()
	require.NoError(t, err)

	_, err = e.Evaluate(context.Background(), "", nil)
	assert.Error(t, err)
}

func TestCEL_NonBoolCondition(t *testing.T) {
	e, err := NewCELEngine()
	require.NoError(t, err)

	_, err = EvaluateBool(context.Background(), e, `symptom_count + 1`, respiratoryCat())
	require.Error(t, err)
	var se *schema.Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, schema.ErrCodeExpression, se.Code)
}

func TestCEL_ConcurrentCache(t *testing.T) {
	e, err := NewCELEngine()
	require.NoError(t, err)
	data := respiratoryCat()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := EvaluateBool(context.Background(), e, `"fever" in symptoms`, data)
			assert.NoError(t, err)
			assert.True(t, out)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, e.programs.len())
}
