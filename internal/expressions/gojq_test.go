package expressions

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/vetassist/pkg/schema"
)

func TestGoJQ_Conditions(t *testing.T) {
	e := NewGoJQEngine()
	assert.Equal(t, "jq", e.Name())
	data := respiratoryCat()

	out, err := EvaluateBool(context.Background(), e, `.symptoms | index("fever") != null`, data)
	require.NoError(t, err)
	assert.True(t, out)

	out, err = EvaluateBool(context.Background(), e, `.symptom_count >= 3 and .has_image`, data)
	require.NoError(t, err)
	assert.True(t, out)
}

func TestGoJQ_SortedSymptoms(t *testing.T) {
	e := NewGoJQEngine()

	out, err := e.Evaluate(context.Background(), `.symptoms`, respiratoryCat())
	require.NoError(t, err)
	assert.Equal(t, []any{"fever", "nasal_discharge", "sneezing"}, out)
}

func TestGoJQ_MultipleOutputs(t *testing.T) {
	e := NewGoJQEngine()

	out, err := e.Evaluate(context.Background(), `.categories[]`, respiratoryCat())
	require.NoError(t, err)
	assert.Equal(t, []any{"general", "respiratory"}, out)
}

func TestGoJQ_QueryArray(t *testing.T) {
	e := NewGoJQEngine()
	input := []map[string]any{
		{"id": "fever", "category": "general"},
		{"id": "cough", "category": "respiratory"},
	}

	out, err := e.Query(context.Background(), `[.[] | select(.category == "respiratory") | .id]`, input)
	require.NoError(t, err)
	assert.Equal(t, []any{"cough"}, out)
}

func TestGoJQ_Errors(t *testing.T) {
	e := NewGoJQEngine()

	_, err := e.Evaluate(context.Background(), `.symptoms[`, nil)
	var se *schema.Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, schema.ErrCodeValidation, se.Code)

	_, err = e.Evaluate(context.Background(), `error("boom")`, map[string]any{})
	require.True(t, errors.As(err, &se))
	assert.Equal(t, schema.ErrCodeExpression, se.Code)

	out, err := e.Evaluate(context.Background(), `$ENV | length`, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, 0, out)
}

func TestSet_Languages(t *testing.T) {
	s, err := NewSet()
	require.NoError(t, err)
	assert.Equal(t, []string{"cel", "expr", "jq"}, s.Languages())

	e, err := s.Get("jq")
	require.NoError(t, err)
	assert.Equal(t, "jq", e.Name())

	_, err = s.Get("lua")
	assert.Error(t, err)
}

func TestFacts_MapDefaults(t *testing.T) {
	m := Facts{}.Map()
	assert.Equal(t, []string{}, m["symptoms"])
	assert.Equal(t, int64(0), m["symptom_count"])
	assert.Equal(t, false, m["has_image"])
}

func TestSet_Check(t *testing.T) {
	s, err := NewSet()
	require.NoError(t, err)

	assert.NoError(t, s.Check("cel", `"fever" in symptoms`))
	assert.NoError(t, s.Check("expr", `symptom_count * 10`))
	assert.NoError(t, s.Check("jq", `.has_image`))
	assert.Error(t, s.Check("cel", `symptoms in in`))
	assert.Error(t, s.Check("jq", `.[`))
	assert.Error(t, s.Check("cel", ""))
	assert.Error(t, s.Check("python", "True"))
}
