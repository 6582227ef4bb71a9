package diagnosis

import (
	"context"

	"github.com/rendis/vetassist/pkg/schema"
)

// ResultValidator checks a result before it reaches the session.
type ResultValidator interface {
	ValidateResult(result *schema.DiagnosisResult) error
}

// Validating wraps an engine so that malformed results become failures.
type Validating struct {
	inner     Engine
	validator ResultValidator
}

// NewValidating wraps inner with v.
func NewValidating(inner Engine, v ResultValidator) *Validating {
	return &Validating{inner: inner, validator: v}
}

// Diagnose runs the wrapped engine and validates what it returns.
// A nil result with a nil error is treated as invalid.
func (e *Validating) Diagnose(ctx context.Context, in Input) (*schema.DiagnosisResult, error) {
	result, err := e.inner.Diagnose(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := e.validator.ValidateResult(result); err != nil {
		return nil, schema.NewError(schema.ErrCodeValidation, "engine returned an invalid result: "+err.Error()).WithCause(err)
	}
	return result, nil
}

var _ Engine = (*Validating)(nil)
