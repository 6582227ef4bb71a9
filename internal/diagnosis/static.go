package diagnosis

import (
	"context"

	"github.com/rendis/vetassist/pkg/schema"
)

// StaticEngine returns the same result for every input.
type StaticEngine struct {
	Result schema.DiagnosisResult
}

// NewStaticEngine returns an engine that always reports an upper respiratory infection.
func NewStaticEngine() *StaticEngine {
	return &StaticEngine{Result: schema.DiagnosisResult{
		Disease:     "Upper respiratory infection (URI)",
		Confidence:  94,
		Description: "A viral or bacterial infection affecting the upper respiratory tract.",
		Urgency:     schema.UrgencyMedium,
		RecommendedActions: []string{
			"Keep the animal resting in a calm, warm place",
			"Provide constant access to fresh water",
			"Isolate from other animals",
		},
	}}
}

// Diagnose returns a copy of the configured result.
func (e *StaticEngine) Diagnose(ctx context.Context, _ Input) (*schema.DiagnosisResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.Result.Clone(), nil
}

var _ Engine = (*StaticEngine)(nil)
