// Package diagnosis defines the pluggable diagnosis engine the analysis runner
// invokes, along with the built-in engines and the wrappers that make them resilient.
package diagnosis

import (
	"context"
	"slices"

	"github.com/rendis/vetassist/internal/expressions"
	"github.com/rendis/vetassist/pkg/schema"
)

// Input is what the wizard hands an engine for one analysis run.
// Symptoms are sorted; ImageRef is empty when no image was supplied.
type Input struct {
	AnimalType schema.AnimalType `json:"animal_type" yaml:"animal_type"`
	Symptoms   []string          `json:"symptoms" yaml:"symptoms"`
	ImageRef   schema.ImageRef   `json:"image_ref,omitempty" yaml:"image_ref,omitempty"`
}

// Engine computes a diagnosis. Implementations must honour ctx cancellation
// where they can; the runner discards late results either way.
type Engine interface {
	Diagnose(ctx context.Context, in Input) (*schema.DiagnosisResult, error)
}

// EngineFunc adapts a plain function to the Engine interface.
type EngineFunc func(ctx context.Context, in Input) (*schema.DiagnosisResult, error)

// Diagnose calls f.
func (f EngineFunc) Diagnose(ctx context.Context, in Input) (*schema.DiagnosisResult, error) {
	return f(ctx, in)
}

// Categorizer maps symptom IDs to their body-system categories.
type Categorizer interface {
	Categories(ids []string) []string
}

// Facts converts an engine input into the variables rule expressions see.
// cat may be nil, in which case categories are empty.
func Facts(in Input, cat Categorizer) expressions.Facts {
	symptoms := slices.Clone(in.Symptoms)
	var categories []string
	if cat != nil {
		categories = cat.Categories(symptoms)
	}
	return expressions.Facts{
		Animal:       string(in.AnimalType),
		Symptoms:     symptoms,
		Categories:   categories,
		HasImage:     in.ImageRef != "",
		SymptomCount: len(symptoms),
	}
}
