package wizard

import (
	"context"

	"github.com/rendis/vetassist/pkg/schema"
)

// SetAnimalType records the animal being diagnosed, replacing any previous choice.
func (s *Session) SetAnimalType(t schema.AnimalType) error {
	if !t.Valid() {
		return schema.NewErrorf(schema.ErrCodeInvalidAnimalType, "unknown animal type %q", t).
			WithDetails(map[string]any{"accepted": schema.AnimalTypes()})
	}

	s.mu.Lock()
	s.animalType = t
	s.touchLocked()
	s.emitLocked(context.Background(), schema.EventAnimalSelected, map[string]any{"animal_type": string(t)})
	return nil
}

// ToggleSymptom adds id to the symptom set, or removes it if already present.
func (s *Session) ToggleSymptom(id string) error {
	if id == "" {
		return schema.NewError(schema.ErrCodeInvalidSymptom, "symptom id is empty")
	}
	if s.catalog != nil && !s.catalog.Has(id) {
		return schema.NewErrorf(schema.ErrCodeInvalidSymptom, "unknown symptom %q", id)
	}

	s.mu.Lock()
	_, present := s.symptoms[id]
	if present {
		delete(s.symptoms, id)
	} else {
		s.symptoms[id] = struct{}{}
	}
	s.touchLocked()
	s.emitLocked(context.Background(), schema.EventSymptomToggled, map[string]any{
		"symptom":  id,
		"selected": !present,
	})
	return nil
}

// SetImage attaches an image reference, replacing any previous one.
func (s *Session) SetImage(ref schema.ImageRef) {
	s.mu.Lock()
	s.imageRef = ref
	s.touchLocked()
	s.emitLocked(context.Background(), schema.EventImageSet, map[string]any{"image_ref": string(ref)})
}

// ClearImage removes the image reference.
func (s *Session) ClearImage() {
	s.mu.Lock()
	s.imageRef = ""
	s.touchLocked()
	s.emitLocked(context.Background(), schema.EventImageCleared, nil)
}

// stepSatisfiedLocked reports whether the inputs for step allow leaving it forward.
func (s *Session) stepSatisfiedLocked(step schema.Step) bool {
	switch step {
	case schema.StepAnimalSelection:
		return s.animalType != ""
	case schema.StepSymptomSelection:
		return len(s.symptoms) > 0
	case schema.StepImageUpload:
		return true
	case schema.StepAnalysisResult:
		return s.analysis.Status == schema.AnalysisSucceeded
	default:
		return false
	}
}
