package wizard

import (
	"context"

	"github.com/rendis/vetassist/pkg/schema"
)

// CanAdvance reports whether the current step's inputs allow moving forward.
// It is always false at the last step.
func (s *Session) CanAdvance() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canAdvanceLocked()
}

func (s *Session) canAdvanceLocked() bool {
	if _, ok := nextStep(s.step); !ok {
		return false
	}
	return s.stepSatisfiedLocked(s.step)
}

// Advance moves to the next step. Leaving the image upload step starts the
// analysis and lands on the result step while it runs.
func (s *Session) Advance(ctx context.Context) error {
	s.mu.Lock()

	from := s.step
	to, ok := nextStep(from)
	if !ok {
		s.mu.Unlock()
		return schema.NewError(schema.ErrCodeAtBoundary, "already at the last step").WithStep(from)
	}
	if !s.stepSatisfiedLocked(from) {
		s.mu.Unlock()
		return schema.NewErrorf(schema.ErrCodeGuardRejected, "cannot leave %s: %s", from, guardReason(from)).WithStep(from)
	}

	evs := []pending{}
	if from == schema.StepImageUpload {
		started, err := s.startLocked(ctx)
		if err != nil {
			s.mu.Unlock()
			return err
		}
		evs = append(evs, started)
	}

	s.step = to
	s.touchLocked()
	evs = append(evs, stepChanged(from, to))
	s.emitManyLocked(ctx, evs, &transition{from: from, to: to})
	return nil
}

// Retreat moves to the previous step. Leaving the result step cancels a
// running analysis.
func (s *Session) Retreat() error {
	s.mu.Lock()

	from := s.step
	to, ok := prevStep(from)
	if !ok {
		s.mu.Unlock()
		return schema.NewError(schema.ErrCodeAtBoundary, "already at the first step").WithStep(from)
	}

	s.moveLocked(from, to)
	return nil
}

// GoTo jumps to any step without checking inputs. Leaving the result step
// cancels a running analysis; landing on it never starts one.
func (s *Session) GoTo(step schema.Step) error {
	if !step.Valid() {
		return schema.NewErrorf(schema.ErrCodeInvalidStep, "unknown step %q", step)
	}

	s.mu.Lock()
	s.moveLocked(s.step, step)
	return nil
}

// moveLocked performs an unguarded move. Callers hold mu; it is released on return.
func (s *Session) moveLocked(from, to schema.Step) {
	var evs []pending
	if from == schema.StepAnalysisResult && to != from {
		if cancelled, ok := s.cancelLocked(); ok {
			evs = append(evs, cancelled)
		}
	}
	s.step = to
	s.touchLocked()
	evs = append(evs, stepChanged(from, to))
	s.emitManyLocked(context.Background(), evs, &transition{from: from, to: to})
}

func stepChanged(from, to schema.Step) pending {
	return pending{
		eventType: schema.EventStepChanged,
		payload:   map[string]any{"from": string(from), "to": string(to)},
	}
}

func guardReason(step schema.Step) string {
	switch step {
	case schema.StepAnimalSelection:
		return "no animal type selected"
	case schema.StepSymptomSelection:
		return "no symptoms selected"
	case schema.StepAnalysisResult:
		return "analysis has not succeeded"
	default:
		return "step requirements not met"
	}
}
