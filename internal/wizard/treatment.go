package wizard

import "github.com/rendis/vetassist/pkg/schema"

// Planner builds a treatment plan from a diagnosis result.
type Planner interface {
	Plan(result *schema.DiagnosisResult) (*schema.TreatmentPlan, error)
}

// TreatmentPlan returns the plan for the current result. It is only available
// at the treatment step.
func (s *Session) TreatmentPlan(p Planner) (*schema.TreatmentPlan, error) {
	s.mu.Lock()
	step := s.step
	result := s.result.Clone()
	s.mu.Unlock()

	if step != schema.StepTreatmentPlan {
		return nil, schema.NewErrorf(schema.ErrCodeGuardRejected, "treatment plan is only available at %s", schema.StepTreatmentPlan).WithStep(step)
	}
	if result == nil {
		return nil, schema.NewError(schema.ErrCodeNotFound, "no diagnosis result available").WithStep(step)
	}
	return p.Plan(result)
}
