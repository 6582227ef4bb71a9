package wizard

import "github.com/rendis/vetassist/pkg/schema"

// nextStep returns the step after s, or false at the end of the sequence.
func nextStep(s schema.Step) (schema.Step, bool) {
	steps := schema.Steps()
	i := s.Index()
	if i < 0 || i+1 >= len(steps) {
		return "", false
	}
	return steps[i+1], true
}

// prevStep returns the step before s, or false at the start of the sequence.
func prevStep(s schema.Step) (schema.Step, bool) {
	steps := schema.Steps()
	i := s.Index()
	if i <= 0 {
		return "", false
	}
	return steps[i-1], true
}
