// Package treatment turns a diagnosis into the medication and home-care
// suggestions shown at the last wizard step.
package treatment

import (
	"slices"

	"github.com/rendis/vetassist/pkg/schema"
)

// Disclaimer accompanies every plan.
const Disclaimer = "Suggestions only. Always consult a veterinarian before giving any medication."

// Protocol is the set of medications and care steps suggested for a disease.
type Protocol struct {
	Medications []schema.Medication `json:"medications" yaml:"medications"`
	CareSteps   []schema.CareStep   `json:"care_steps" yaml:"care_steps"`
}

// Planner maps diagnoses to treatment plans. Diseases without a registered
// protocol get the general protocol.
type Planner struct {
	general   Protocol
	protocols map[string]Protocol
}

// Option configures a Planner.
type Option func(*Planner)

// WithProtocol registers a protocol for a disease name as reported by the engine.
func WithProtocol(disease string, p Protocol) Option {
	return func(pl *Planner) { pl.protocols[disease] = p }
}

// NewPlanner builds a planner whose general protocol is the built-in one.
func NewPlanner(opts ...Option) *Planner {
	p := &Planner{
		general:   DefaultProtocol(),
		protocols: make(map[string]Protocol),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Plan builds the treatment plan for result. A nil result yields NOT_FOUND.
func (p *Planner) Plan(result *schema.DiagnosisResult) (*schema.TreatmentPlan, error) {
	if result == nil {
		return nil, schema.NewError(schema.ErrCodeNotFound, "no diagnosis result to plan treatment for")
	}

	proto, ok := p.protocols[result.Disease]
	if !ok {
		proto = p.general
	}

	plan := &schema.TreatmentPlan{
		Disease:     result.Disease,
		Urgency:     result.Urgency,
		Emergency:   result.Urgency == schema.UrgencyHigh || result.Urgency == schema.UrgencyEmergency,
		Medications: cloneMedications(proto.Medications),
		CareSteps:   slices.Clone(proto.CareSteps),
		FollowUp:    followUp(result.Urgency),
		Disclaimer:  Disclaimer,
	}
	for _, m := range plan.Medications {
		plan.TotalPrice += m.Price
	}
	return plan, nil
}

func followUp(u schema.Urgency) string {
	switch u {
	case schema.UrgencyEmergency:
		return "Go to an emergency veterinary clinic now."
	case schema.UrgencyHigh:
		return "See a veterinarian within 24 hours."
	case schema.UrgencyMedium:
		return "Book a check-up within 7 days, sooner if signs worsen."
	default:
		return "Book a check-up if signs persist beyond 5 days."
	}
}

func cloneMedications(in []schema.Medication) []schema.Medication {
	out := make([]schema.Medication, len(in))
	for i, m := range in {
		m.SideEffects = slices.Clone(m.SideEffects)
		out[i] = m
	}
	return out
}
