package treatment

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/vetassist/pkg/schema"
)

func uri() *schema.DiagnosisResult {
	return &schema.DiagnosisResult{
		Disease:    "Upper respiratory infection (URI)",
		Confidence: 94,
		Urgency:    schema.UrgencyMedium,
	}
}

func TestPlan_GeneralProtocol(t *testing.T) {
	p := NewPlanner()

	plan, err := p.Plan(uri())
	require.NoError(t, err)

	assert.Equal(t, "Upper respiratory infection (URI)", plan.Disease)
	assert.False(t, plan.Emergency)
	require.Len(t, plan.Medications, 3)
	assert.Equal(t, []string{"med1", "med2", "med3"}, []string{plan.Medications[0].ID, plan.Medications[1].ID, plan.Medications[2].ID})
	assert.Len(t, plan.CareSteps, 5)
	assert.Equal(t, int64(85000+120000+45000), plan.TotalPrice)
	assert.Equal(t, Disclaimer, plan.Disclaimer)
	assert.Contains(t, plan.FollowUp, "7 days")
}

func TestPlan_EmergencyFlag(t *testing.T) {
	p := NewPlanner()

	for _, tt := range []struct {
		urgency   schema.Urgency
		emergency bool
	}{
		{schema.UrgencyLow, false},
		{schema.UrgencyMedium, false},
		{schema.UrgencyHigh, true},
		{schema.UrgencyEmergency, true},
	} {
		t.Run(string(tt.urgency), func(t *testing.T) {
			r := uri()
			r.Urgency = tt.urgency
			plan, err := p.Plan(r)
			require.NoError(t, err)
			assert.Equal(t, tt.emergency, plan.Emergency)
			assert.NotEmpty(t, plan.FollowUp)
		})
	}
}

func TestPlan_DiseaseProtocol(t *testing.T) {
	derm := Protocol{
		Medications: []schema.Medication{{ID: "shampoo", Name: "Chlorhexidine shampoo", Form: schema.FormSyrup, Price: 30000}},
		CareSteps:   []schema.CareStep{{ID: "c1", Title: "Bathe twice weekly"}},
	}
	p := NewPlanner(WithProtocol("Dermatitis", derm))

	plan, err := p.Plan(&schema.DiagnosisResult{Disease: "Dermatitis", Urgency: schema.UrgencyLow})
	require.NoError(t, err)
	if diff := cmp.Diff(derm.Medications, plan.Medications); diff != "" {
		t.Errorf("medications mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, int64(30000), plan.TotalPrice)
}

func TestPlan_IsolatedFromProtocol(t *testing.T) {
	p := NewPlanner()

	plan, err := p.Plan(uri())
	require.NoError(t, err)
	plan.Medications[0].SideEffects[0] = "changed"
	plan.CareSteps[0].Title = "changed"

	again, err := p.Plan(uri())
	require.NoError(t, err)
	assert.Equal(t, "Mild nausea", again.Medications[0].SideEffects[0])
	assert.Equal(t, "Complete rest", again.CareSteps[0].Title)
}

func TestPlan_NilResult(t *testing.T) {
	_, err := NewPlanner().Plan(nil)
	assert.True(t, errors.Is(err, schema.ErrNotFound))
}
