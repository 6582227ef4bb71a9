package wizard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/vetassist/pkg/schema"
)

func TestNewSession_InitialState(t *testing.T) {
	s := newTestSession(t, &fixedEngine{result: uriResult()})

	snap := s.Snapshot()
	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, schema.StepAnimalSelection, snap.Step)
	assert.Empty(t, snap.AnimalType)
	assert.Empty(t, snap.Symptoms)
	assert.Empty(t, snap.ImageRef)
	assert.Equal(t, schema.AnalysisIdle, snap.Analysis.Status)
	assert.Equal(t, schema.OutcomeNone, snap.Analysis.Outcome)
	assert.Nil(t, snap.Result)
	assert.False(t, snap.CanAdvance)
}

func TestAdvance_AnimalSelectionGuard(t *testing.T) {
	s := newTestSession(t, &fixedEngine{result: uriResult()})

	err := s.Advance(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, schema.ErrGuardRejected))
	assert.Equal(t, schema.StepAnimalSelection, s.Snapshot().Step)

	require.NoError(t, s.SetAnimalType(schema.AnimalCat))
	assert.True(t, s.CanAdvance())
	require.NoError(t, s.Advance(context.Background()))
	assert.Equal(t, schema.StepSymptomSelection, s.Snapshot().Step)
}

func TestAdvance_SymptomSelectionGuard(t *testing.T) {
	s := newTestSession(t, &fixedEngine{result: uriResult()})
	require.NoError(t, s.SetAnimalType(schema.AnimalDog))
	require.NoError(t, s.Advance(context.Background()))

	err := s.Advance(context.Background())
	assert.True(t, errors.Is(err, schema.ErrGuardRejected))
	var se *schema.Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, schema.StepSymptomSelection, se.Step)

	require.NoError(t, s.ToggleSymptom("fever"))
	require.NoError(t, s.ToggleSymptom("fever"))
	assert.True(t, errors.Is(s.Advance(context.Background()), schema.ErrGuardRejected), "toggled off again")

	require.NoError(t, s.ToggleSymptom("fever"))
	require.NoError(t, s.Advance(context.Background()))
	assert.Equal(t, schema.StepImageUpload, s.Snapshot().Step)
}

func TestAdvance_ImageUploadIsOptional(t *testing.T) {
	s := newTestSession(t, &fixedEngine{result: uriResult()})
	atImageUpload(t, s)

	assert.True(t, s.CanAdvance())
	require.NoError(t, s.Advance(context.Background()))

	snap := s.Snapshot()
	assert.Equal(t, schema.StepAnalysisResult, snap.Step, "result step is entered while running")
	waitTerminal(t, s)
}

func TestAdvance_AnalysisResultRequiresSuccess(t *testing.T) {
	engine := newGatedEngine(uriResult(), nil)
	s := newTestSession(t, engine)
	t.Cleanup(engine.open)
	atImageUpload(t, s)
	require.NoError(t, s.Advance(context.Background()))

	assert.False(t, s.CanAdvance())
	assert.True(t, errors.Is(s.Advance(context.Background()), schema.ErrGuardRejected))

	engine.open()
	assert.Equal(t, schema.AnalysisSucceeded, waitTerminal(t, s).Status)

	assert.True(t, s.CanAdvance())
	require.NoError(t, s.Advance(context.Background()))
	assert.Equal(t, schema.StepTreatmentPlan, s.Snapshot().Step)
}

func TestAdvance_AtTreatmentPlanFailsAtBoundary(t *testing.T) {
	s := newTestSession(t, &fixedEngine{result: uriResult()})
	require.NoError(t, s.GoTo(schema.StepTreatmentPlan))

	assert.False(t, s.CanAdvance())
	err := s.Advance(context.Background())
	assert.True(t, errors.Is(err, schema.ErrAtBoundary))
	assert.Equal(t, schema.StepTreatmentPlan, s.Snapshot().Step)
}

func TestRetreat(t *testing.T) {
	s := newTestSession(t, &fixedEngine{result: uriResult()})

	before := s.Snapshot()
	err := s.Retreat()
	assert.True(t, errors.Is(err, schema.ErrAtBoundary))
	after := s.Snapshot()
	assert.Equal(t, before.Step, after.Step)
	assert.Equal(t, before.Analysis, after.Analysis)

	atImageUpload(t, s)
	require.NoError(t, s.Retreat())
	assert.Equal(t, schema.StepSymptomSelection, s.Snapshot().Step)
	assert.Equal(t, []string{"cough", "fever"}, s.Snapshot().Symptoms, "inputs survive navigation")
}

func TestGoTo(t *testing.T) {
	s := newTestSession(t, &fixedEngine{result: uriResult()})

	require.NoError(t, s.GoTo(schema.StepImageUpload), "jumping past unvalidated steps is allowed")
	assert.Equal(t, schema.StepImageUpload, s.Snapshot().Step)

	require.NoError(t, s.GoTo(schema.StepAnalysisResult))
	assert.Equal(t, schema.AnalysisIdle, s.Analysis().Status, "landing on the result step does not start a run")

	err := s.GoTo("diagnosis")
	assert.True(t, errors.Is(err, schema.ErrInvalidStep))
	assert.Equal(t, schema.StepAnalysisResult, s.Snapshot().Step)
}

func TestCurrentStepAlwaysValid(t *testing.T) {
	s := newTestSession(t, &fixedEngine{result: uriResult()})
	ctx := context.Background()

	ops := []func(){
		func() { _ = s.Advance(ctx) },
		func() { _ = s.Retreat() },
		func() { _ = s.SetAnimalType(schema.AnimalBird) },
		func() { _ = s.ToggleSymptom("cough") },
		func() { _ = s.GoTo(schema.StepTreatmentPlan) },
		func() { _ = s.GoTo("bogus") },
		func() { _ = s.Advance(ctx) },
		func() { _ = s.Retreat() },
		func() { _ = s.Retreat() },
		func() { s.Reset() },
		func() { _ = s.SetAnimalType("dragon") },
		func() { _ = s.Retreat() },
	}
	for i := 0; i < 5; i++ {
		for _, op := range ops {
			op()
			assert.True(t, s.Snapshot().Step.Valid())
		}
	}
	s.CancelAnalysis()
	_, _ = s.WaitAnalysis(ctx)
}

func TestOnTransitionHooks(t *testing.T) {
	s := newTestSession(t, &fixedEngine{result: uriResult()})

	var seen [][2]schema.Step
	s.OnTransition(func(from, to schema.Step) {
		seen = append(seen, [2]schema.Step{from, to})
	})

	require.NoError(t, s.SetAnimalType(schema.AnimalRabbit))
	require.NoError(t, s.Advance(context.Background()))
	require.NoError(t, s.Retreat())
	require.NoError(t, s.GoTo(schema.StepImageUpload))
	_ = s.Retreat()

	assert.Equal(t, [][2]schema.Step{
		{schema.StepAnimalSelection, schema.StepSymptomSelection},
		{schema.StepSymptomSelection, schema.StepAnimalSelection},
		{schema.StepAnimalSelection, schema.StepImageUpload},
		{schema.StepImageUpload, schema.StepSymptomSelection},
	}, seen)
}

func TestReset(t *testing.T) {
	events := &eventLog{}
	s := newTestSession(t, &fixedEngine{result: uriResult()}, WithObserver(events.observe))
	atImageUpload(t, s)
	s.SetImage("img:1")
	require.NoError(t, s.Advance(context.Background()))
	waitTerminal(t, s)

	s.Reset()

	snap := s.Snapshot()
	assert.Equal(t, schema.StepAnimalSelection, snap.Step)
	assert.Empty(t, snap.AnimalType)
	assert.Empty(t, snap.Symptoms)
	assert.Empty(t, snap.ImageRef)
	assert.Nil(t, snap.Result)
	assert.Equal(t, schema.AnalysisIdle, snap.Analysis.Status)
	assert.Equal(t, schema.OutcomeNone, snap.Analysis.Outcome)
	assert.Contains(t, events.types(), schema.EventSessionReset)
}
