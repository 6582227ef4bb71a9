package wizard

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rendis/vetassist/internal/diagnosis"
	"github.com/rendis/vetassist/internal/streaming"
	"github.com/rendis/vetassist/pkg/schema"
)

func uriResult() *schema.DiagnosisResult {
	return &schema.DiagnosisResult{
		Disease:     "URI",
		Confidence:  94,
		Description: "Upper respiratory infection",
		Urgency:     schema.UrgencyMedium,
	}
}

// fixedEngine returns a copy of result and records the inputs it saw.
type fixedEngine struct {
	mu     sync.Mutex
	result *schema.DiagnosisResult
	inputs []diagnosis.Input
}

func (e *fixedEngine) Diagnose(_ context.Context, in diagnosis.Input) (*schema.DiagnosisResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.inputs = append(e.inputs, in)
	return e.result.Clone(), nil
}

func (e *fixedEngine) calls() []diagnosis.Input {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]diagnosis.Input(nil), e.inputs...)
}

// gatedEngine blocks until released, ignoring cancellation, then returns its result.
// entered is closed when Diagnose is first called.
type gatedEngine struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
	opened  sync.Once
	result  *schema.DiagnosisResult
	err     error
}

func newGatedEngine(result *schema.DiagnosisResult, err error) *gatedEngine {
	return &gatedEngine{
		entered: make(chan struct{}),
		release: make(chan struct{}),
		result:  result,
		err:     err,
	}
}

func (e *gatedEngine) Diagnose(context.Context, diagnosis.Input) (*schema.DiagnosisResult, error) {
	e.once.Do(func() { close(e.entered) })
	<-e.release
	return e.result.Clone(), e.err
}

// open releases every blocked and future Diagnose call. Safe to call twice.
func (e *gatedEngine) open() {
	e.opened.Do(func() { close(e.release) })
}

type eventLog struct {
	mu     sync.Mutex
	events []streaming.StreamEvent
}

func (l *eventLog) observe(_ context.Context, ev streaming.StreamEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) types() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.events))
	for i, ev := range l.events {
		out[i] = ev.EventType
	}
	return out
}

func (l *eventLog) progress() []int {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []int
	for _, ev := range l.events {
		if ev.EventType == schema.EventAnalysisProgress {
			out = append(out, ev.Payload.(map[string]any)["progress"].(int))
		}
	}
	return out
}

// newTestSession builds a session with instant progress and registers Close as cleanup.
func newTestSession(t *testing.T, engine diagnosis.Engine, opts ...Option) *Session {
	t.Helper()
	opts = append([]Option{WithProgress(10, 0)}, opts...)
	s := NewSession(engine, opts...)
	t.Cleanup(s.Close)
	return s
}

// atImageUpload walks a fresh session to the image upload step.
func atImageUpload(t *testing.T, s *Session) {
	t.Helper()
	require.NoError(t, s.SetAnimalType(schema.AnimalDog))
	require.NoError(t, s.Advance(context.Background()))
	require.NoError(t, s.ToggleSymptom("fever"))
	require.NoError(t, s.ToggleSymptom("cough"))
	require.NoError(t, s.Advance(context.Background()))
	require.Equal(t, schema.StepImageUpload, s.Snapshot().Step)
}

func waitTerminal(t *testing.T, s *Session) schema.AnalysisState {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	st, err := s.WaitAnalysis(ctx)
	require.NoError(t, err)
	return st
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 5*time.Second, time.Millisecond)
}
