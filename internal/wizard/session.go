// Package wizard implements the diagnosis wizard: an ordered, gated sequence of
// steps that collects an animal type, symptoms and an optional image, runs an
// asynchronous analysis and exposes its result to the treatment step.
//
// A Session is safe for concurrent use. Mutations are expected from a single
// control goroutine; the only other writer is the session's analysis runner.
package wizard

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rendis/vetassist/internal/diagnosis"
	"github.com/rendis/vetassist/internal/logging"
	"github.com/rendis/vetassist/internal/streaming"
	"github.com/rendis/vetassist/pkg/schema"
)

// Default analysis pacing.
const (
	DefaultProgressStep     = 10
	DefaultProgressInterval = 300 * time.Millisecond
)

// SymptomCatalog restricts which symptom IDs ToggleSymptom accepts.
type SymptomCatalog interface {
	Has(id string) bool
}

// Observer receives every event a session emits, in emission order.
// Observers run synchronously and must not call back into the session.
type Observer func(ctx context.Context, ev streaming.StreamEvent)

// TransitionHook is called after every step change.
type TransitionHook func(from, to schema.Step)

// Option configures a Session.
type Option func(*Session)

// WithID sets the session ID instead of generating one.
func WithID(id string) Option {
	return func(s *Session) { s.id = id }
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithSymptomCatalog makes ToggleSymptom reject IDs the catalog does not know.
func WithSymptomCatalog(c SymptomCatalog) Option {
	return func(s *Session) { s.catalog = c }
}

// WithProgress sets how far and how often simulated analysis progress advances.
// step is clamped to 1..100; a non-positive interval advances without waiting.
func WithProgress(step int, interval time.Duration) Option {
	return func(s *Session) {
		s.progressStep = min(max(step, 1), 100)
		s.progressInterval = interval
	}
}

// WithHub publishes every session event to hub.
func WithHub(hub streaming.EventHub) Option {
	return WithObserver(func(ctx context.Context, ev streaming.StreamEvent) {
		_ = hub.Publish(context.WithoutCancel(ctx), ev)
	})
}

// WithObserver registers an event observer. Observers run synchronously in
// registration order, after the session lock is released, and see events
// in mutation order. A slow observer delays later events and the mutator
// that emitted them, but Snapshot and other readers stay available.
// Observers must not call session mutators.
func WithObserver(o Observer) Option {
	return func(s *Session) { s.observers = append(s.observers, o) }
}

// WithClock overrides the time source used for activity tracking.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// Session is one run of the diagnosis wizard.
type Session struct {
	id               string
	engine           diagnosis.Engine
	catalog          SymptomCatalog
	logger           *slog.Logger
	progressStep     int
	progressInterval time.Duration
	now              func() time.Time

	// Dispatch is ordered by ticket: a mutator takes the next ticket under mu,
	// releases mu, then waits on emitTurn until serving reaches its ticket.
	// A slow observer delays later dispatches but never holds mu.
	emitMu    sync.Mutex
	emitTurn  *sync.Cond
	serving   uint64 // guarded by emitMu
	nextEmit  uint64 // guarded by mu
	observers []Observer

	mu         sync.Mutex
	hooks      []TransitionHook
	step       schema.Step
	animalType schema.AnimalType
	symptoms   map[string]struct{}
	imageRef   schema.ImageRef
	analysis   schema.AnalysisState
	result     *schema.DiagnosisResult
	gen        uint64
	current    *run
	lastActive time.Time
	closed     bool
	runners    sync.WaitGroup
}

// Snapshot is a read-only copy of session state for presentation.
type Snapshot struct {
	ID         string                  `json:"id"`
	Step       schema.Step             `json:"step"`
	AnimalType schema.AnimalType       `json:"animal_type,omitempty"`
	Symptoms   []string                `json:"symptoms"`
	ImageRef   schema.ImageRef         `json:"image_ref,omitempty"`
	Analysis   schema.AnalysisState    `json:"analysis"`
	Result     *schema.DiagnosisResult `json:"result,omitempty"`
	CanAdvance bool                    `json:"can_advance"`
	LastActive time.Time               `json:"last_active"`
}

// NewSession starts a wizard at the animal selection step.
func NewSession(engine diagnosis.Engine, opts ...Option) *Session {
	s := &Session{
		engine:           engine,
		progressStep:     DefaultProgressStep,
		progressInterval: DefaultProgressInterval,
		now:              time.Now,
	}
	s.emitTurn = sync.NewCond(&s.emitMu)
	for _, opt := range opts {
		opt(s)
	}
	if s.id == "" {
		s.id = uuid.NewString()
	}
	if s.logger == nil {
		s.logger = logging.Discard()
	}
	s.resetLocked()
	s.lastActive = s.now()

	s.mu.Lock()
	s.emitLocked(context.Background(), schema.EventSessionCreated, nil)
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		ID:         s.id,
		Step:       s.step,
		AnimalType: s.animalType,
		Symptoms:   s.symptomListLocked(),
		ImageRef:   s.imageRef,
		Analysis:   s.analysis,
		Result:     s.result.Clone(),
		CanAdvance: s.canAdvanceLocked(),
		LastActive: s.lastActive,
	}
}

// Analysis returns the current analysis state.
func (s *Session) Analysis() schema.AnalysisState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.analysis
}

// Result returns a copy of the diagnosis result, or nil if none is available.
func (s *Session) Result() *schema.DiagnosisResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result.Clone()
}

// LastActive returns when the session was last mutated.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// OnTransition registers a hook called after every step change.
// Hooks run synchronously and must not call back into the session.
func (s *Session) OnTransition(hook TransitionHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, hook)
}

// Reset cancels any analysis and restores the initial state.
func (s *Session) Reset() {
	s.mu.Lock()
	from := s.step
	s.stopRunLocked()
	s.gen++
	s.resetLocked()
	s.touchLocked()
	s.emitLocked(context.Background(), schema.EventSessionReset, map[string]any{"from": string(from)})
}

// Close cancels any analysis and waits for runner goroutines to exit.
// The session must not be used afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	wasRunning := s.stopRunLocked()
	s.gen++
	if wasRunning {
		s.analysis.Status = schema.AnalysisIdle
		s.analysis.Progress = 0
		s.analysis.Outcome = schema.OutcomeCancelled
	}
	s.emitLocked(context.Background(), schema.EventSessionDiscarded, nil)

	s.runners.Wait()
}

func (s *Session) resetLocked() {
	s.step = schema.StepAnimalSelection
	s.animalType = ""
	s.symptoms = make(map[string]struct{})
	s.imageRef = ""
	s.analysis = schema.AnalysisState{Status: schema.AnalysisIdle, Outcome: schema.OutcomeNone}
	s.result = nil
	s.current = nil
}

func (s *Session) touchLocked() {
	s.lastActive = s.now()
}

func (s *Session) symptomListLocked() []string {
	out := make([]string, 0, len(s.symptoms))
	for id := range s.symptoms {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// logCtx attaches correlation values for the current state. Callers hold mu.
func (s *Session) logCtxLocked(ctx context.Context) context.Context {
	ctx = logging.WithSessionID(ctx, s.id)
	return logging.WithStep(ctx, s.step)
}

// emitLocked builds an event from the current state, releases mu and
// dispatches the event to observers. Callers must hold mu; it is released on return.
func (s *Session) emitLocked(ctx context.Context, eventType string, payload any) {
	s.emitManyLocked(ctx, []pending{{eventType: eventType, payload: payload}}, nil)
}

type pending struct {
	eventType string
	payload   any
}

type transition struct {
	from, to schema.Step
}

// emitManyLocked dispatches events and, when tr is non-nil, runs transition hooks.
// Callers must hold mu; it is released on return.
func (s *Session) emitManyLocked(ctx context.Context, evs []pending, tr *transition) {
	events := make([]streaming.StreamEvent, len(evs))
	for i, p := range evs {
		events[i] = streaming.StreamEvent{
			SessionID: s.id,
			Step:      s.step,
			EventType: p.eventType,
			Run:       s.analysis.Run,
			Payload:   p.payload,
		}
	}
	hooks := append([]TransitionHook(nil), s.hooks...)
	ctx = s.logCtxLocked(ctx)

	ticket := s.nextEmit
	s.nextEmit++
	s.mu.Unlock()

	s.emitMu.Lock()
	for s.serving != ticket {
		s.emitTurn.Wait()
	}
	s.emitMu.Unlock()
	defer func() {
		s.emitMu.Lock()
		s.serving++
		s.emitTurn.Broadcast()
		s.emitMu.Unlock()
	}()

	if tr != nil {
		for _, h := range hooks {
			h(tr.from, tr.to)
		}
	}
	for _, ev := range events {
		for _, o := range s.observers {
			o(ctx, ev)
		}
	}
}
