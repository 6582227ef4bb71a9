package wizard

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/rendis/vetassist/internal/logging"
	"github.com/rendis/vetassist/internal/store"
	"github.com/rendis/vetassist/internal/streaming"
	"github.com/rendis/vetassist/pkg/schema"
)

// EventAppender persists session events.
type EventAppender interface {
	AppendEvent(ctx context.Context, event *store.Event) error
}

// DiagnosisSaver persists completed diagnoses.
type DiagnosisSaver interface {
	SaveDiagnosis(ctx context.Context, d *store.Diagnosis) error
}

type runKey struct {
	session string
	run     uint64
}

// Recorder writes session events to an event log and saves every successful
// analysis as a diagnosis record. Register Observe with WithObserver.
// Storage errors are logged and never reach the session.
type Recorder struct {
	events  EventAppender
	history DiagnosisSaver
	logger  *slog.Logger

	mu      sync.Mutex
	started map[runKey]*store.Diagnosis
}

// NewRecorder creates a Recorder. Either sink may be nil.
func NewRecorder(events EventAppender, history DiagnosisSaver, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Recorder{
		events:  events,
		history: history,
		logger:  logger,
		started: make(map[runKey]*store.Diagnosis),
	}
}

// Observe is an Observer.
func (r *Recorder) Observe(ctx context.Context, ev streaming.StreamEvent) {
	ctx = context.WithoutCancel(ctx)

	if r.events != nil {
		if err := r.events.AppendEvent(ctx, toStoreEvent(ev)); err != nil {
			r.logger.WarnContext(ctx, "failed to record session event",
				slog.String("event_type", ev.EventType), slog.String("error", err.Error()))
		}
	}

	switch ev.EventType {
	case schema.EventAnalysisStarted:
		r.remember(ev)
	case schema.EventAnalysisSucceeded:
		r.save(ctx, ev)
	case schema.EventAnalysisFailed, schema.EventAnalysisCancelled:
		r.forget(runKey{ev.SessionID, ev.Run})
	case schema.EventSessionReset, schema.EventSessionDiscarded:
		r.forgetSession(ev.SessionID)
	}
}

func (r *Recorder) remember(ev streaming.StreamEvent) {
	p, _ := ev.Payload.(map[string]any)
	d := &store.Diagnosis{SessionID: ev.SessionID, Run: ev.Run}
	if v, ok := p["animal_type"].(string); ok {
		d.AnimalType = schema.AnimalType(v)
	}
	if v, ok := p["symptoms"].([]string); ok {
		d.Symptoms = append([]string(nil), v...)
	}
	if v, ok := p["image_ref"].(string); ok {
		d.ImageRef = schema.ImageRef(v)
	}

	r.mu.Lock()
	r.started[runKey{ev.SessionID, ev.Run}] = d
	r.mu.Unlock()
}

func (r *Recorder) save(ctx context.Context, ev streaming.StreamEvent) {
	key := runKey{ev.SessionID, ev.Run}
	r.mu.Lock()
	d, ok := r.started[key]
	delete(r.started, key)
	r.mu.Unlock()

	if !ok || r.history == nil {
		return
	}
	p, _ := ev.Payload.(map[string]any)
	result, _ := p["result"].(*schema.DiagnosisResult)
	if result == nil {
		return
	}
	d.Result = *result

	if err := r.history.SaveDiagnosis(ctx, d); err != nil {
		r.logger.WarnContext(ctx, "failed to save diagnosis", slog.String("error", err.Error()))
		return
	}
	r.logger.DebugContext(ctx, "diagnosis saved", slog.String("diagnosis_id", d.ID))
}

func (r *Recorder) forget(key runKey) {
	r.mu.Lock()
	delete(r.started, key)
	r.mu.Unlock()
}

func (r *Recorder) forgetSession(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k := range r.started {
		if k.session == id {
			delete(r.started, k)
		}
	}
}

func toStoreEvent(ev streaming.StreamEvent) *store.Event {
	e := &store.Event{
		SessionID: ev.SessionID,
		Step:      ev.Step,
		Type:      ev.EventType,
		Run:       ev.Run,
	}
	if ev.Payload != nil {
		if raw, err := json.Marshal(ev.Payload); err == nil {
			e.Payload = raw
		}
	}
	return e
}
