package wizard

import (
	"context"
	"log/slog"
	"time"

	"github.com/rendis/vetassist/internal/diagnosis"
	"github.com/rendis/vetassist/internal/logging"
	"github.com/rendis/vetassist/pkg/schema"
)

// run is one launched analysis. gen is the session generation it was started
// under; any later Start, Cancel, Reset or Close makes it stale.
type run struct {
	gen    uint64
	cancel context.CancelFunc
	done   chan struct{}
}

// StartAnalysis launches an analysis run over the current inputs. It fails
// with ALREADY_RUNNING while a run is in flight. A finished run may be started
// again; the previous result is cleared.
func (s *Session) StartAnalysis(ctx context.Context) error {
	s.mu.Lock()
	started, err := s.startLocked(ctx)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.touchLocked()
	s.emitManyLocked(ctx, []pending{started}, nil)
	return nil
}

// CancelAnalysis stops a running analysis and returns the runner to idle.
// It does nothing when no run is in flight.
func (s *Session) CancelAnalysis() {
	s.mu.Lock()
	cancelled, ok := s.cancelLocked()
	if !ok {
		s.mu.Unlock()
		return
	}
	s.touchLocked()
	s.emitManyLocked(context.Background(), []pending{cancelled}, nil)
}

// WaitAnalysis blocks until no run is in flight, then returns the analysis
// state. It returns early with ctx.Err() if ctx ends first.
func (s *Session) WaitAnalysis(ctx context.Context) (schema.AnalysisState, error) {
	for {
		s.mu.Lock()
		if s.analysis.Status != schema.AnalysisRunning || s.current == nil {
			st := s.analysis
			s.mu.Unlock()
			return st, nil
		}
		done := s.current.done
		s.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			return s.Analysis(), ctx.Err()
		}
	}
}

// startLocked transitions to running and launches the runner goroutine.
// Callers hold mu.
func (s *Session) startLocked(ctx context.Context) (pending, error) {
	if s.closed {
		return pending{}, schema.NewError(schema.ErrCodeValidation, "session is closed")
	}
	if s.analysis.Status == schema.AnalysisRunning {
		return pending{}, schema.NewErrorf(schema.ErrCodeAlreadyRunning, "analysis run %d is still in flight", s.analysis.Run).WithStep(s.step)
	}

	s.gen++
	r := &run{gen: s.gen, done: make(chan struct{})}

	runCtx := logging.WithRun(logging.WithSessionID(context.WithoutCancel(ctx), s.id), r.gen)
	runCtx, r.cancel = context.WithCancel(runCtx)

	s.current = r
	s.result = nil
	s.analysis = schema.AnalysisState{
		Status:   schema.AnalysisRunning,
		Progress: 0,
		Outcome:  s.analysis.Outcome,
		Run:      r.gen,
	}

	in := diagnosis.Input{
		AnimalType: s.animalType,
		Symptoms:   s.symptomListLocked(),
		ImageRef:   s.imageRef,
	}

	s.runners.Add(1)
	go s.runAnalysis(runCtx, r, in)

	s.logger.DebugContext(runCtx, "analysis started",
		slog.String("animal_type", string(in.AnimalType)),
		slog.Int("symptoms", len(in.Symptoms)),
		slog.Bool("has_image", in.ImageRef != ""),
	)
	return pending{
		eventType: schema.EventAnalysisStarted,
		payload: map[string]any{
			"animal_type": string(in.AnimalType),
			"symptoms":    in.Symptoms,
			"image_ref":   string(in.ImageRef),
		},
	}, nil
}

// cancelLocked cancels the in-flight run, if any. Callers hold mu.
func (s *Session) cancelLocked() (pending, bool) {
	if !s.stopRunLocked() {
		return pending{}, false
	}
	run := s.analysis.Run
	s.gen++
	s.analysis.Status = schema.AnalysisIdle
	s.analysis.Progress = 0
	s.analysis.Outcome = schema.OutcomeCancelled
	s.analysis.Error = ""
	s.logger.InfoContext(logging.WithRun(s.logCtxLocked(context.Background()), run), "analysis cancelled")
	return pending{eventType: schema.EventAnalysisCancelled, payload: map[string]any{"run": run}}, true
}

// stopRunLocked cancels the run context when a run is in flight and reports
// whether it did. It does not touch analysis state. Callers hold mu.
func (s *Session) stopRunLocked() bool {
	if s.analysis.Status != schema.AnalysisRunning || s.current == nil {
		return false
	}
	s.current.cancel()
	return true
}

func (s *Session) runAnalysis(ctx context.Context, r *run, in diagnosis.Input) {
	defer s.runners.Done()
	defer close(r.done)
	defer r.cancel()

	var ticker *time.Ticker
	if s.progressInterval > 0 {
		ticker = time.NewTicker(s.progressInterval)
		defer ticker.Stop()
	}

	for progress := 0; progress < 100; {
		if ticker != nil {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		} else if ctx.Err() != nil {
			return
		}

		progress = min(progress+s.progressStep, 100)
		if !s.reportProgress(ctx, r, progress) {
			return
		}
	}

	result, err := s.invokeEngine(ctx, in)
	s.finish(ctx, r, result, err)
}

// reportProgress records a progress value for r and reports whether r is still current.
func (s *Session) reportProgress(ctx context.Context, r *run, progress int) bool {
	s.mu.Lock()
	if r.gen != s.gen {
		s.mu.Unlock()
		return false
	}
	if progress > s.analysis.Progress {
		s.analysis.Progress = progress
	}
	s.emitLocked(ctx, schema.EventAnalysisProgress, map[string]any{"progress": s.analysis.Progress})
	return true
}

func (s *Session) invokeEngine(ctx context.Context, in diagnosis.Input) (result *schema.DiagnosisResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			result = nil
			err = schema.NewErrorf(schema.ErrCodeEngineFailed, "diagnosis engine panicked: %v", p)
		}
	}()
	if s.engine == nil {
		return nil, schema.NewError(schema.ErrCodeEngineFailed, "no diagnosis engine configured")
	}
	result, err = s.engine.Diagnose(ctx, in)
	if err == nil && result == nil {
		err = schema.NewError(schema.ErrCodeEngineFailed, "diagnosis engine returned no result")
	}
	return result, err
}

// finish applies the terminal update for r unless r has gone stale.
func (s *Session) finish(ctx context.Context, r *run, result *schema.DiagnosisResult, err error) {
	s.mu.Lock()
	if r.gen != s.gen {
		s.logger.DebugContext(ctx, "discarding stale analysis completion", slog.Uint64("generation", s.gen))
		s.emitLocked(ctx, schema.EventAnalysisDiscarded, map[string]any{"run": r.gen, "failed": err != nil})
		return
	}

	s.current = nil
	if err != nil {
		s.analysis.Status = schema.AnalysisFailed
		s.analysis.Progress = 0
		s.analysis.Outcome = schema.OutcomeFailed
		s.analysis.Error = err.Error()
		s.result = nil
		s.logger.WarnContext(ctx, "analysis failed", slog.String("error", err.Error()))
		s.emitLocked(ctx, schema.EventAnalysisFailed, map[string]any{"error": err.Error()})
		return
	}

	s.analysis.Status = schema.AnalysisSucceeded
	s.analysis.Progress = 100
	s.analysis.Outcome = schema.OutcomeSucceeded
	s.analysis.Error = ""
	s.result = result.Clone()
	s.logger.InfoContext(ctx, "analysis succeeded",
		slog.String("disease", result.Disease),
		slog.Float64("confidence", result.Confidence),
		slog.String("urgency", string(result.Urgency)),
	)
	s.emitLocked(ctx, schema.EventAnalysisSucceeded, map[string]any{"result": result.Clone()})
}
