package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rendis/vetassist/internal/diagnosis"
	"github.com/rendis/vetassist/internal/imaging"
	"github.com/rendis/vetassist/internal/logging"
	"github.com/rendis/vetassist/internal/wizard"
	"github.com/rendis/vetassist/pkg/schema"
)

// DefaultCaseTimeout bounds how long one case may wait for its analysis.
const DefaultCaseTimeout = 30 * time.Second

// Status is the verdict for one case.
type Status string

const (
	StatusPassed Status = "passed"
	StatusFailed Status = "failed" // ran, but did not match the expectation
	StatusError  Status = "error"  // could not be driven through the wizard
)

// ImageAcquirer turns an image file into a reference for the wizard.
type ImageAcquirer interface {
	AcquireFile(ctx context.Context, path string) (*imaging.Image, error)
}

// Config configures a Runner.
type Config struct {
	Engine         diagnosis.Engine
	Planner        wizard.Planner        // optional; nil skips treatment plans
	Catalog        wizard.SymptomCatalog // optional symptom validation
	Images         ImageAcquirer         // required only for cases with images
	Parallel       int
	CaseTimeout    time.Duration
	SessionOptions []wizard.Option
	Logger         *slog.Logger
}

// CaseResult is the outcome of one case.
type CaseResult struct {
	Name       string                  `json:"name"`
	Status     Status                  `json:"status"`
	SessionID  string                  `json:"session_id,omitempty"`
	Analysis   schema.AnalysisState    `json:"analysis"`
	Result     *schema.DiagnosisResult `json:"result,omitempty"`
	Plan       *schema.TreatmentPlan   `json:"plan,omitempty"`
	Error      string                  `json:"error,omitempty"`
	Mismatches []string                `json:"mismatches,omitempty"`
	Duration   time.Duration           `json:"duration"`
}

// Report aggregates a batch run. Results keep the input order.
type Report struct {
	Results []CaseResult `json:"results"`
	Passed  int          `json:"passed"`
	Failed  int          `json:"failed"`
	Errored int          `json:"errored"`
	Metrics PoolMetrics  `json:"metrics"`
}

// OK reports whether every case passed.
func (r *Report) OK() bool {
	return r.Failed == 0 && r.Errored == 0
}

// Runner executes cases on a bounded pool, one wizard session per case.
type Runner struct {
	cfg Config
}

// NewRunner creates a Runner.
func NewRunner(cfg Config) *Runner {
	if cfg.Parallel <= 0 {
		cfg.Parallel = 4
	}
	if cfg.CaseTimeout <= 0 {
		cfg.CaseTimeout = DefaultCaseTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	return &Runner{cfg: cfg}
}

// Run executes every case and returns the report. It returns an error only
// when ctx ends before all cases were submitted.
func (r *Runner) Run(ctx context.Context, cases []Case) (*Report, error) {
	pool := NewPool(r.cfg.Parallel)
	defer pool.Shutdown()

	results := make([]CaseResult, len(cases))
	for i := range cases {
		err := pool.Submit(ctx, func(ctx context.Context) error {
			results[i] = r.runCase(ctx, cases[i])
			if results[i].Status != StatusPassed {
				return fmt.Errorf("case %s: %s", cases[i].Name, results[i].Status)
			}
			return nil
		})
		if err != nil {
			pool.Wait()
			return nil, err
		}
	}
	pool.Wait()

	report := &Report{Results: results, Metrics: pool.Metrics()}
	for _, res := range results {
		switch res.Status {
		case StatusPassed:
			report.Passed++
		case StatusFailed:
			report.Failed++
		default:
			report.Errored++
		}
	}
	r.cfg.Logger.InfoContext(ctx, "batch finished",
		slog.Int("cases", len(cases)),
		slog.Int("passed", report.Passed),
		slog.Int("failed", report.Failed),
		slog.Int("errored", report.Errored),
	)
	return report, nil
}

func (r *Runner) runCase(ctx context.Context, c Case) (res CaseResult) {
	start := time.Now()
	res = CaseResult{Name: c.Name}
	defer func() { res.Duration = time.Since(start) }()

	opts := []wizard.Option{
		wizard.WithProgress(wizard.DefaultProgressStep, 0),
		wizard.WithLogger(r.cfg.Logger),
	}
	if r.cfg.Catalog != nil {
		opts = append(opts, wizard.WithSymptomCatalog(r.cfg.Catalog))
	}
	opts = append(opts, r.cfg.SessionOptions...)

	s := wizard.NewSession(r.cfg.Engine, opts...)
	defer s.Close()
	res.SessionID = s.ID()

	fail := func(err error) CaseResult {
		res.Status = StatusError
		res.Error = err.Error()
		res.Analysis = s.Analysis()
		return res
	}

	if err := r.fillInputs(ctx, s, c); err != nil {
		return fail(err)
	}

	// Leaving image upload starts the analysis.
	if err := s.Advance(ctx); err != nil {
		return fail(err)
	}
	waitCtx, cancel := context.WithTimeout(ctx, r.cfg.CaseTimeout)
	defer cancel()
	st, err := s.WaitAnalysis(waitCtx)
	if err != nil {
		s.CancelAnalysis()
		return fail(fmt.Errorf("waiting for analysis: %w", err))
	}
	res.Analysis = st

	if st.Status == schema.AnalysisSucceeded {
		res.Result = s.Result()
		if err := s.Advance(ctx); err != nil {
			return fail(err)
		}
		if r.cfg.Planner != nil {
			plan, err := s.TreatmentPlan(r.cfg.Planner)
			if err != nil {
				return fail(err)
			}
			res.Plan = plan
		}
	} else {
		res.Error = st.Error
	}

	res.Mismatches = check(c.Expect, st, res.Result)
	switch {
	case len(res.Mismatches) > 0:
		res.Status = StatusFailed
	case st.Status != schema.AnalysisSucceeded && (c.Expect == nil || !c.Expect.Fail):
		res.Status = StatusError
	default:
		res.Status = StatusPassed
	}
	return res
}

// fillInputs walks the session from animal selection to image upload.
func (r *Runner) fillInputs(ctx context.Context, s *wizard.Session, c Case) error {
	if err := s.SetAnimalType(c.Animal); err != nil {
		return err
	}
	if err := s.Advance(ctx); err != nil {
		return err
	}
	for _, id := range c.Symptoms {
		if err := s.ToggleSymptom(id); err != nil {
			return err
		}
	}
	if err := s.Advance(ctx); err != nil {
		return err
	}
	if c.Image != "" {
		if r.cfg.Images == nil {
			return schema.NewError(schema.ErrCodeValidation, "case has an image but no image acquirer is configured")
		}
		img, err := r.cfg.Images.AcquireFile(ctx, c.Image)
		if err != nil {
			return err
		}
		s.SetImage(img.Ref)
	}
	return nil
}

func check(want *Expectation, st schema.AnalysisState, got *schema.DiagnosisResult) []string {
	if want == nil {
		return nil
	}
	var out []string
	if want.Fail {
		if st.Status != schema.AnalysisFailed {
			out = append(out, fmt.Sprintf("expected analysis to fail, got %s", st.Status))
		}
		return out
	}
	if got == nil {
		return []string{fmt.Sprintf("expected a diagnosis, analysis %s", st.Status)}
	}
	if want.Disease != "" && got.Disease != want.Disease {
		out = append(out, fmt.Sprintf("disease: want %q, got %q", want.Disease, got.Disease))
	}
	if want.Urgency != "" && got.Urgency != want.Urgency {
		out = append(out, fmt.Sprintf("urgency: want %s, got %s", want.Urgency, got.Urgency))
	}
	if want.MinConfidence > 0 && got.Confidence < want.MinConfidence {
		out = append(out, fmt.Sprintf("confidence: want >= %.1f, got %.1f", want.MinConfidence, got.Confidence))
	}
	return out
}
