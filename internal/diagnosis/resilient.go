package diagnosis

import (
	"context"
	"log/slog"

	"github.com/rendis/vetassist/pkg/schema"
)

// ResilientConfig configures a Resilient engine.
type ResilientConfig struct {
	Name   string
	Retry  RetryPolicy
	Logger *slog.Logger
	// OnBreakerChange is called when the breaker opens or closes again.
	OnBreakerChange func(name string, state CircuitState)
}

// Resilient wraps an engine with retries and a circuit breaker.
type Resilient struct {
	inner    Engine
	cfg      ResilientConfig
	breakers *CircuitBreakerRegistry
}

// NewResilient wraps inner. breakers may be shared between engines; nil creates
// a private registry with the default config.
func NewResilient(inner Engine, breakers *CircuitBreakerRegistry, cfg ResilientConfig) *Resilient {
	if breakers == nil {
		breakers = NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig())
	}
	if cfg.Name == "" {
		cfg.Name = "default"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return &Resilient{inner: inner, cfg: cfg, breakers: breakers}
}

// Diagnose calls the wrapped engine, retrying retryable failures per the policy.
func (r *Resilient) Diagnose(ctx context.Context, in Input) (*schema.DiagnosisResult, error) {
	name := r.cfg.Name
	for attempt := 0; ; attempt++ {
		if err := r.breakers.AllowRequest(name); err != nil {
			return nil, err
		}

		result, err := r.inner.Diagnose(ctx, in)
		if err == nil {
			if prev := r.breakers.RecordSuccess(name); prev != CircuitClosed {
				r.notify(ctx, CircuitClosed)
			}
			return result, nil
		}

		if ctx.Err() != nil {
			return nil, err
		}

		if state := r.breakers.RecordFailure(name); state == CircuitOpen {
			r.notify(ctx, CircuitOpen)
		}

		if attempt >= r.cfg.Retry.Max || !IsRetryableError(err) {
			return nil, err
		}

		delay := ComputeBackoff(r.cfg.Retry, attempt)
		r.cfg.Logger.DebugContext(ctx, "retrying diagnosis engine",
			slog.String("engine", name),
			slog.Int("attempt", attempt+1),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()),
		)
		if werr := WaitForBackoff(ctx, delay); werr != nil {
			return nil, err
		}
	}
}

func (r *Resilient) notify(ctx context.Context, state CircuitState) {
	r.cfg.Logger.WarnContext(ctx, "diagnosis engine circuit "+state.String(), slog.String("engine", r.cfg.Name))
	if r.cfg.OnBreakerChange != nil {
		r.cfg.OnBreakerChange(r.cfg.Name, state)
	}
}

var _ Engine = (*Resilient)(nil)
