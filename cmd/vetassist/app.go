package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rendis/vetassist/internal/catalog"
	"github.com/rendis/vetassist/internal/diagnosis"
	"github.com/rendis/vetassist/internal/imaging"
	"github.com/rendis/vetassist/internal/logging"
	"github.com/rendis/vetassist/internal/store"
	"github.com/rendis/vetassist/internal/treatment"
	"github.com/rendis/vetassist/internal/validation"
	"github.com/rendis/vetassist/internal/wizard"
	"github.com/rendis/vetassist/pkg/schema"
)

// app holds the components every command shares.
type app struct {
	cfg     Config
	logger  *slog.Logger
	catalog *catalog.Catalog
	engine  diagnosis.Engine
	planner *treatment.Planner
	images  *imaging.Acquirer
}

func newApp(cfg Config, logOut io.Writer) (*app, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	logger := logging.New(logOut, cfg.LogLevel)
	cat := catalog.Default()

	engine, err := buildEngine(cfg, cat, logger)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:     cfg,
		logger:  logger,
		catalog: cat,
		engine:  engine,
		planner: treatment.NewPlanner(),
		images:  imaging.NewAcquirer(imaging.DefaultMaxSize),
	}, nil
}

// buildEngine assembles rules -> result validation -> retry and breaker.
func buildEngine(cfg Config, cat *catalog.Catalog, logger *slog.Logger) (diagnosis.Engine, error) {
	var (
		rs  *schema.RuleSet
		err error
	)
	if cfg.RulesPath != "" {
		rs, err = diagnosis.LoadRuleSet(cfg.RulesPath)
	} else {
		rs, err = diagnosis.DefaultRuleSet()
	}
	if err != nil {
		return nil, err
	}

	rules, err := diagnosis.NewRuleEngine(rs,
		diagnosis.WithCategorizer(cat),
		diagnosis.WithRuleLogger(logger.With(slog.String("component", "rules"))),
	)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}

	resultSchema, err := validation.NewJSONSchemaValidator()
	if err != nil {
		return nil, err
	}

	retryDelay := time.Duration(cfg.EngineRetryDelay)
	breakers := diagnosis.NewCircuitBreakerRegistry(diagnosis.CircuitBreakerConfig{
		FailureThreshold: cfg.BreakerThreshold,
		Cooldown:         time.Duration(cfg.BreakerCooldown),
		HalfOpenMax:      1,
	})
	return diagnosis.NewResilient(diagnosis.NewValidating(rules, resultSchema), breakers, diagnosis.ResilientConfig{
		Name: "rules",
		Retry: diagnosis.RetryPolicy{
			Max:      cfg.EngineRetryMax,
			Backoff:  diagnosis.BackoffExponential,
			Delay:    retryDelay,
			MaxDelay: 8 * retryDelay,
		},
		Logger: logger,
		OnBreakerChange: func(name string, state diagnosis.CircuitState) {
			logger.Warn("engine circuit breaker changed", slog.String("engine", name), slog.String("state", state.String()))
		},
	}), nil
}

// sessionOptions are the options applied to every wizard session.
func (a *app) sessionOptions() []wizard.Option {
	return []wizard.Option{
		wizard.WithLogger(a.logger),
		wizard.WithSymptomCatalog(a.catalog),
		wizard.WithProgress(a.cfg.ProgressStep, time.Duration(a.cfg.ProgressInterval)),
	}
}

// openStore opens and migrates the history database, creating its directory.
func (a *app) openStore(ctx context.Context) (*store.LibSQLStore, error) {
	dsn, local := dbURL(a.cfg.DBPath)
	if local != "" {
		if err := os.MkdirAll(filepath.Dir(local), 0o700); err != nil {
			return nil, fmt.Errorf("create %s: %w", filepath.Dir(local), err)
		}
	}
	st, err := store.NewLibSQLStore(dsn)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

// dbURL turns the configured db_path into a libsql DSN. Plain paths become
// file: URLs; file:, libsql:// and http(s):// values pass through. local is
// the filesystem path for file databases and "" for remote ones.
func dbURL(path string) (dsn, local string) {
	switch {
	case strings.HasPrefix(path, "file:"):
		local = strings.TrimPrefix(path, "file:")
		if i := strings.IndexByte(local, '?'); i >= 0 {
			local = local[:i]
		}
		return path, local
	case strings.Contains(path, "://"):
		return path, ""
	default:
		return "file:" + path, path
	}
}

// recorder persists session events and completed diagnoses to st.
func (a *app) recorder(st *store.LibSQLStore) *wizard.Recorder {
	return wizard.NewRecorder(store.NewEventLog(st), st, a.logger.With(slog.String("component", "recorder")))
}
