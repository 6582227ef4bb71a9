// Package panel serves a small read-mostly HTTP monitor over live wizard
// sessions: a dashboard page, JSON endpoints and Server-Sent Events.
package panel

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/rendis/vetassist/internal/logging"
	"github.com/rendis/vetassist/internal/sessions"
	"github.com/rendis/vetassist/internal/store"
	"github.com/rendis/vetassist/internal/streaming"
	"github.com/rendis/vetassist/internal/wizard"
)

// HistoryReader lists saved diagnoses.
type HistoryReader interface {
	ListDiagnoses(ctx context.Context, filter store.DiagnosisFilter) ([]*store.Diagnosis, error)
}

// RunReplayer rebuilds a session's analysis runs from its event log.
type RunReplayer interface {
	ReplayRuns(ctx context.Context, sessionID string) ([]*store.RunSummary, error)
}

// PanelDeps holds the dependencies for the panel server.
// History, Runs and Hub are optional; their routes answer 404 when nil.
type PanelDeps struct {
	Sessions *sessions.Manager
	History  HistoryReader
	Runs     RunReplayer
	Hub      streaming.EventHub
	Logger   *slog.Logger
}

// PanelServer serves the monitor.
type PanelServer struct {
	deps      PanelDeps
	dashboard *template.Template
}

// NewPanelServer creates a PanelServer with its dashboard template parsed.
func NewPanelServer(deps PanelDeps) *PanelServer {
	if deps.Logger == nil {
		deps.Logger = logging.Discard()
	}

	funcMap := template.FuncMap{
		"timeAgo":     timeAgo,
		"statusBadge": statusBadge,
		"truncate":    truncate,
		"join":        joinSymptoms,
	}
	return &PanelServer{
		deps:      deps,
		dashboard: template.Must(template.New("dashboard").Funcs(funcMap).Parse(dashboardHTML)),
	}
}

// Handler returns the HTTP handler for the panel routes.
func (s *PanelServer) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleDashboard)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("GET /api/sessions", s.handleListSessions)
	mux.HandleFunc("GET /api/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("GET /api/sessions/{id}/diagram", s.handleSessionDiagram)
	mux.HandleFunc("GET /api/sessions/{id}/runs", s.handleSessionRuns)
	mux.HandleFunc("POST /api/sessions/{id}/cancel", s.handleCancelAnalysis)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleDiscardSession)
	mux.HandleFunc("GET /api/history", s.handleHistory)

	mux.HandleFunc("GET /sse/events", s.handleSSEGlobal)
	mux.HandleFunc("GET /sse/sessions/{id}", s.handleSSESession)

	return mux
}

// ListenAndServe serves the panel on addr until ctx is cancelled, then shuts
// down gracefully.
func (s *PanelServer) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.deps.Logger.Info("panel listening", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("panel: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("panel shutdown: %w", err)
	}
	return nil
}

func (s *PanelServer) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	data := struct {
		Sessions []wizard.Snapshot
		TTL      time.Duration
	}{
		Sessions: s.deps.Sessions.List(),
		TTL:      s.deps.Sessions.TTL(),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.dashboard.Execute(w, data); err != nil {
		s.deps.Logger.Error("template render error", slog.Any("error", err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (s *PanelServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":       true,
		"sessions": s.deps.Sessions.Len(),
	})
}
