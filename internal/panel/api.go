package panel

import (
	"errors"
	"net/http"
	"time"

	"github.com/rendis/vetassist/internal/diagram"
	"github.com/rendis/vetassist/internal/store"
	"github.com/rendis/vetassist/pkg/schema"
)

func (s *PanelServer) handleListSessions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Sessions.List())
}

func (s *PanelServer) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.deps.Sessions.Get(r.PathValue("id"))
	if err != nil {
		writeSchemaError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

// handleSessionDiagram renders the step indicator as text (ascii, mermaid)
// or as an image (png, svg).
func (s *PanelServer) handleSessionDiagram(w http.ResponseWriter, r *http.Request) {
	sess, err := s.deps.Sessions.Get(r.PathValue("id"))
	if err != nil {
		writeSchemaError(w, err)
		return
	}
	model := diagram.Build(sess.Snapshot())

	switch f := r.URL.Query().Get("format"); f {
	case "", "mermaid":
		writeText(w, diagram.RenderMermaid(model))
	case "ascii":
		writeText(w, diagram.RenderASCII(model))
	case "png", "svg":
		imgFmt, contentType := diagram.ImagePNG, "image/png"
		if f == "svg" {
			imgFmt, contentType = diagram.ImageSVG, "image/svg+xml"
		}
		data, err := diagram.RenderImage(r.Context(), model, imgFmt)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "render diagram: "+err.Error())
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	default:
		writeError(w, http.StatusBadRequest, "format must be mermaid, ascii, png or svg")
	}
}

func (s *PanelServer) handleSessionRuns(w http.ResponseWriter, r *http.Request) {
	if s.deps.Runs == nil {
		writeError(w, http.StatusNotFound, "run history is not configured")
		return
	}
	runs, err := s.deps.Runs.ReplayRuns(r.Context(), r.PathValue("id"))
	if err != nil {
		writeSchemaError(w, err)
		return
	}
	if runs == nil {
		runs = []*store.RunSummary{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// handleCancelAnalysis cancels the in-flight analysis of a session. Cancelling
// an idle session is a no-op.
func (s *PanelServer) handleCancelAnalysis(w http.ResponseWriter, r *http.Request) {
	sess, err := s.deps.Sessions.Get(r.PathValue("id"))
	if err != nil {
		writeSchemaError(w, err)
		return
	}
	sess.CancelAnalysis()
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *PanelServer) handleDiscardSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.deps.Sessions.Discard(id); err != nil {
		writeSchemaError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "session_id": id})
}

// handleHistory lists saved diagnoses. Query params: session, animal,
// urgency, since (Go duration), limit, offset.
func (s *PanelServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.deps.History == nil {
		writeError(w, http.StatusNotFound, "history is not configured")
		return
	}
	q := r.URL.Query()
	filter := store.DiagnosisFilter{
		SessionID:  q.Get("session"),
		AnimalType: schema.AnimalType(q.Get("animal")),
		Urgency:    schema.Urgency(q.Get("urgency")),
		Limit:      queryInt(r, "limit", 50),
		Offset:     queryInt(r, "offset", 0),
	}
	if filter.AnimalType != "" && !filter.AnimalType.Valid() {
		writeError(w, http.StatusBadRequest, "unknown animal type")
		return
	}
	if filter.Urgency != "" && !filter.Urgency.Valid() {
		writeError(w, http.StatusBadRequest, "unknown urgency")
		return
	}
	if v := q.Get("since"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			writeError(w, http.StatusBadRequest, "since must be a positive duration such as 24h")
			return
		}
		since := time.Now().Add(-d)
		filter.Since = &since
	}

	diagnoses, err := s.deps.History.ListDiagnoses(r.Context(), filter)
	if err != nil {
		writeSchemaError(w, err)
		return
	}
	if diagnoses == nil {
		diagnoses = []*store.Diagnosis{}
	}
	writeJSON(w, http.StatusOK, diagnoses)
}

// writeSchemaError maps a *schema.Error code to an HTTP status and writes it
// as the JSON body.
func writeSchemaError(w http.ResponseWriter, err error) {
	var se *schema.Error
	if !errors.As(err, &se) {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	status := http.StatusInternalServerError
	switch se.Code {
	case schema.ErrCodeNotFound:
		status = http.StatusNotFound
	case schema.ErrCodeValidation, schema.ErrCodeInvalidAnimalType, schema.ErrCodeInvalidSymptom, schema.ErrCodeInvalidStep:
		status = http.StatusBadRequest
	case schema.ErrCodeGuardRejected, schema.ErrCodeAtBoundary, schema.ErrCodeAlreadyRunning:
		status = http.StatusConflict
	}
	writeJSON(w, status, map[string]any{"error": se})
}
