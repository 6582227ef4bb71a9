package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/rendis/vetassist/internal/diagram"
	"github.com/rendis/vetassist/internal/store"
	"github.com/rendis/vetassist/internal/wizard"
	"github.com/rendis/vetassist/pkg/schema"
)

const (
	defaultWaitTimeout  = 30 * time.Second
	defaultHistoryLimit = 20
)

// handleSessionCreate starts a new wizard session.
func (s *VetServer) handleSessionCreate(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.sessions == nil {
		return mcp.NewToolResultError("session manager is not configured"), nil
	}
	sess := s.sessions.Create()

	// Capture session mapping for notifications.
	s.captureSession(ctx, sess.ID())

	return marshalResult(sess.Snapshot())
}

// handleSessionState returns the session snapshot.
func (s *VetServer) handleSessionState(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, errResult := s.session(req)
	if errResult != nil {
		return errResult, nil
	}
	return marshalResult(sess.Snapshot())
}

func (s *VetServer) handleSessionReset(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, errResult := s.session(req)
	if errResult != nil {
		return errResult, nil
	}
	sess.Reset()
	return marshalResult(sess.Snapshot())
}

// handleSessionClose discards the session and drops its notification mapping.
func (s *VetServer) handleSessionClose(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("session_id is required"), nil
	}
	if s.sessions == nil {
		return mcp.NewToolResultError("session manager is not configured"), nil
	}
	if err := s.sessions.Discard(id); err != nil {
		return errorResult("close failed", err), nil
	}
	s.registry.Forget(id)
	return marshalResult(map[string]any{"ok": true, "session_id": id})
}

// handleSessionDiagram renders the step indicator in the requested format.
func (s *VetServer) handleSessionDiagram(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	format, err := req.RequireString("format")
	if err != nil {
		return mcp.NewToolResultError("format is required"), nil
	}
	if format != "ascii" && format != "mermaid" && format != "image" {
		return mcp.NewToolResultError("format must be ascii, mermaid, or image"), nil
	}
	sess, errResult := s.session(req)
	if errResult != nil {
		return errResult, nil
	}

	model := diagram.Build(sess.Snapshot())

	switch format {
	case "ascii":
		return mcp.NewToolResultText(diagram.RenderASCII(model)), nil
	case "mermaid":
		return mcp.NewToolResultText(diagram.RenderMermaid(model)), nil
	default:
		png, imgErr := diagram.RenderImage(ctx, model, diagram.ImagePNG)
		if imgErr != nil {
			return mcp.NewToolResultError(fmt.Sprintf("image render failed: %v", imgErr)), nil
		}
		return mcp.NewToolResultImage(model.Title, base64.StdEncoding.EncodeToString(png), "image/png"), nil
	}
}

func (s *VetServer) handleAnimalSet(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	animal, err := req.RequireString("animal_type")
	if err != nil {
		return mcp.NewToolResultError("animal_type is required"), nil
	}
	return s.mutate(req, "set animal failed", func(sess *wizard.Session) error {
		return sess.SetAnimalType(schema.AnimalType(animal))
	})
}

func (s *VetServer) handleSymptomToggle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	symptom, err := req.RequireString("symptom_id")
	if err != nil {
		return mcp.NewToolResultError("symptom_id is required"), nil
	}
	return s.mutate(req, "toggle symptom failed", func(sess *wizard.Session) error {
		return sess.ToggleSymptom(symptom)
	})
}

// handleImageSet validates the file and stores its content reference.
func (s *VetServer) handleImageSet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError("path is required"), nil
	}
	sess, errResult := s.session(req)
	if errResult != nil {
		return errResult, nil
	}

	img, imgErr := s.images.AcquireFile(ctx, path)
	if imgErr != nil {
		return errorResult("image rejected", imgErr), nil
	}
	sess.SetImage(img.Ref)

	return marshalResult(map[string]any{
		"image":   img,
		"session": sess.Snapshot(),
	})
}

func (s *VetServer) handleImageClear(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.mutate(req, "clear image failed", func(sess *wizard.Session) error {
		sess.ClearImage()
		return nil
	})
}

func (s *VetServer) handleStepAdvance(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.mutate(req, "advance failed", func(sess *wizard.Session) error {
		return sess.Advance(ctx)
	})
}

func (s *VetServer) handleStepRetreat(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.mutate(req, "retreat failed", func(sess *wizard.Session) error {
		return sess.Retreat()
	})
}

func (s *VetServer) handleStepGoTo(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	step, err := req.RequireString("step")
	if err != nil {
		return mcp.NewToolResultError("step is required"), nil
	}
	return s.mutate(req, "goto failed", func(sess *wizard.Session) error {
		return sess.GoTo(schema.Step(step))
	})
}

func (s *VetServer) handleAnalysisCancel(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.mutate(req, "cancel failed", func(sess *wizard.Session) error {
		sess.CancelAnalysis()
		return nil
	})
}

// handleAnalysisWait waits for the running analysis. A timeout is not an
// error: the caller gets the state as it is and can wait again.
func (s *VetServer) handleAnalysisWait(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, errResult := s.session(req)
	if errResult != nil {
		return errResult, nil
	}

	timeout := defaultWaitTimeout
	if secs := req.GetFloat("timeout_seconds", 0); secs > 0 {
		timeout = time.Duration(secs * float64(time.Second))
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	_, err := sess.WaitAnalysis(waitCtx)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return errorResult("wait failed", err), nil
	}
	return marshalResult(map[string]any{
		"timed_out": err != nil,
		"session":   sess.Snapshot(),
	})
}

func (s *VetServer) handleTreatmentPlan(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.planner == nil {
		return mcp.NewToolResultError("treatment planner is not configured"), nil
	}
	sess, errResult := s.session(req)
	if errResult != nil {
		return errResult, nil
	}
	plan, err := sess.TreatmentPlan(s.planner)
	if err != nil {
		return errorResult("treatment plan unavailable", err), nil
	}
	return marshalResult(plan)
}

// handleCatalog lists the reference data, optionally through a jq filter.
func (s *VetServer) handleCatalog(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	expression := req.GetString("jq", "")
	if expression == "" {
		return marshalResult(map[string]any{
			"animals":  s.catalog.Animals(),
			"symptoms": s.catalog.Symptoms(),
		})
	}

	out, err := s.catalog.Query(ctx, expression)
	if err != nil {
		return errorResult("catalog query failed", err), nil
	}
	return marshalResult(out)
}

// handleHistory lists saved diagnoses matching the filter arguments.
func (s *VetServer) handleHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.history == nil {
		return mcp.NewToolResultError("diagnosis history is not configured"), nil
	}

	filter := store.DiagnosisFilter{
		SessionID:  req.GetString("session_id", ""),
		AnimalType: schema.AnimalType(req.GetString("animal_type", "")),
		Urgency:    schema.Urgency(req.GetString("urgency", "")),
		Limit:      req.GetInt("limit", defaultHistoryLimit),
	}
	if since := req.GetString("since", ""); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("since must be RFC3339: %v", err)), nil
		}
		filter.Since = &t
	}

	diagnoses, err := s.history.ListDiagnoses(ctx, filter)
	if err != nil {
		return errorResult("history query failed", err), nil
	}
	return marshalResult(map[string]any{"diagnoses": diagnoses})
}

// --- Internal helpers ---

// session resolves the session_id argument. A non-nil result is the error to
// return to the client.
func (s *VetServer) session(req mcp.CallToolRequest) (*wizard.Session, *mcp.CallToolResult) {
	id, err := req.RequireString("session_id")
	if err != nil {
		return nil, mcp.NewToolResultError("session_id is required")
	}
	if s.sessions == nil {
		return nil, mcp.NewToolResultError("session manager is not configured")
	}
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, errorResult("session lookup failed", err)
	}
	return sess, nil
}

// mutate applies op to the requested session and returns the new snapshot.
func (s *VetServer) mutate(req mcp.CallToolRequest, failure string, op func(*wizard.Session) error) (*mcp.CallToolResult, error) {
	sess, errResult := s.session(req)
	if errResult != nil {
		return errResult, nil
	}
	if err := op(sess); err != nil {
		return errorResult(failure, err), nil
	}
	return marshalResult(sess.Snapshot())
}

// errorResult renders err as a tool error. Structured errors keep their code
// and details so agents can branch on them.
func errorResult(prefix string, err error) *mcp.CallToolResult {
	var se *schema.Error
	if errors.As(err, &se) {
		data, mErr := json.Marshal(se)
		if mErr == nil {
			return mcp.NewToolResultError(fmt.Sprintf("%s: %s", prefix, data))
		}
	}
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", prefix, err))
}

// captureSession maps the wizard session to the calling MCP client for notifications.
func (s *VetServer) captureSession(ctx context.Context, sessionID string) {
	if client := server.ClientSessionFromContext(ctx); client != nil {
		s.registry.Register(sessionID, client.SessionID())
	}
}

// marshalResult converts a value to a JSON text tool result.
func marshalResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultJSON(json.RawMessage(data))
}
