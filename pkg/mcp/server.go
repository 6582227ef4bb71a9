// Package mcp exposes diagnosis wizard sessions as MCP tools over stdio.
package mcp

import (
	"context"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/rendis/vetassist/internal/catalog"
	"github.com/rendis/vetassist/internal/imaging"
	"github.com/rendis/vetassist/internal/sessions"
	"github.com/rendis/vetassist/internal/store"
	"github.com/rendis/vetassist/internal/wizard"
)

// ImageAcquirer turns an uploaded image into a wizard image reference.
type ImageAcquirer interface {
	AcquireFile(ctx context.Context, path string) (*imaging.Image, error)
}

// HistoryReader lists saved diagnoses.
type HistoryReader interface {
	ListDiagnoses(ctx context.Context, filter store.DiagnosisFilter) ([]*store.Diagnosis, error)
}

// ServerDeps holds the dependencies for creating a VetServer.
type ServerDeps struct {
	Sessions *sessions.Manager
	Catalog  *catalog.Catalog
	Planner  wizard.Planner
	Images   ImageAcquirer
	History  HistoryReader // optional, vet.history reports an error without it
	Registry *SessionRegistry
	Logger   *slog.Logger
}

// VetServer wraps an MCP server with wizard tool handlers.
type VetServer struct {
	sessions  *sessions.Manager
	catalog   *catalog.Catalog
	planner   wizard.Planner
	images    ImageAcquirer
	history   HistoryReader
	registry  *SessionRegistry
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewVetServer creates a VetServer with every tool registered.
func NewVetServer(deps ServerDeps) *VetServer {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	registry := deps.Registry
	if registry == nil {
		registry = NewSessionRegistry()
	}
	cat := deps.Catalog
	if cat == nil {
		cat = catalog.Default()
	}
	images := deps.Images
	if images == nil {
		images = imaging.NewAcquirer(imaging.DefaultMaxSize)
	}

	s := &VetServer{
		sessions: deps.Sessions,
		catalog:  cat,
		planner:  deps.Planner,
		images:   images,
		history:  deps.History,
		registry: registry,
		logger:   logger,
	}

	hooks := &server.Hooks{}
	hooks.AddOnUnregisterSession(s.releaseClient)

	mcpSrv := server.NewMCPServer(
		"vetassist",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithHooks(hooks),
		server.WithInstructions("VetAssist walks a pet owner through a five step diagnosis wizard: "+
			"animal_selection, symptom_selection, image_upload, analysis_result, treatment_plan. "+
			"Create a session with vet.session.create, fill it with vet.animal.set, vet.symptom.toggle and "+
			"vet.image.set, move with vet.step.advance. Advancing past image_upload starts the analysis; "+
			"poll vet.session.state until analysis.status is succeeded, then advance and call vet.treatment.plan. "+
			"Use vet.catalog to list valid animal types and symptom IDs."),
	)

	mcpSrv.AddTools(s.tools()...)
	s.mcpServer = mcpSrv
	return s
}

// Serve starts the stdio transport and blocks until ctx is cancelled or stdin closes.
func (s *VetServer) Serve(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcpServer)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// MCPServer returns the underlying MCPServer for testing or custom transports.
func (s *VetServer) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// Registry returns the wizard-to-client session registry.
func (s *VetServer) Registry() *SessionRegistry {
	return s.registry
}

// releaseClient discards the wizard sessions of a client that disconnected.
// Sessions already gone (closed or expired) are skipped.
func (s *VetServer) releaseClient(_ context.Context, cs server.ClientSession) {
	for _, id := range s.registry.Remove(cs.SessionID()) {
		if s.sessions == nil {
			return
		}
		if err := s.sessions.Discard(id); err != nil {
			s.logger.Debug("release session", slog.String("session_id", id), slog.Any("error", err))
			continue
		}
		s.logger.Info("session released after client disconnect",
			slog.String("session_id", id), slog.String("client", cs.SessionID()))
	}
}

func (s *VetServer) tools() []server.ServerTool {
	return []server.ServerTool{
		{Tool: sessionCreateTool(), Handler: s.handleSessionCreate},
		{Tool: sessionStateTool(), Handler: s.handleSessionState},
		{Tool: sessionResetTool(), Handler: s.handleSessionReset},
		{Tool: sessionCloseTool(), Handler: s.handleSessionClose},
		{Tool: sessionDiagramTool(), Handler: s.handleSessionDiagram},
		{Tool: animalSetTool(), Handler: s.handleAnimalSet},
		{Tool: symptomToggleTool(), Handler: s.handleSymptomToggle},
		{Tool: imageSetTool(), Handler: s.handleImageSet},
		{Tool: imageClearTool(), Handler: s.handleImageClear},
		{Tool: stepAdvanceTool(), Handler: s.handleStepAdvance},
		{Tool: stepRetreatTool(), Handler: s.handleStepRetreat},
		{Tool: stepGoToTool(), Handler: s.handleStepGoTo},
		{Tool: analysisCancelTool(), Handler: s.handleAnalysisCancel},
		{Tool: analysisWaitTool(), Handler: s.handleAnalysisWait},
		{Tool: treatmentPlanTool(), Handler: s.handleTreatmentPlan},
		{Tool: catalogTool(), Handler: s.handleCatalog},
		{Tool: historyTool(), Handler: s.handleHistory},
	}
}

// --- Tool definitions ---

func sessionIDParam() mcp.ToolOption {
	return mcp.WithString("session_id", mcp.Required(), mcp.Description("Wizard session ID returned by vet.session.create"))
}

func sessionCreateTool() mcp.Tool {
	return mcp.NewTool("vet.session.create",
		mcp.WithDescription("Start a new diagnosis wizard session at the animal selection step"),
	)
}

func sessionStateTool() mcp.Tool {
	return mcp.NewTool("vet.session.state",
		mcp.WithDescription("Get the current step, collected inputs, analysis progress and result of a session"),
		sessionIDParam(),
	)
}

func sessionResetTool() mcp.Tool {
	return mcp.NewTool("vet.session.reset",
		mcp.WithDescription("Clear all inputs and return the session to animal selection"),
		sessionIDParam(),
	)
}

func sessionCloseTool() mcp.Tool {
	return mcp.NewTool("vet.session.close",
		mcp.WithDescription("Discard a session, cancelling any running analysis"),
		sessionIDParam(),
	)
}

func sessionDiagramTool() mcp.Tool {
	return mcp.NewTool("vet.session.diagram",
		mcp.WithDescription("Render the session's step indicator as ASCII art, a Mermaid flowchart or a PNG image"),
		sessionIDParam(),
		mcp.WithString("format", mcp.Required(),
			mcp.Enum("ascii", "mermaid", "image"),
			mcp.Description("Output format: ascii (text), mermaid (flowchart syntax), or image (PNG)"),
		),
	)
}

func animalSetTool() mcp.Tool {
	return mcp.NewTool("vet.animal.set",
		mcp.WithDescription("Select the animal type"),
		sessionIDParam(),
		mcp.WithString("animal_type", mcp.Required(),
			mcp.Enum("dog", "cat", "bird", "rabbit", "other"),
			mcp.Description("Animal type"),
		),
	)
}

func symptomToggleTool() mcp.Tool {
	return mcp.NewTool("vet.symptom.toggle",
		mcp.WithDescription("Add a symptom if absent, remove it if present"),
		sessionIDParam(),
		mcp.WithString("symptom_id", mcp.Required(), mcp.Description("Symptom ID from vet.catalog")),
	)
}

func imageSetTool() mcp.Tool {
	return mcp.NewTool("vet.image.set",
		mcp.WithDescription("Attach a photo of the animal from a local file (jpeg, png, gif or webp, at most 10 MiB)"),
		sessionIDParam(),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the image file")),
	)
}

func imageClearTool() mcp.Tool {
	return mcp.NewTool("vet.image.clear",
		mcp.WithDescription("Remove the attached photo"),
		sessionIDParam(),
	)
}

func stepAdvanceTool() mcp.Tool {
	return mcp.NewTool("vet.step.advance",
		mcp.WithDescription("Move to the next step if the current step's guard is satisfied. Leaving image_upload starts the analysis"),
		sessionIDParam(),
	)
}

func stepRetreatTool() mcp.Tool {
	return mcp.NewTool("vet.step.retreat",
		mcp.WithDescription("Move to the previous step. Leaving analysis_result cancels a running analysis"),
		sessionIDParam(),
	)
}

func stepGoToTool() mcp.Tool {
	return mcp.NewTool("vet.step.goto",
		mcp.WithDescription("Jump directly to a step without checking guards"),
		sessionIDParam(),
		mcp.WithString("step", mcp.Required(),
			mcp.Enum("animal_selection", "symptom_selection", "image_upload", "analysis_result", "treatment_plan"),
			mcp.Description("Target step"),
		),
	)
}

func analysisCancelTool() mcp.Tool {
	return mcp.NewTool("vet.analysis.cancel",
		mcp.WithDescription("Cancel the running analysis. A no-op when nothing is running"),
		sessionIDParam(),
	)
}

func analysisWaitTool() mcp.Tool {
	return mcp.NewTool("vet.analysis.wait",
		mcp.WithDescription("Block until the running analysis finishes or the timeout elapses, then return the session state"),
		sessionIDParam(),
		mcp.WithNumber("timeout_seconds", mcp.Description("Maximum wait in seconds (default: 30)")),
	)
}

func treatmentPlanTool() mcp.Tool {
	return mcp.NewTool("vet.treatment.plan",
		mcp.WithDescription("Get the treatment plan for the diagnosis. Only available at the treatment_plan step"),
		sessionIDParam(),
	)
}

func catalogTool() mcp.Tool {
	return mcp.NewTool("vet.catalog",
		mcp.WithDescription("List animal types and symptoms, optionally filtered by a jq expression over {animals, symptoms}"),
		mcp.WithString("jq", mcp.Description("jq expression, e.g. '.symptoms[] | select(.category == \"respiratory\") | .id'")),
	)
}

func historyTool() mcp.Tool {
	return mcp.NewTool("vet.history",
		mcp.WithDescription("List saved diagnoses, newest first"),
		mcp.WithString("session_id", mcp.Description("Only diagnoses from this session")),
		mcp.WithString("animal_type", mcp.Description("Only diagnoses for this animal type")),
		mcp.WithString("urgency", mcp.Enum("low", "medium", "high", "emergency"), mcp.Description("Only diagnoses with this urgency")),
		mcp.WithString("since", mcp.Description("RFC3339 lower bound on creation time")),
		mcp.WithNumber("limit", mcp.Description("Maximum records (default: 20)")),
	)
}
