// Package logging carries wizard correlation IDs (session, step, analysis
// run) through contexts and into slog records.
package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/rendis/vetassist/pkg/schema"
)

type ctxKey int

const (
	sessionIDKey ctxKey = iota
	stepKey
	runKey
)

func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

func WithStep(ctx context.Context, step schema.Step) context.Context {
	return context.WithValue(ctx, stepKey, step)
}

// WithRun tags ctx with an analysis run generation.
func WithRun(ctx context.Context, run uint64) context.Context {
	return context.WithValue(ctx, runKey, run)
}

// SessionID returns the session ID in ctx, or "".
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDKey).(string)
	return id
}

// Step returns the wizard step in ctx, or "".
func Step(ctx context.Context) schema.Step {
	step, _ := ctx.Value(stepKey).(schema.Step)
	return step
}

// Run returns the analysis run in ctx, or 0.
func Run(ctx context.Context) uint64 {
	run, _ := ctx.Value(runKey).(uint64)
	return run
}

// correlationAttrs lists the IDs set on ctx, skipping empty ones.
func correlationAttrs(ctx context.Context) []slog.Attr {
	var attrs []slog.Attr
	if id := SessionID(ctx); id != "" {
		attrs = append(attrs, slog.String("session_id", id))
	}
	if step := Step(ctx); step != "" {
		attrs = append(attrs, slog.String("step", string(step)))
	}
	if run := Run(ctx); run != 0 {
		attrs = append(attrs, slog.Uint64("run", run))
	}
	return attrs
}

// LogWith binds the correlation IDs in ctx to logger, for code that logs
// without passing a context.
func LogWith(ctx context.Context, logger *slog.Logger) *slog.Logger {
	attrs := correlationAttrs(ctx)
	if len(attrs) == 0 {
		return logger
	}
	args := make([]any, len(attrs))
	for i, a := range attrs {
		args[i] = a
	}
	return logger.With(args...)
}

// CorrelationHandler adds the correlation IDs of the record's context to
// every record logged through a *Context method.
type CorrelationHandler struct {
	next slog.Handler
}

func NewCorrelationHandler(next slog.Handler) *CorrelationHandler {
	return &CorrelationHandler{next: next}
}

func (h *CorrelationHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *CorrelationHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(correlationAttrs(ctx)...)
	return h.next.Handle(ctx, r)
}

func (h *CorrelationHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return NewCorrelationHandler(h.next.WithAttrs(attrs))
}

func (h *CorrelationHandler) WithGroup(name string) slog.Handler {
	return NewCorrelationHandler(h.next.WithGroup(name))
}

var levels = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// ParseLevel maps a configured level name to an slog.Level. Unknown names
// map to info.
func ParseLevel(name string) slog.Level {
	if l, ok := levels[strings.ToLower(strings.TrimSpace(name))]; ok {
		return l
	}
	return slog.LevelInfo
}

// New builds the process logger: text records on w with correlation IDs.
func New(w io.Writer, level string) *slog.Logger {
	return slog.New(NewCorrelationHandler(
		slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})))
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
