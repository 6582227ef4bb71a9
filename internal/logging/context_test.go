package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/vetassist/pkg/schema"
)

func fullContext() context.Context {
	ctx := WithSessionID(context.Background(), "sess-9")
	ctx = WithStep(ctx, schema.StepAnalysisResult)
	return WithRun(ctx, 4)
}

// jsonRecord logs one record through a CorrelationHandler and decodes it.
func jsonRecord(t *testing.T, ctx context.Context, wrap func(slog.Handler) slog.Handler) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	var h slog.Handler = NewCorrelationHandler(slog.NewJSONHandler(&buf, nil))
	if wrap != nil {
		h = wrap(h)
	}
	slog.New(h).InfoContext(ctx, "msg", "k", "v")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	return rec
}

func TestContextAccessors(t *testing.T) {
	bare := context.Background()
	assert.Empty(t, SessionID(bare))
	assert.Empty(t, Step(bare))
	assert.Zero(t, Run(bare))

	ctx := fullContext()
	assert.Equal(t, "sess-9", SessionID(ctx))
	assert.Equal(t, schema.StepAnalysisResult, Step(ctx))
	assert.Equal(t, uint64(4), Run(ctx))
}

func TestCorrelationHandler(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
		want map[string]any
		none []string
	}{
		{
			name: "all ids",
			ctx:  fullContext(),
			want: map[string]any{"session_id": "sess-9", "step": "analysis_result", "run": float64(4)},
		},
		{
			name: "session only",
			ctx:  WithSessionID(context.Background(), "sess-1"),
			want: map[string]any{"session_id": "sess-1"},
			none: []string{"step", "run"},
		},
		{
			name: "nothing set",
			ctx:  context.Background(),
			none: []string{"session_id", "step", "run"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := jsonRecord(t, tt.ctx, nil)
			for k, v := range tt.want {
				assert.Equal(t, v, rec[k], k)
			}
			for _, k := range tt.none {
				assert.NotContains(t, rec, k)
			}
			assert.Equal(t, "v", rec["k"])
		})
	}
}

func TestCorrelationHandler_WithAttrs(t *testing.T) {
	rec := jsonRecord(t, fullContext(), func(h slog.Handler) slog.Handler {
		return h.WithAttrs([]slog.Attr{slog.String("component", "runner")})
	})
	assert.Equal(t, "runner", rec["component"])
	assert.Equal(t, "sess-9", rec["session_id"])
}

func TestCorrelationHandler_WithGroup(t *testing.T) {
	rec := jsonRecord(t, fullContext(), func(h slog.Handler) slog.Handler {
		return h.WithGroup("wizard")
	})
	group, ok := rec["wizard"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "sess-9", group["session_id"])
	assert.Equal(t, "v", group["k"])
}

func TestLogWith(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))

	LogWith(fullContext(), base).Info("bound")
	assert.Contains(t, buf.String(), "session_id=sess-9 step=analysis_result run=4")

	buf.Reset()
	assert.Same(t, base, LogWith(context.Background(), base))
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
		"verbose": slog.LevelInfo,
		"":        slog.LevelInfo,
	} {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNew_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "warn")

	logger.Info("hidden")
	logger.WarnContext(WithSessionID(context.Background(), "s"), "shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown session_id=s")
}

func TestDiscard(t *testing.T) {
	assert.False(t, Discard().Enabled(context.Background(), slog.LevelError))
}
