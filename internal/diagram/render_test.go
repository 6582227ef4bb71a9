package diagram

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/vetassist/pkg/schema"
)

func runningModel() *DiagramModel {
	return Build(snapshotAt(schema.StepAnalysisResult, schema.AnalysisState{Status: schema.AnalysisRunning, Progress: 60}))
}

func TestRenderMermaid(t *testing.T) {
	out := RenderMermaid(runningModel())

	assert.True(t, strings.HasPrefix(out, "graph LR\n"))
	assert.Contains(t, out, "%% Session sess-1")
	assert.Contains(t, out, `animal_selection("Animal<br/>cat")`)
	assert.Contains(t, out, `analysis_result{{"Analysis<br/>60%"}}`)
	assert.Contains(t, out, "image_upload -->|analyze| analysis_result")
	assert.Contains(t, out, "class analysis_result running")
	assert.Contains(t, out, "class treatment_plan pending")
	assert.Contains(t, out, "classDef done")
}

func TestMermaidEscapeLabel(t *testing.T) {
	assert.Equal(t, "a #quot;b#quot; c", mermaidEscapeLabel("a \"b\"\nc"))
}

func TestRenderASCII(t *testing.T) {
	out := RenderASCII(runningModel())
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")

	require.Len(t, lines, 6)
	assert.Equal(t, "=== Session sess-1 ===", lines[0])
	assert.Contains(t, lines[1], "┌")
	assert.Contains(t, lines[2], "[RUN]")
	assert.Equal(t, 4, strings.Count(lines[3], "──▶"))
	assert.Contains(t, lines[3], "Treatment")
	assert.Contains(t, lines[4], "60%")
	assert.Contains(t, lines[5], "┘")
}

func TestRenderASCII_Empty(t *testing.T) {
	assert.Equal(t, "=== x ===\n", RenderASCII(&DiagramModel{Title: "x"}))
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, "[#####-----]  50%", ProgressBar(50, 10))
	assert.Equal(t, "[----------]   0%", ProgressBar(-5, 10))
	assert.Equal(t, "[##########] 100%", ProgressBar(140, 10))
}

func TestRenderImage(t *testing.T) {
	png, err := RenderImage(context.Background(), runningModel(), ImagePNG)
	require.NoError(t, err)
	require.True(t, len(png) > 8)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])

	svg, err := RenderImage(context.Background(), runningModel(), ImageSVG)
	require.NoError(t, err)
	assert.Contains(t, string(svg), "<svg")

	_, err = RenderImage(context.Background(), runningModel(), "gif")
	assert.Error(t, err)
}

func TestColorsFor(t *testing.T) {
	assert.Equal(t, "#1a5276", colorsFor(StatusRunning).fill)
	assert.Equal(t, colorsFor(StatusPending), colorsFor("unknown"))
}

func TestBuild_AnalysisIsHexagon(t *testing.T) {
	m := runningModel()
	for _, n := range m.Nodes {
		want := ShapeBox
		if n.ID == string(schema.StepAnalysisResult) {
			want = ShapeHexagon
		}
		assert.Equal(t, want, n.Shape, n.ID)
	}
}
