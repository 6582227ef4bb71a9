package diagram

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// statusTag returns a short ASCII indicator for a node status.
func statusTag(status Status) string {
	switch status {
	case StatusDone:
		return "[OK]"
	case StatusCurrent:
		return "[>>]"
	case StatusRunning:
		return "[RUN]"
	case StatusFailed:
		return "[FAIL]"
	case StatusPending:
		return "[  ]"
	default:
		return ""
	}
}

// RenderASCII renders a DiagramModel as one row of boxes joined by arrows.
//
//	┌──────────┐   ┌──────────┐
//	│ [OK]     │   │ [>>]     │
//	│ Animal   │──▶│ Symptoms │
//	│ dog      │   │          │
//	└──────────┘   └──────────┘
func RenderASCII(model *DiagramModel) string {
	var b strings.Builder

	if model.Title != "" {
		b.WriteString(fmt.Sprintf("=== %s ===\n", model.Title))
	}
	if len(model.Nodes) == 0 {
		return b.String()
	}

	boxes := make([]asciiBox, len(model.Nodes))
	for i, node := range model.Nodes {
		boxes[i] = makeBox(node)
	}

	const gap = "   "
	const arrow = "──▶"
	for row := 0; row < boxHeight; row++ {
		for i, box := range boxes {
			if i > 0 {
				_, linked := model.edgeBetween(model.Nodes[i-1].ID, model.Nodes[i].ID)
				if row == boxHeight/2 && linked {
					b.WriteString(arrow)
				} else {
					b.WriteString(gap)
				}
			}
			b.WriteString(box.lines[row])
		}
		b.WriteString("\n")
	}
	return b.String()
}

const boxHeight = 5

type asciiBox struct {
	lines [boxHeight]string
}

func makeBox(node *Node) asciiBox {
	content := []string{statusTag(node.Status), node.Label, node.Detail}
	width := 0
	for _, c := range content {
		width = max(width, utf8.RuneCountInString(c))
	}
	width += 2

	var box asciiBox
	box.lines[0] = "┌" + strings.Repeat("─", width) + "┐"
	for i, c := range content {
		pad := width - 1 - utf8.RuneCountInString(c)
		box.lines[i+1] = "│ " + c + strings.Repeat(" ", pad) + "│"
	}
	box.lines[4] = "└" + strings.Repeat("─", width) + "┘"
	return box
}

// ProgressBar renders a fixed-width progress bar such as "[#####-----]  50%".
func ProgressBar(progress, width int) string {
	progress = min(max(progress, 0), 100)
	filled := progress * width / 100
	return fmt.Sprintf("[%s%s] %3d%%", strings.Repeat("#", filled), strings.Repeat("-", width-filled), progress)
}
