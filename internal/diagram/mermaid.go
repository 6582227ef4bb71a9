package diagram

import (
	"fmt"
	"strings"
)

var (
	mermaidID    = strings.NewReplacer(".", "_", "-", "_", " ", "_")
	mermaidLabel = strings.NewReplacer(`"`, "#quot;", "\n", " ")
)

// RenderMermaid renders the model as a left-to-right Mermaid flowchart with
// one class per node status.
func RenderMermaid(model *DiagramModel) string {
	var b strings.Builder
	b.WriteString("graph LR\n")
	if model.Title != "" {
		fmt.Fprintf(&b, "    %%%% %s\n", model.Title)
	}

	for _, n := range model.Nodes {
		label := mermaidEscapeLabel(n.Label)
		if n.Detail != "" {
			label += "<br/>" + mermaidEscapeLabel(n.Detail)
		}
		open, closing := "(", ")"
		if n.Shape == ShapeHexagon {
			open, closing = "{{", "}}"
		}
		fmt.Fprintf(&b, "    %s%s%q%s\n", mermaidID.Replace(n.ID), open, label, closing)
	}

	for _, e := range model.Edges {
		arrow := "-->"
		if e.Label != "" {
			arrow += "|" + mermaidEscapeLabel(e.Label) + "|"
		}
		fmt.Fprintf(&b, "    %s %s %s\n", mermaidID.Replace(e.From), arrow, mermaidID.Replace(e.To))
	}

	b.WriteString("\n")
	for _, p := range palette {
		fmt.Fprintf(&b, "    classDef %s fill:%s,stroke:%s,color:%s\n", p.status, p.fill, p.stroke, p.font)
	}
	for _, n := range model.Nodes {
		if n.Status != "" {
			fmt.Fprintf(&b, "    class %s %s\n", mermaidID.Replace(n.ID), n.Status)
		}
	}
	return b.String()
}

func mermaidEscapeLabel(s string) string {
	return mermaidLabel.Replace(s)
}
