// Package diagram renders the wizard's step indicator: which steps are done,
// which one is current and how the analysis is going.
package diagram

// Status is the display state of one step node.
type Status string

const (
	StatusDone    Status = "done"
	StatusCurrent Status = "current"
	StatusRunning Status = "running"
	StatusFailed  Status = "failed"
	StatusPending Status = "pending"
)

// Shape is how a renderer outlines a node.
type Shape int

const (
	ShapeBox Shape = iota
	ShapeHexagon
)

// DiagramModel is what every renderer draws: one node per wizard step, in
// order, with edges between consecutive steps.
type DiagramModel struct {
	Title string
	Nodes []*Node
	Edges []Edge
}

type Node struct {
	ID     string
	Label  string
	Detail string // step input or analysis state, may be empty
	Status Status
	Shape  Shape
}

type Edge struct {
	From  string
	To    string
	Label string
}

type colors struct {
	fill, stroke, font string
}

// palette is shared by the Mermaid classDefs and graphviz node styles.
var palette = []struct {
	status Status
	colors
}{
	{StatusDone, colors{"#2d6a2d", "#1a4a1a", "#fff"}},
	{StatusCurrent, colors{"#b7791a", "#8a5c14", "#fff"}},
	{StatusRunning, colors{"#1a5276", "#0e3a52", "#fff"}},
	{StatusFailed, colors{"#8b1a1a", "#5c0e0e", "#fff"}},
	{StatusPending, colors{"#d3d3d3", "#9a9a9a", "#000"}},
}

func colorsFor(s Status) colors {
	for _, p := range palette {
		if p.status == s {
			return p.colors
		}
	}
	return colors{"#d3d3d3", "#9a9a9a", "#000"}
}

// edgeBetween returns the edge from -> to, if the model has one.
func (m *DiagramModel) edgeBetween(from, to string) (Edge, bool) {
	for _, e := range m.Edges {
		if e.From == from && e.To == to {
			return e, true
		}
	}
	return Edge{}, false
}
