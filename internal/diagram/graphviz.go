package diagram

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
)

// ImageFormat selects the graphviz output format.
type ImageFormat string

const (
	ImagePNG ImageFormat = "png"
	ImageSVG ImageFormat = "svg"
)

var imageFormats = map[ImageFormat]graphviz.Format{
	"":       graphviz.PNG,
	ImagePNG: graphviz.PNG,
	ImageSVG: graphviz.SVG,
}

// RenderImage lays the model out with dot and encodes it as PNG (the
// default) or SVG.
func RenderImage(ctx context.Context, model *DiagramModel, format ImageFormat) ([]byte, error) {
	gvFormat, ok := imageFormats[format]
	if !ok {
		return nil, fmt.Errorf("diagram: unsupported image format %q", format)
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("diagram: start graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.DOT)

	g, err := gv.Graph()
	if err != nil {
		return nil, fmt.Errorf("diagram: new graph: %w", err)
	}
	defer g.Close()
	if err := populate(g, model); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, gvFormat, &buf); err != nil {
		return nil, fmt.Errorf("diagram: render %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

func populate(g *cgraph.Graph, model *DiagramModel) error {
	g.SetRankDir(cgraph.LRRank)
	if model.Title != "" {
		g.SetLabel(model.Title)
	}

	byID := make(map[string]*cgraph.Node, len(model.Nodes))
	for _, n := range model.Nodes {
		gn, err := g.CreateNodeByName(n.ID)
		if err != nil {
			return fmt.Errorf("diagram: node %s: %w", n.ID, err)
		}
		label := n.Label
		if n.Detail != "" {
			label += "\n" + n.Detail
		}
		gn.SetLabel(label)
		styleNode(gn, n)
		byID[n.ID] = gn
	}

	for _, e := range model.Edges {
		from, to := byID[e.From], byID[e.To]
		if from == nil || to == nil {
			continue
		}
		ge, err := g.CreateEdgeByName("", from, to)
		if err != nil {
			return fmt.Errorf("diagram: edge %s->%s: %w", e.From, e.To, err)
		}
		if e.Label != "" {
			ge.SetLabel(e.Label)
		}
	}
	return nil
}

func styleNode(gn *cgraph.Node, n *Node) {
	shape := cgraph.BoxShape
	if n.Shape == ShapeHexagon {
		shape = cgraph.HexagonShape
	}
	c := colorsFor(n.Status)
	gn.SetShape(shape)
	gn.SetStyle(cgraph.FilledNodeStyle)
	gn.SetFillColor(c.fill)
	gn.SetColor(c.stroke)
	gn.SetFontColor(c.font)
}
