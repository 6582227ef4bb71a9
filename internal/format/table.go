// Package format renders diagnoses, treatment plans, history and batch
// reports as terminal or Markdown tables.
package format

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Mode controls the output format.
type Mode int

const (
	ASCII    Mode = iota // box-drawn terminal tables
	Markdown             // GitHub-flavoured Markdown tables
)

// ParseMode maps "markdown"/"md" to Markdown and anything else to ASCII.
func ParseMode(s string) Mode {
	switch s {
	case "markdown", "md":
		return Markdown
	default:
		return ASCII
	}
}

// ColumnAlign specifies the horizontal alignment for a column.
type ColumnAlign int

const (
	AlignDefault ColumnAlign = iota
	AlignLeft
	AlignCenter
	AlignRight
)

// ColumnConfig controls per-column formatting.
type ColumnConfig struct {
	Number   int // 1-based column index
	Align    ColumnAlign
	MaxWidth int // 0 = unlimited
}

// TableBuilder builds a table once and renders it in the Mode chosen at creation.
type TableBuilder interface {
	Title(title string)
	Header(cols ...string)
	Row(vals ...any)
	Footer(vals ...any)
	Columns(cfgs ...ColumnConfig)
	String() string
}

// NewTable returns a TableBuilder that renders in the given Mode.
func NewTable(m Mode) TableBuilder {
	w := table.NewWriter()
	if m == ASCII {
		w.SetStyle(table.StyleLight)
	}
	// Footers carry totals and labels such as "130,000 Toman"; keep their case.
	w.Style().Format.Footer = text.FormatDefault
	return &prettyAdapter{writer: w, mode: m}
}

type prettyAdapter struct {
	writer table.Writer
	mode   Mode
}

func (a *prettyAdapter) Title(title string) {
	a.writer.SetTitle(title)
}

func (a *prettyAdapter) Header(cols ...string) {
	row := make(table.Row, len(cols))
	for i, c := range cols {
		row[i] = c
	}
	a.writer.AppendHeader(row)
}

func (a *prettyAdapter) Row(vals ...any) {
	a.writer.AppendRow(append(table.Row(nil), vals...))
}

func (a *prettyAdapter) Footer(vals ...any) {
	a.writer.AppendFooter(append(table.Row(nil), vals...))
}

func (a *prettyAdapter) Columns(cfgs ...ColumnConfig) {
	goCfgs := make([]table.ColumnConfig, len(cfgs))
	for i, c := range cfgs {
		goCfgs[i] = table.ColumnConfig{
			Number:   c.Number,
			Align:    toTextAlign(c.Align),
			WidthMax: c.MaxWidth,
		}
	}
	a.writer.SetColumnConfigs(goCfgs)
}

func (a *prettyAdapter) String() string {
	if a.mode == Markdown {
		return a.writer.RenderMarkdown()
	}
	return a.writer.Render()
}

func toTextAlign(a ColumnAlign) text.Align {
	switch a {
	case AlignLeft:
		return text.AlignLeft
	case AlignRight:
		return text.AlignRight
	case AlignCenter:
		return text.AlignCenter
	default:
		return text.AlignDefault
	}
}
