package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/rendis/vetassist/internal/format"
)

// outputFormat is the --format flag shared by the reporting commands.
type outputFormat string

const (
	outputTable    outputFormat = "table"
	outputMarkdown outputFormat = "markdown"
	outputJSON     outputFormat = "json"
)

func parseOutputFormat(s string) (outputFormat, error) {
	switch outputFormat(s) {
	case outputTable, outputMarkdown, outputJSON:
		return outputFormat(s), nil
	default:
		return "", fmt.Errorf("unknown format %q: must be table, markdown or json", s)
	}
}

func (f outputFormat) mode() format.Mode {
	if f == outputMarkdown {
		return format.Markdown
	}
	return format.ASCII
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
