// Package batch drives many diagnosis cases through full wizard sessions
// concurrently, for regression runs over a rules file.
package batch

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/rendis/vetassist/pkg/schema"
)

// Case is one scripted wizard run.
type Case struct {
	Name     string            `yaml:"name"`
	Animal   schema.AnimalType `yaml:"animal"`
	Symptoms []string          `yaml:"symptoms"`
	Image    string            `yaml:"image,omitempty"` // file path, relative to the case file
	Expect   *Expectation      `yaml:"expect,omitempty"`
}

// Expectation is what a case's diagnosis must match. Empty fields are not checked.
type Expectation struct {
	Disease       string         `yaml:"disease,omitempty"`
	Urgency       schema.Urgency `yaml:"urgency,omitempty"`
	MinConfidence float64        `yaml:"min_confidence,omitempty"`
	Fail          bool           `yaml:"fail,omitempty"` // the analysis is expected to fail
}

// CaseFile is the YAML document read by LoadCases.
type CaseFile struct {
	Cases []Case `yaml:"cases"`
}

// ParseCases decodes a case file. Unknown fields are rejected. Relative image
// paths are resolved against baseDir.
func ParseCases(data []byte, baseDir string) ([]Case, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f CaseFile
	if err := dec.Decode(&f); err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeValidation, "parse case file: %s", err.Error()).WithCause(err)
	}
	if len(f.Cases) == 0 {
		return nil, schema.NewError(schema.ErrCodeValidation, "case file has no cases")
	}

	seen := make(map[string]struct{}, len(f.Cases))
	for i := range f.Cases {
		c := &f.Cases[i]
		if c.Name == "" {
			c.Name = fmt.Sprintf("case-%d", i+1)
		}
		if _, dup := seen[c.Name]; dup {
			return nil, schema.NewErrorf(schema.ErrCodeValidation, "duplicate case name %q", c.Name)
		}
		seen[c.Name] = struct{}{}

		if c.Image != "" && !filepath.IsAbs(c.Image) && baseDir != "" {
			c.Image = filepath.Join(baseDir, c.Image)
		}
	}
	return f.Cases, nil
}

// LoadCases reads and parses a case file from disk.
func LoadCases(path string) ([]Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read case file: %w", err)
	}
	return ParseCases(data, filepath.Dir(path))
}
