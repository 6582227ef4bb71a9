// Package catalog holds the read-only reference data the wizard draws on:
// animal types with their common breeds and the symptom list grouped by body system.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sort"

	"github.com/rendis/vetassist/internal/expressions"
	"github.com/rendis/vetassist/pkg/schema"
)

// Category groups symptoms by body system.
type Category string

const (
	CategoryGeneral      Category = "general"
	CategoryDigestive    Category = "digestive"
	CategoryRespiratory  Category = "respiratory"
	CategorySkin         Category = "skin"
	CategoryNeurological Category = "neurological"
)

// Severity is how alarming a symptom is on its own.
type Severity string

const (
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// Symptom is one selectable symptom.
type Symptom struct {
	ID        string   `json:"id" yaml:"id"`
	Name      string   `json:"name" yaml:"name"`
	LocalName string   `json:"local_name,omitempty" yaml:"local_name,omitempty"`
	Category  Category `json:"category" yaml:"category"`
	Severity  Severity `json:"severity" yaml:"severity"`
}

// Animal is one selectable animal type.
type Animal struct {
	Type      schema.AnimalType `json:"type" yaml:"type"`
	Name      string            `json:"name" yaml:"name"`
	LocalName string            `json:"local_name,omitempty" yaml:"local_name,omitempty"`
	Breeds    []string          `json:"breeds" yaml:"breeds"`
}

// Catalog is an immutable lookup over animals and symptoms. Safe for concurrent use.
type Catalog struct {
	animals  []Animal
	symptoms []Symptom
	byID     map[string]int
	jq       *expressions.GoJQEngine
}

// New builds a catalog, rejecting unknown animal types and duplicate symptom IDs.
func New(animals []Animal, symptoms []Symptom) (*Catalog, error) {
	seenAnimal := make(map[schema.AnimalType]bool, len(animals))
	for _, a := range animals {
		if !a.Type.Valid() {
			return nil, schema.NewErrorf(schema.ErrCodeInvalidAnimalType, "catalog animal %q is not a known type", a.Type)
		}
		if seenAnimal[a.Type] {
			return nil, schema.NewErrorf(schema.ErrCodeValidation, "duplicate catalog animal %q", a.Type)
		}
		seenAnimal[a.Type] = true
	}

	byID := make(map[string]int, len(symptoms))
	for i, s := range symptoms {
		if s.ID == "" {
			return nil, schema.NewErrorf(schema.ErrCodeInvalidSymptom, "catalog symptom at index %d has no id", i)
		}
		if _, dup := byID[s.ID]; dup {
			return nil, schema.NewErrorf(schema.ErrCodeValidation, "duplicate catalog symptom %q", s.ID)
		}
		byID[s.ID] = i
	}

	return &Catalog{
		animals:  slices.Clone(animals),
		symptoms: slices.Clone(symptoms),
		byID:     byID,
		jq:       expressions.NewGoJQEngine(),
	}, nil
}

// Animals returns every animal type in display order.
func (c *Catalog) Animals() []Animal {
	return slices.Clone(c.animals)
}

// Animal looks up one animal type.
func (c *Catalog) Animal(t schema.AnimalType) (Animal, bool) {
	for _, a := range c.animals {
		if a.Type == t {
			return a, true
		}
	}
	return Animal{}, false
}

// Symptoms returns every symptom in display order.
func (c *Catalog) Symptoms() []Symptom {
	return slices.Clone(c.symptoms)
}

// Symptom looks up one symptom by ID.
func (c *Catalog) Symptom(id string) (Symptom, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Symptom{}, false
	}
	return c.symptoms[i], true
}

// Has reports whether id names a catalog symptom.
func (c *Catalog) Has(id string) bool {
	_, ok := c.byID[id]
	return ok
}

// ByCategory returns the symptoms in one category, in display order.
func (c *Catalog) ByCategory(cat Category) []Symptom {
	var out []Symptom
	for _, s := range c.symptoms {
		if s.Category == cat {
			out = append(out, s)
		}
	}
	return out
}

// Categories returns the distinct, sorted categories of the given symptom IDs.
// Unknown IDs are ignored.
func (c *Catalog) Categories(ids []string) []string {
	set := make(map[string]struct{})
	for _, id := range ids {
		if s, ok := c.Symptom(id); ok {
			set[string(s.Category)] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for cat := range set {
		out = append(out, cat)
	}
	sort.Strings(out)
	return out
}

// MaxSeverity returns the most severe level among the given symptom IDs, or
// the empty string when none are known.
func (c *Catalog) MaxSeverity(ids []string) Severity {
	rank := map[Severity]int{SeverityMild: 1, SeverityModerate: 2, SeveritySevere: 3}
	var best Severity
	for _, id := range ids {
		if s, ok := c.Symptom(id); ok && rank[s.Severity] > rank[best] {
			best = s.Severity
		}
	}
	return best
}

// Query runs a jq expression over {"animals": [...], "symptoms": [...]}.
func (c *Catalog) Query(ctx context.Context, expression string) (any, error) {
	doc, err := c.document()
	if err != nil {
		return nil, err
	}
	return c.jq.Evaluate(ctx, expression, doc)
}

func (c *Catalog) document() (map[string]any, error) {
	raw, err := json.Marshal(struct {
		Animals  []Animal  `json:"animals"`
		Symptoms []Symptom `json:"symptoms"`
	}{c.animals, c.symptoms})
	if err != nil {
		return nil, fmt.Errorf("encode catalog: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return doc, nil
}
