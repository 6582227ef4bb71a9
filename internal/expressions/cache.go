package expressions

import (
	"sync"

	"github.com/rendis/vetassist/pkg/schema"
)

// programCache memoizes compiled programs by source text. Compilation runs
// outside the lock; when two goroutines race on the same source the first
// stored program wins.
type programCache[P any] struct {
	mu    sync.RWMutex
	progs map[string]P
}

func newProgramCache[P any]() *programCache[P] {
	return &programCache[P]{progs: make(map[string]P)}
}

func (c *programCache[P]) get(src string, compile func(string) (P, error)) (P, error) {
	c.mu.RLock()
	p, ok := c.progs[src]
	c.mu.RUnlock()
	if ok {
		return p, nil
	}

	p, err := compile(src)
	if err != nil {
		var zero P
		return zero, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.progs[src]; ok {
		return prev, nil
	}
	c.progs[src] = p
	return p, nil
}

func (c *programCache[P]) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.progs)
}

func compileError(lang, expression string, err error) *schema.Error {
	return schema.NewErrorf(schema.ErrCodeValidation, "%s: cannot compile %q: %v", lang, expression, err).
		WithCause(err).
		WithDetails(map[string]any{"language": lang, "expression": expression})
}

func evalError(lang, expression string, err error) *schema.Error {
	return schema.NewErrorf(schema.ErrCodeExpression, "%s: evaluating %q: %v", lang, expression, err).
		WithCause(err).
		WithDetails(map[string]any{"language": lang, "expression": expression})
}

func emptyError(lang string) *schema.Error {
	return schema.NewErrorf(schema.ErrCodeValidation, "empty %s expression", lang)
}
