// Package pipeline runs declarative record-to-triple pipelines. A pipeline is
// a list of steps applied to every record of a source; steps derive values
// (IRIs, split lists, vocabulary codes, dates) and assert triples, which the
// runner hands to one or more sinks in source order.
package pipeline

import (
	"strings"

	"github.com/c360studio/semcode/export"
	"github.com/c360studio/semcode/normalize"
	"github.com/c360studio/semcode/source"
)

// Context is the state of one record while the steps run.
type Context struct {
	Record source.Record

	normalizer *normalize.Normalizer
	vars       map[string]any
	triples    []export.Triple
}

// NewContext creates the context for rec.
func NewContext(rec source.Record, n *normalize.Normalizer) *Context {
	return &Context{
		Record:     rec,
		normalizer: n,
		vars:       make(map[string]any),
	}
}

// Set stores a derived value under key. Derived keys shadow record fields.
func (c *Context) Set(key string, value any) {
	c.vars[key] = value
}

// Value returns the derived value for key, or the trimmed record field when
// it is non-blank.
func (c *Context) Value(key string) (any, bool) {
	if v, ok := c.vars[key]; ok {
		return v, true
	}
	if c.Record.Has(key) {
		return strings.TrimSpace(c.Record.Value(key)), true
	}
	return nil, false
}

// String returns the value for key as a string.
func (c *Context) String(key string) (string, bool) {
	v, ok := c.Value(key)
	if !ok {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case export.IRI:
		return string(t), true
	default:
		return "", false
	}
}

// Has reports whether key resolves to a value.
func (c *Context) Has(key string) bool {
	_, ok := c.Value(key)
	return ok
}

// Assert records a triple.
func (c *Context) Assert(t export.Triple) {
	c.triples = append(c.triples, t)
}

// Triples returns the triples asserted so far.
func (c *Context) Triples() []export.Triple {
	return c.triples
}

// Normalizer returns the vocabulary normalizer of the run.
func (c *Context) Normalizer() *normalize.Normalizer {
	return c.normalizer
}
