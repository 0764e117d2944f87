package pipeline

import (
	"fmt"
	"time"

	"github.com/c360studio/semcode/export"
	"github.com/c360studio/semcode/transform"
)

// Term resolves the subject or object of an assertion against a record.
// A term may resolve to several values, in which case one triple is asserted
// per value.
type Term interface {
	Resolve(c *Context) ([]any, error)
}

// TermFunc adapts a function to Term.
type TermFunc func(c *Context) ([]any, error)

// Resolve calls f(c).
func (f TermFunc) Resolve(c *Context) ([]any, error) { return f(c) }

// Const is a fixed term such as a class IRI.
func Const(v any) Term {
	return TermFunc(func(*Context) ([]any, error) { return []any{v}, nil })
}

// ConstIRI is a fixed IRI term.
func ConstIRI(iri string) Term {
	return Const(export.IRI(iri))
}

// Key resolves to the value stored under key. Strings become string
// literals, times become xsd:date literals, and lists expand to one value
// per element.
func Key(key string) Term {
	return TermFunc(func(c *Context) ([]any, error) {
		v, ok := c.Value(key)
		if !ok {
			return nil, fmt.Errorf("no value for %q", key)
		}
		return expandValue(v), nil
	})
}

// Typed resolves to the string value of key with the given datatype.
func Typed(key, datatype string) Term {
	return TermFunc(func(c *Context) ([]any, error) {
		s, ok := c.String(key)
		if !ok {
			return nil, fmt.Errorf("no value for %q", key)
		}
		return []any{export.Typed(s, datatype)}, nil
	})
}

// IRIOf mints IRIs under prefix from the value (or each listed value) of key.
func IRIOf(prefix, key string) Term {
	return TermFunc(func(c *Context) ([]any, error) {
		v, ok := c.Value(key)
		if !ok {
			return nil, fmt.Errorf("no value for %q", key)
		}
		var raw []string
		switch t := v.(type) {
		case string:
			raw = []string{t}
		case []string:
			raw = t
		case export.IRI:
			return []any{t}, nil
		case []export.IRI:
			return expandValue(t), nil
		default:
			return nil, fmt.Errorf("cannot mint IRI from %T in %q", v, key)
		}
		out := make([]any, 0, len(raw))
		for _, s := range raw {
			iri, err := transform.MintIRI(prefix, s)
			if err != nil {
				return nil, err
			}
			out = append(out, export.IRI(iri))
		}
		return out, nil
	})
}

func expandValue(v any) []any {
	switch t := v.(type) {
	case string:
		return []any{export.String(t)}
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = export.String(s)
		}
		return out
	case []export.IRI:
		out := make([]any, len(t))
		for i, iri := range t {
			out[i] = iri
		}
		return out
	case time.Time:
		return []any{export.Date(t)}
	default:
		return []any{v}
	}
}
