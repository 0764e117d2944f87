package pipeline

import (
	"fmt"
	"strings"

	"github.com/c360studio/semcode/export"
	"github.com/c360studio/semcode/transform"
	"github.com/c360studio/semcode/vocabulary/mcal"
)

// Step transforms a record context.
type Step interface {
	Apply(c *Context) error
}

// StepFunc adapts a function to Step.
type StepFunc func(c *Context) error

// Apply calls f(c).
func (f StepFunc) Apply(c *Context) error { return f(c) }

// Steps runs steps in order, stopping at the first error.
func Steps(steps ...Step) Step {
	return StepFunc(func(c *Context) error {
		for _, s := range steps {
			if err := s.Apply(c); err != nil {
				return err
			}
		}
		return nil
	})
}

// When runs steps only when key holds a non-blank value.
func When(key string, steps ...Step) Step {
	return WhenFunc(func(c *Context) bool { return c.Has(key) }, steps...)
}

// WhenFunc runs steps only when pred holds.
func WhenFunc(pred func(c *Context) bool, steps ...Step) Step {
	inner := Steps(steps...)
	return StepFunc(func(c *Context) error {
		if !pred(c) {
			return nil
		}
		return inner.Apply(c)
	})
}

// NotAbsent is a WhenFunc predicate that also rejects the NA marker.
func NotAbsent(key string) func(c *Context) bool {
	return func(c *Context) bool {
		s, ok := c.String(key)
		return ok && !transform.IsAbsent(s)
	}
}

// AddIRI mints an IRI under prefix from the value of field and stores it
// under key. Absolute IRIs are kept as they are.
func AddIRI(field, prefix, key string) Step {
	return StepFunc(func(c *Context) error {
		s, ok := c.String(field)
		if !ok {
			return fmt.Errorf("add IRI: no value for %q", field)
		}
		iri, err := transform.MintIRI(prefix, s)
		if err != nil {
			return err
		}
		c.Set(key, export.IRI(iri))
		return nil
	})
}

// AddDOI stores the resolver IRI of the DOI in field under key.
func AddDOI(field, key string) Step {
	return StepFunc(func(c *Context) error {
		s, ok := c.String(field)
		if !ok {
			return fmt.Errorf("add DOI: no value for %q", field)
		}
		iri, err := transform.DOIIRI(s)
		if err != nil {
			return err
		}
		c.Set(key, export.IRI(iri))
		return nil
	})
}

// SplitField splits a delimited field and stores the elements under key.
func SplitField(field, sep, key string) Step {
	return StepFunc(func(c *Context) error {
		s, ok := c.String(field)
		if !ok {
			c.Set(key, []string{})
			return nil
		}
		c.Set(key, transform.Split(s, sep))
		return nil
	})
}

// LookupCodes splits field on sep, normalizes every label against the
// table for kind and stores the concept IRIs under key. Unmapped labels
// become the kind's unknown code and are reported by the normalizer.
func LookupCodes(kind mcal.Kind, field, sep, key string) Step {
	return StepFunc(func(c *Context) error {
		if c.Normalizer() == nil {
			return fmt.Errorf("lookup codes: no normalizer configured")
		}
		s, _ := c.String(field)
		labels := transform.Split(s, sep)
		codes := c.Normalizer().NormalizeAll(kind, labels)
		iris := make([]export.IRI, len(codes))
		for i, code := range codes {
			iris[i] = export.IRI(mcal.CodeIRI(kind, code))
		}
		c.Set(key, iris)
		return nil
	})
}

// Change replaces the value of field with fn's result, stored under key.
func Change(field, key string, fn func(string) (any, error)) Step {
	return StepFunc(func(c *Context) error {
		s, ok := c.String(field)
		if !ok {
			return fmt.Errorf("change: no value for %q", field)
		}
		v, err := fn(s)
		if err != nil {
			return fmt.Errorf("change %q: %w", field, err)
		}
		c.Set(key, v)
		return nil
	})
}

// ChangeDate parses a serial or textual date in field and stores the time
// under key.
func ChangeDate(field, key string) Step {
	return Change(field, key, func(s string) (any, error) {
		return transform.ParseDate(s)
	})
}

// Sanitize stores the title in field with brackets replaced under key.
func Sanitize(field, key string) Step {
	return Change(field, key, func(s string) (any, error) {
		return transform.SanitizeTitle(s), nil
	})
}

// Assert adds one triple per combination of subject and object values.
// Subjects must resolve to IRIs.
func Assert(subject Term, predicate string, object Term) Step {
	return StepFunc(func(c *Context) error {
		subjects, err := subject.Resolve(c)
		if err != nil {
			return fmt.Errorf("assert %s subject: %w", predicate, err)
		}
		objects, err := object.Resolve(c)
		if err != nil {
			return fmt.Errorf("assert %s object: %w", predicate, err)
		}
		for _, s := range subjects {
			iri, err := subjectIRI(s)
			if err != nil {
				return fmt.Errorf("assert %s: %w", predicate, err)
			}
			for _, o := range objects {
				c.Assert(export.Triple{Subject: iri, Predicate: predicate, Object: o})
			}
		}
		return nil
	})
}

// Type asserts rdf:type class for subject.
func Type(subject Term, class string) Step {
	return Assert(subject, mcal.RDFType, ConstIRI(class))
}

func subjectIRI(v any) (string, error) {
	switch t := v.(type) {
	case export.IRI:
		return string(t), nil
	case export.Literal:
		if strings.HasPrefix(t.Value, "https://") || strings.HasPrefix(t.Value, "http://") {
			return t.Value, nil
		}
		return "", fmt.Errorf("subject %q is not an IRI", t.Value)
	default:
		return "", fmt.Errorf("subject of type %T is not an IRI", v)
	}
}
