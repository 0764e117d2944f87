package export

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/c360studio/semcode/vocabulary/mcal"
)

// Sink receives the triples asserted for one record.
type Sink interface {
	Write(ctx context.Context, triples []Triple) error
}

type stored struct {
	subject   string
	predicate string
	object    term
}

// Graph is an in-memory triple set. Identical triples are stored once and
// insertion order is preserved. Graph is safe for concurrent use.
type Graph struct {
	name string

	mu       sync.RWMutex
	prefixes map[string]string
	triples  []stored
	seen     map[string]struct{}
}

// NewGraph creates an empty graph. name is the named-graph IRI the triples
// belong to; it may be empty.
func NewGraph(name string) *Graph {
	return &Graph{
		name:     name,
		prefixes: mcal.Prefixes(),
		seen:     make(map[string]struct{}),
	}
}

// Name returns the named-graph IRI.
func (g *Graph) Name() string {
	return g.name
}

// SetPrefix declares a namespace prefix used when serializing.
func (g *Graph) SetPrefix(prefix, iri string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prefixes[prefix] = iri
}

// Prefixes returns a copy of the declared prefixes.
func (g *Graph) Prefixes() map[string]string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make(map[string]string, len(g.prefixes))
	for k, v := range g.prefixes {
		out[k] = v
	}
	return out
}

// Add inserts triples and returns how many were new.
func (g *Graph) Add(triples ...Triple) (int, error) {
	normalized := make([]stored, 0, len(triples))
	for _, t := range triples {
		s, err := normalize(t)
		if err != nil {
			return 0, err
		}
		normalized = append(normalized, s)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	added := 0
	for _, s := range normalized {
		key := s.subject + "\x00" + s.predicate + "\x00" + s.object.key()
		if _, dup := g.seen[key]; dup {
			continue
		}
		g.seen[key] = struct{}{}
		g.triples = append(g.triples, s)
		added++
	}
	return added, nil
}

// Write implements Sink.
func (g *Graph) Write(_ context.Context, triples []Triple) error {
	_, err := g.Add(triples...)
	return err
}

// Len returns the number of distinct triples.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.triples)
}

// Triples returns the stored triples in insertion order. IRI objects are
// returned as IRI and literals as Literal.
func (g *Graph) Triples() []Triple {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Triple, len(g.triples))
	for i, s := range g.triples {
		out[i] = Triple{Subject: s.subject, Predicate: s.predicate, Object: s.object.object()}
	}
	return out
}

// Subjects returns the distinct subjects in first-seen order.
func (g *Graph) Subjects() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	seen := make(map[string]bool)
	var out []string
	for _, s := range g.triples {
		if !seen[s.subject] {
			seen[s.subject] = true
			out = append(out, s.subject)
		}
	}
	return out
}

// Objects returns the objects of subject for predicate.
func (g *Graph) Objects(subject, predicate string) []any {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []any
	for _, s := range g.triples {
		if s.subject == subject && s.predicate == predicate {
			out = append(out, s.object.object())
		}
	}
	return out
}

// Export serializes the graph to the specified format.
func (g *Graph) Export(format Format) (string, error) {
	var sb strings.Builder
	if err := g.WriteTo(&sb, format); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// WriteTo serializes the graph to w.
func (g *Graph) WriteTo(w io.Writer, format Format) error {
	g.mu.RLock()
	triples := make([]stored, len(g.triples))
	copy(triples, g.triples)
	prefixes := make(map[string]string, len(g.prefixes))
	for k, v := range g.prefixes {
		prefixes[k] = v
	}
	g.mu.RUnlock()

	var out string
	switch format {
	case FormatTurtle:
		out = writeTurtle(triples, prefixes)
	case FormatNTriples:
		out = writeNTriples(triples)
	case FormatJSONLD:
		var err error
		out, err = writeJSONLD(triples, prefixes)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	_, err := io.WriteString(w, out)
	return err
}

func normalize(t Triple) (stored, error) {
	if t.Subject == "" || t.Predicate == "" {
		return stored{}, fmt.Errorf("triple needs subject and predicate: %q %q", t.Subject, t.Predicate)
	}
	obj, err := toTerm(t.Object)
	if err != nil {
		return stored{}, fmt.Errorf("triple %s %s: %w", t.Subject, t.Predicate, err)
	}
	return stored{subject: t.Subject, predicate: t.Predicate, object: obj}, nil
}

// object converts a term back to its public object form. Plain strings
// come back as String literals.
func (t term) object() any {
	if t.iri {
		return IRI(t.value)
	}
	if t.dtype == mcal.XSDString {
		return Literal{Value: t.value}
	}
	return Literal{Value: t.value, Datatype: t.dtype, Lang: t.lang}
}
