package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/c360studio/semcode/vocabulary/mcal"
)

// Format specifies the output serialization format.
type Format string

const (
	// FormatTurtle produces Turtle (.ttl) output.
	FormatTurtle Format = "turtle"

	// FormatNTriples produces N-Triples (.nt) output.
	FormatNTriples Format = "ntriples"

	// FormatJSONLD produces JSON-LD (.jsonld) output.
	FormatJSONLD Format = "jsonld"
)

// ErrUnsupportedFormat is returned for unknown serialization formats.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// FormatInfo provides metadata about an export format.
type FormatInfo struct {
	// Name is the format identifier.
	Name Format

	// MIMEType is the standard MIME type.
	MIMEType string

	// Extension is the file extension (with dot).
	Extension string

	// Description describes the format.
	Description string
}

// FormatRegistry contains metadata for all supported formats.
var FormatRegistry = map[Format]FormatInfo{
	FormatTurtle: {
		Name:        FormatTurtle,
		MIMEType:    "text/turtle",
		Extension:   ".ttl",
		Description: "Turtle - Terse RDF Triple Language",
	},
	FormatNTriples: {
		Name:        FormatNTriples,
		MIMEType:    "application/n-triples",
		Extension:   ".nt",
		Description: "N-Triples - Line-based RDF format",
	},
	FormatJSONLD: {
		Name:        FormatJSONLD,
		MIMEType:    "application/ld+json",
		Extension:   ".jsonld",
		Description: "JSON-LD - JSON for Linked Data",
	},
}

// GetFormatInfo returns metadata for a format.
func GetFormatInfo(format Format) (FormatInfo, bool) {
	info, ok := FormatRegistry[format]
	return info, ok
}

var formatAliases = map[string]Format{
	"ttl":       FormatTurtle,
	"nt":        FormatNTriples,
	"n-triples": FormatNTriples,
	"json-ld":   FormatJSONLD,
}

// ParseFormat resolves a format name, MIME type or file extension.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if alias, ok := formatAliases[s]; ok {
		return alias, nil
	}
	for name, info := range FormatRegistry {
		if s == string(name) || s == info.MIMEType || s == info.Extension {
			return name, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// FormatForPath picks the format matching a file name's extension.
func FormatForPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// localName matches the local parts written as prefixed names.
var localName = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_-]*$`)

// compactor shortens IRIs to prefixed names and remembers which prefixes
// were used.
type compactor struct {
	names []string
	ns    map[string]string
	used  map[string]bool
}

func newCompactor(prefixes map[string]string) *compactor {
	c := &compactor{ns: prefixes, used: make(map[string]bool)}
	for name := range prefixes {
		c.names = append(c.names, name)
	}
	// Longest namespace first so nested namespaces win.
	sort.Slice(c.names, func(i, j int) bool {
		a, b := prefixes[c.names[i]], prefixes[c.names[j]]
		if len(a) != len(b) {
			return len(a) > len(b)
		}
		return c.names[i] < c.names[j]
	})
	return c
}

func (c *compactor) iri(iri string) string {
	for _, name := range c.names {
		ns := c.ns[name]
		if ns == "" || !strings.HasPrefix(iri, ns) {
			continue
		}
		local := iri[len(ns):]
		if local == "" || localName.MatchString(local) {
			c.used[name] = true
			return name + ":" + local
		}
	}
	return "<" + iri + ">"
}

// writeTurtle groups triples by subject in first-seen order. rdf:type is
// written first as "a", repeated predicates share one line.
func writeTurtle(triples []stored, prefixes map[string]string) string {
	c := newCompactor(prefixes)

	type block struct {
		subject    string
		predicates []string
		objects    map[string][]string
	}
	var blocks []*block
	index := make(map[string]*block)
	for _, t := range triples {
		b, ok := index[t.subject]
		if !ok {
			b = &block{subject: t.subject, objects: make(map[string][]string)}
			index[t.subject] = b
			blocks = append(blocks, b)
		}
		if _, ok := b.objects[t.predicate]; !ok {
			if t.predicate == mcal.RDFType {
				b.predicates = append([]string{t.predicate}, b.predicates...)
			} else {
				b.predicates = append(b.predicates, t.predicate)
			}
		}
		b.objects[t.predicate] = append(b.objects[t.predicate], turtleTerm(t.object, c))
	}

	var body strings.Builder
	for _, b := range blocks {
		body.WriteString(c.iri(b.subject))
		body.WriteString("\n")
		for i, p := range b.predicates {
			pred := "a"
			if p != mcal.RDFType {
				pred = c.iri(p)
			}
			terminator := " ;"
			if i == len(b.predicates)-1 {
				terminator = " ."
			}
			fmt.Fprintf(&body, "    %s %s%s\n", pred, strings.Join(b.objects[p], " , "), terminator)
		}
		body.WriteString("\n")
	}

	used := make([]string, 0, len(c.used))
	for name := range c.used {
		used = append(used, name)
	}
	sort.Strings(used)

	var sb strings.Builder
	for _, name := range used {
		fmt.Fprintf(&sb, "@prefix %s: <%s> .\n", name, prefixes[name])
	}
	if len(used) > 0 {
		sb.WriteString("\n")
	}
	sb.WriteString(body.String())
	return sb.String()
}

func turtleTerm(t term, c *compactor) string {
	switch {
	case t.iri:
		return c.iri(t.value)
	case t.lang != "":
		return fmt.Sprintf("\"%s\"@%s", escapeString(t.value), t.lang)
	case t.dtype == mcal.XSDString:
		return fmt.Sprintf("\"%s\"", escapeString(t.value))
	case t.dtype == mcal.XSDInteger && t.numeric, t.dtype == mcal.XSDBoolean && t.boolean:
		return t.value
	default:
		return fmt.Sprintf("\"%s\"^^%s", escapeString(t.value), c.iri(t.dtype))
	}
}

// writeNTriples writes one triple per line with absolute IRIs.
func writeNTriples(triples []stored) string {
	var sb strings.Builder
	for _, t := range triples {
		fmt.Fprintf(&sb, "<%s> <%s> %s .\n", t.subject, t.predicate, ntriplesTerm(t.object))
	}
	return sb.String()
}

func ntriplesTerm(t term) string {
	switch {
	case t.iri:
		return "<" + t.value + ">"
	case t.lang != "":
		return fmt.Sprintf("\"%s\"@%s", escapeString(t.value), t.lang)
	case t.dtype == mcal.XSDString:
		return fmt.Sprintf("\"%s\"", escapeString(t.value))
	default:
		return fmt.Sprintf("\"%s\"^^<%s>", escapeString(t.value), t.dtype)
	}
}

// JSONLDDocument represents a JSON-LD document structure.
type JSONLDDocument struct {
	Context map[string]any `json:"@context"`
	Graph   []JSONLDNode   `json:"@graph"`
}

// JSONLDNode represents a node in a JSON-LD graph.
type JSONLDNode struct {
	ID         string         `json:"@id"`
	Type       []string       `json:"@type,omitempty"`
	Properties map[string]any `json:"-"`
}

// MarshalJSON implements custom JSON marshaling for JSONLDNode.
func (n JSONLDNode) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(n.Properties)+2)
	m["@id"] = n.ID
	if len(n.Type) > 0 {
		m["@type"] = n.Type
	}
	for k, v := range n.Properties {
		m[k] = v
	}
	return json.Marshal(m)
}

// writeJSONLD writes expanded property IRIs with the prefixes as @context.
func writeJSONLD(triples []stored, prefixes map[string]string) (string, error) {
	doc := JSONLDDocument{
		Context: make(map[string]any, len(prefixes)),
		Graph:   make([]JSONLDNode, 0),
	}
	for k, v := range prefixes {
		doc.Context[k] = v
	}

	index := make(map[string]int)
	for _, t := range triples {
		i, ok := index[t.subject]
		if !ok {
			i = len(doc.Graph)
			index[t.subject] = i
			doc.Graph = append(doc.Graph, JSONLDNode{ID: t.subject, Properties: make(map[string]any)})
		}
		node := &doc.Graph[i]
		if t.predicate == mcal.RDFType && t.object.iri {
			node.Type = append(node.Type, t.object.value)
			continue
		}
		value := jsonldValue(t.object)
		switch existing := node.Properties[t.predicate].(type) {
		case nil:
			node.Properties[t.predicate] = value
		case []any:
			node.Properties[t.predicate] = append(existing, value)
		default:
			node.Properties[t.predicate] = []any{existing, value}
		}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal json-ld: %w", err)
	}
	return string(data) + "\n", nil
}

func jsonldValue(t term) any {
	switch {
	case t.iri:
		return map[string]string{"@id": t.value}
	case t.lang != "":
		return map[string]string{"@value": t.value, "@language": t.lang}
	case t.dtype == mcal.XSDString:
		return t.value
	case t.dtype == mcal.XSDBoolean && t.boolean:
		return t.value == "true"
	case t.dtype == mcal.XSDInteger && t.numeric:
		return json.Number(t.value)
	default:
		return map[string]string{"@value": t.value, "@type": t.dtype}
	}
}

// escapeString escapes special characters in strings for RDF serialization.
func escapeString(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	s = strings.ReplaceAll(s, "\t", "\\t")
	return s
}
