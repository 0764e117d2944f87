// Package validation checks pipeline output against node shapes before it is
// published. Shapes are a YAML rendition of a SHACL subset: target classes,
// property paths with cardinality, node kind, datatype, allowed values and
// patterns.
package validation

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/c360studio/semcode/vocabulary/mcal"
	"gopkg.in/yaml.v3"
)

//go:embed shapes/*.yaml
var builtinShapes embed.FS

// NodeKind constrains whether values are IRIs or literals.
type NodeKind string

// Node kinds.
const (
	NodeKindAny     NodeKind = ""
	NodeKindIRI     NodeKind = "IRI"
	NodeKindLiteral NodeKind = "Literal"
)

// Severity of a failed constraint.
type Severity string

// Severities.
const (
	SeverityViolation Severity = "violation"
	SeverityWarning   Severity = "warning"
)

// Property constrains the values of one predicate on a focus node.
type Property struct {
	Path     string   `yaml:"path"`
	MinCount int      `yaml:"min_count,omitempty"`
	MaxCount int      `yaml:"max_count,omitempty"` // 0 means unbounded
	NodeKind NodeKind `yaml:"node_kind,omitempty"`
	Datatype string   `yaml:"datatype,omitempty"`
	In       []string `yaml:"in,omitempty"`
	Pattern  string   `yaml:"pattern,omitempty"`
	Severity Severity `yaml:"severity,omitempty"`
	Message  string   `yaml:"message,omitempty"`

	pattern *regexp.Regexp
}

// Shape applies property constraints to every instance of TargetClass.
type Shape struct {
	Name        string     `yaml:"name"`
	TargetClass string     `yaml:"target_class"`
	Properties  []Property `yaml:"properties"`
}

// Shapes is a parsed shape file.
type Shapes struct {
	Prefixes map[string]string `yaml:"prefixes,omitempty"`
	Shapes   []Shape           `yaml:"shapes"`
}

// Parse decodes a shape file, expands prefixed names and validates it.
func Parse(data []byte) (*Shapes, error) {
	var s Shapes
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("parse shapes: %w", err)
	}
	if err := s.compile(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadFile reads a shape file from disk.
func LoadFile(path string) (*Shapes, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read shapes file: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Builtin returns the shapes shipped for the built-in pipelines.
func Builtin() (*Shapes, error) {
	data, err := builtinShapes.ReadFile("shapes/odissei.yaml")
	if err != nil {
		return nil, fmt.Errorf("read builtin shapes: %w", err)
	}
	return Parse(data)
}

func (s *Shapes) compile() error {
	prefixes := mcal.Prefixes()
	for k, v := range s.Prefixes {
		prefixes[k] = v
	}

	var errs []error
	if len(s.Shapes) == 0 {
		errs = append(errs, errors.New("no shapes defined"))
	}
	for i := range s.Shapes {
		shape := &s.Shapes[i]
		if shape.Name == "" {
			shape.Name = fmt.Sprintf("shape[%d]", i)
		}
		if shape.TargetClass == "" {
			errs = append(errs, fmt.Errorf("%s: target_class is required", shape.Name))
		}
		shape.TargetClass = expand(shape.TargetClass, prefixes)

		for j := range shape.Properties {
			p := &shape.Properties[j]
			where := fmt.Sprintf("%s property %d", shape.Name, j)
			if p.Path == "" {
				errs = append(errs, fmt.Errorf("%s: path is required", where))
			}
			p.Path = expand(p.Path, prefixes)
			p.Datatype = expand(p.Datatype, prefixes)
			for k, v := range p.In {
				p.In[k] = expand(v, prefixes)
			}
			if p.MinCount < 0 || p.MaxCount < 0 {
				errs = append(errs, fmt.Errorf("%s: counts must not be negative", where))
			}
			if p.MaxCount > 0 && p.MinCount > p.MaxCount {
				errs = append(errs, fmt.Errorf("%s: min_count %d exceeds max_count %d", where, p.MinCount, p.MaxCount))
			}
			switch p.NodeKind {
			case NodeKindAny, NodeKindIRI, NodeKindLiteral:
			default:
				errs = append(errs, fmt.Errorf("%s: unknown node_kind %q", where, p.NodeKind))
			}
			switch p.Severity {
			case "":
				p.Severity = SeverityViolation
			case SeverityViolation, SeverityWarning:
			default:
				errs = append(errs, fmt.Errorf("%s: unknown severity %q", where, p.Severity))
			}
			if p.Pattern != "" {
				re, err := regexp.Compile(p.Pattern)
				if err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", where, err))
					continue
				}
				p.pattern = re
			}
		}
	}
	return errors.Join(errs...)
}

// expand turns a prefixed name into an IRI. Absolute IRIs and unknown
// prefixes are returned unchanged.
func expand(name string, prefixes map[string]string) string {
	if name == "" || strings.Contains(name, "://") {
		return name
	}
	prefix, local, ok := strings.Cut(name, ":")
	if !ok {
		return name
	}
	if ns, known := prefixes[prefix]; known {
		return ns + local
	}
	return name
}
