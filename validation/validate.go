package validation

import (
	"fmt"
	"slices"
	"strings"

	"github.com/c360studio/semcode/export"
	"github.com/c360studio/semcode/vocabulary/mcal"
)

// TerminateOn decides which results fail a run.
type TerminateOn string

// Termination policies.
const (
	TerminateOnViolation TerminateOn = "violation"
	TerminateOnWarning   TerminateOn = "warning"
	TerminateNever       TerminateOn = "never"
)

// ParseTerminateOn resolves a policy name. Empty selects violation.
func ParseTerminateOn(s string) (TerminateOn, error) {
	switch TerminateOn(strings.ToLower(strings.TrimSpace(s))) {
	case "", TerminateOnViolation:
		return TerminateOnViolation, nil
	case TerminateOnWarning:
		return TerminateOnWarning, nil
	case TerminateNever:
		return TerminateNever, nil
	default:
		return "", fmt.Errorf("unknown terminate_on policy %q", s)
	}
}

// Result is one failed constraint on one focus node.
type Result struct {
	Shape    string   `json:"shape"`
	Focus    string   `json:"focus"`
	Path     string   `json:"path"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Value    string   `json:"value,omitempty"`
}

// Report collects the results of one validation.
type Report struct {
	Focus   int      `json:"focus_nodes"`
	Results []Result `json:"results"`
}

// Conforms reports whether no violation was found. Warnings do not count.
func (r *Report) Conforms() bool {
	return r.count(SeverityViolation) == 0
}

// Violations returns the number of violation results.
func (r *Report) Violations() int {
	return r.count(SeverityViolation)
}

// Warnings returns the number of warning results.
func (r *Report) Warnings() int {
	return r.count(SeverityWarning)
}

// ShouldTerminate reports whether the policy fails the run.
func (r *Report) ShouldTerminate(policy TerminateOn) bool {
	switch policy {
	case TerminateNever:
		return false
	case TerminateOnWarning:
		return len(r.Results) > 0
	default:
		return !r.Conforms()
	}
}

// Err summarises the report as an error when policy fails the run.
func (r *Report) Err(policy TerminateOn) error {
	if !r.ShouldTerminate(policy) {
		return nil
	}
	first := r.Results[0]
	return fmt.Errorf("validation failed: %d violations, %d warnings; first: %s %s: %s",
		r.Violations(), r.Warnings(), first.Focus, first.Path, first.Message)
}

func (r *Report) count(sev Severity) int {
	n := 0
	for _, res := range r.Results {
		if res.Severity == sev {
			n++
		}
	}
	return n
}

// Validate checks every instance of each shape's target class in g.
func Validate(g *export.Graph, shapes *Shapes) *Report {
	report := &Report{}
	if shapes == nil {
		return report
	}

	subjects := g.Subjects()
	for _, shape := range shapes.Shapes {
		for _, focus := range subjects {
			if !hasType(g, focus, shape.TargetClass) {
				continue
			}
			report.Focus++
			for _, p := range shape.Properties {
				report.Results = append(report.Results, checkProperty(shape.Name, focus, p, g.Objects(focus, p.Path))...)
			}
		}
	}
	return report
}

func hasType(g *export.Graph, subject, class string) bool {
	for _, o := range g.Objects(subject, mcal.RDFType) {
		if iri, ok := o.(export.IRI); ok && string(iri) == class {
			return true
		}
	}
	return false
}

func checkProperty(shape, focus string, p Property, values []any) []Result {
	var results []Result
	fail := func(value, format string, args ...any) {
		msg := p.Message
		if msg == "" {
			msg = fmt.Sprintf(format, args...)
		}
		results = append(results, Result{
			Shape:    shape,
			Focus:    focus,
			Path:     p.Path,
			Severity: p.Severity,
			Message:  msg,
			Value:    value,
		})
	}

	if len(values) < p.MinCount {
		fail("", "expected at least %d values, found %d", p.MinCount, len(values))
	}
	if p.MaxCount > 0 && len(values) > p.MaxCount {
		fail("", "expected at most %d values, found %d", p.MaxCount, len(values))
	}

	for _, v := range values {
		text, isIRI, datatype := describe(v)
		switch p.NodeKind {
		case NodeKindIRI:
			if !isIRI {
				fail(text, "value is not an IRI")
				continue
			}
		case NodeKindLiteral:
			if isIRI {
				fail(text, "value is not a literal")
				continue
			}
		}
		if p.Datatype != "" && (isIRI || datatype != p.Datatype) {
			fail(text, "datatype %s is not %s", datatype, p.Datatype)
		}
		if len(p.In) > 0 && !slices.Contains(p.In, text) {
			fail(text, "value is not one of the allowed values")
		}
		if p.pattern != nil && !p.pattern.MatchString(text) {
			fail(text, "value does not match %s", p.Pattern)
		}
	}
	return results
}

func describe(v any) (text string, isIRI bool, datatype string) {
	switch t := v.(type) {
	case export.IRI:
		return string(t), true, ""
	case export.Literal:
		dt := t.Datatype
		switch {
		case t.Lang != "":
			dt = mcal.RDF + "langString"
		case dt == "":
			dt = mcal.XSDString
		}
		return t.Value, false, dt
	default:
		return fmt.Sprint(v), false, ""
	}
}
