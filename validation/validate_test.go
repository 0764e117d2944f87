package validation_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/c360studio/semcode/export"
	"github.com/c360studio/semcode/validation"
	"github.com/c360studio/semcode/vocabulary/mcal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const paper = "https://doi.org/10.1177/1940161219892768"

func articleGraph(t *testing.T, extra ...export.Triple) *export.Graph {
	t.Helper()
	g := export.NewGraph("")
	_, err := g.Add(append([]export.Triple{
		{Subject: paper, Predicate: mcal.RDFType, Object: export.IRI(mcal.BIBOAcademicArticle)},
		{Subject: paper, Predicate: mcal.DCTTitle, Object: "Populism in the news"},
		{Subject: paper, Predicate: mcal.HasContentFeature, Object: export.IRI(mcal.CodeIRI(mcal.ContentFeature, "CFE2"))},
		{Subject: "https://example.org/untyped", Predicate: mcal.DCTTitle, Object: export.IRI("https://example.org/x")},
	}, extra...)...)
	require.NoError(t, err)
	return g
}

func TestBuiltinShapes(t *testing.T) {
	shapes, err := validation.Builtin()
	require.NoError(t, err)
	require.NotEmpty(t, shapes.Shapes)
	assert.Equal(t, mcal.BIBOAcademicArticle, shapes.Shapes[0].TargetClass)
	assert.Equal(t, mcal.DCTTitle, shapes.Shapes[0].Properties[0].Path)

	report := validation.Validate(articleGraph(t), shapes)
	assert.Equal(t, 1, report.Focus)
	assert.True(t, report.Conforms(), "%+v", report.Results)
	assert.Empty(t, report.Results)
}

func TestUnknownCodeIsWarning(t *testing.T) {
	shapes, err := validation.Builtin()
	require.NoError(t, err)

	g := articleGraph(t, export.Triple{
		Subject:   paper,
		Predicate: mcal.HasContentFeature,
		Object:    export.IRI(mcal.CodeIRI(mcal.ContentFeature, mcal.ContentFeature.UnknownCode())),
	})
	report := validation.Validate(g, shapes)

	assert.True(t, report.Conforms())
	assert.Equal(t, 1, report.Warnings())
	assert.Equal(t, "unrecognized content feature label", report.Results[0].Message)
	assert.False(t, report.ShouldTerminate(validation.TerminateOnViolation))
	assert.True(t, report.ShouldTerminate(validation.TerminateOnWarning))
	assert.NoError(t, report.Err(validation.TerminateOnViolation))
	assert.Error(t, report.Err(validation.TerminateOnWarning))
}

func TestConstraintViolations(t *testing.T) {
	shapes, err := validation.Parse([]byte(`
prefixes:
  ex: https://example.org/
shapes:
  - name: ArticleShape
    target_class: bibo:AcademicArticle
    properties:
      - path: dct:title
        min_count: 1
        max_count: 1
      - path: ex:status
        min_count: 1
      - path: mcal:contentFeature
        node_kind: Literal
      - path: dct:issued
        datatype: xsd:date
      - path: ex:kind
        in: [ex:a, ex:b]
`))
	require.NoError(t, err)

	g := articleGraph(t,
		export.Triple{Subject: paper, Predicate: mcal.DCTTitle, Object: "Second title"},
		export.Triple{Subject: paper, Predicate: mcal.DCTIssued, Object: "2020"},
		export.Triple{Subject: paper, Predicate: "https://example.org/kind", Object: export.IRI("https://example.org/c")},
	)
	report := validation.Validate(g, shapes)

	assert.False(t, report.Conforms())
	assert.Equal(t, 5, report.Violations())

	byPath := make(map[string]validation.Result)
	for _, r := range report.Results {
		byPath[r.Path] = r
	}
	assert.Contains(t, byPath[mcal.DCTTitle].Message, "at most 1")
	assert.Contains(t, byPath["https://example.org/status"].Message, "at least 1")
	assert.Equal(t, "value is not a literal", byPath[mcal.HasContentFeature].Message)
	assert.Equal(t, "2020", byPath[mcal.DCTIssued].Value)
	assert.Equal(t, "https://example.org/c", byPath["https://example.org/kind"].Value)

	assert.True(t, report.ShouldTerminate(validation.TerminateOnViolation))
	assert.False(t, report.ShouldTerminate(validation.TerminateNever))
	assert.ErrorContains(t, report.Err(validation.TerminateOnViolation), "5 violations")
}

func TestParseErrors(t *testing.T) {
	tests := map[string]string{
		"empty":          `shapes: []`,
		"no target":      "shapes:\n  - name: X\n    properties: []\n",
		"no path":        "shapes:\n  - target_class: skos:Concept\n    properties:\n      - min_count: 1\n",
		"bad counts":     "shapes:\n  - target_class: skos:Concept\n    properties:\n      - path: skos:notation\n        min_count: 2\n        max_count: 1\n",
		"bad node kind":  "shapes:\n  - target_class: skos:Concept\n    properties:\n      - path: skos:notation\n        node_kind: BlankNode\n",
		"bad severity":   "shapes:\n  - target_class: skos:Concept\n    properties:\n      - path: skos:notation\n        severity: info\n",
		"bad pattern":    "shapes:\n  - target_class: skos:Concept\n    properties:\n      - path: skos:notation\n        pattern: \"(\"\n",
		"unknown field":  "shapes:\n  - target_class: skos:Concept\n    closed: true\n",
		"not a document": "shapes: {",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := validation.Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shapes.yaml")
	require.NoError(t, os.WriteFile(path, []byte("shapes:\n  - target_class: https://example.org/Thing\n    properties: []\n"), 0o644))

	shapes, err := validation.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "shape[0]", shapes.Shapes[0].Name)

	_, err = validation.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseTerminateOn(t *testing.T) {
	for in, want := range map[string]validation.TerminateOn{
		"":          validation.TerminateOnViolation,
		"Violation": validation.TerminateOnViolation,
		"warning":   validation.TerminateOnWarning,
		"never":     validation.TerminateNever,
	} {
		got, err := validation.ParseTerminateOn(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := validation.ParseTerminateOn("sometimes")
	assert.Error(t, err)

	assert.True(t, validation.Validate(export.NewGraph(""), nil).Conforms())
}
