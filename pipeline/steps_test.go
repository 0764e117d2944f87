package pipeline_test

import (
	"testing"
	"time"

	"github.com/c360studio/semcode/codebook"
	"github.com/c360studio/semcode/export"
	"github.com/c360studio/semcode/normalize"
	"github.com/c360studio/semcode/pipeline"
	"github.com/c360studio/semcode/source"
	"github.com/c360studio/semcode/vocabulary/mcal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(fields ...string) source.Record {
	names := make([]string, 0, len(fields)/2)
	values := make([]string, 0, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		names = append(names, fields[i])
		values = append(values, fields[i+1])
	}
	return source.NewRecord(2, names, values)
}

func newNormalizer(t *testing.T, sink normalize.Sink) *normalize.Normalizer {
	t.Helper()
	rev, err := codebook.Load("v0.1")
	require.NoError(t, err)
	return normalize.New(rev, normalize.WithSink(sink))
}

func TestContextValues(t *testing.T) {
	c := pipeline.NewContext(record("DOI", " 10.1/x ", "Title", "   "), nil)

	v, ok := c.String("DOI")
	assert.True(t, ok)
	assert.Equal(t, "10.1/x", v)
	assert.False(t, c.Has("Title"), "blank fields are absent")
	assert.False(t, c.Has("missing"))

	c.Set("DOI", export.IRI("https://doi.org/10.1/x"))
	v, ok = c.String("DOI")
	assert.True(t, ok)
	assert.Equal(t, "https://doi.org/10.1/x", v)

	c.Set("_list", []string{"a"})
	_, ok = c.String("_list")
	assert.False(t, ok)
}

func TestWhen(t *testing.T) {
	ran := 0
	count := pipeline.StepFunc(func(*pipeline.Context) error { ran++; return nil })

	c := pipeline.NewContext(record("orcid", "NA", "code", "x"), nil)
	require.NoError(t, pipeline.When("code", count).Apply(c))
	require.NoError(t, pipeline.When("missing", count).Apply(c))
	require.NoError(t, pipeline.When("orcid", count).Apply(c))
	require.NoError(t, pipeline.WhenFunc(pipeline.NotAbsent("orcid"), count).Apply(c))
	assert.Equal(t, 2, ran)
}

func TestAddIRIAndAssert(t *testing.T) {
	c := pipeline.NewContext(record("Projectnummer", "8052", "Instelling", "Universiteit Utrecht"), nil)
	step := pipeline.Steps(
		pipeline.AddIRI("Projectnummer", mcal.CBSProjectNamespace, "_IRI"),
		pipeline.Type(pipeline.Key("_IRI"), "https://kg.odissei.nl/schema/Project"),
		pipeline.Assert(pipeline.Key("_IRI"), "https://kg.odissei.nl/schema/instelling",
			pipeline.IRIOf(mcal.CBSOrganisationNamespace, "Instelling")),
		pipeline.Assert(pipeline.Key("_IRI"), mcal.DCTTitle, pipeline.Typed("Projectnummer", mcal.XSDInteger)),
	)
	require.NoError(t, step.Apply(c))

	want := []export.Triple{
		{Subject: "https://kg.odissei.nl/cbs/project/8052", Predicate: mcal.RDFType, Object: export.IRI("https://kg.odissei.nl/schema/Project")},
		{Subject: "https://kg.odissei.nl/cbs/project/8052", Predicate: "https://kg.odissei.nl/schema/instelling", Object: export.IRI("https://kg.odissei.nl/cbs/organisation/Universiteit%20Utrecht")},
		{Subject: "https://kg.odissei.nl/cbs/project/8052", Predicate: mcal.DCTTitle, Object: export.Typed("8052", mcal.XSDInteger)},
	}
	assert.Equal(t, want, c.Triples())
}

func TestAssertErrors(t *testing.T) {
	c := pipeline.NewContext(record("title", "not an iri"), nil)

	err := pipeline.Assert(pipeline.Key("missing"), mcal.DCTTitle, pipeline.Key("title")).Apply(c)
	assert.Error(t, err)

	err = pipeline.Assert(pipeline.Key("title"), mcal.DCTTitle, pipeline.Key("title")).Apply(c)
	assert.ErrorContains(t, err, "not an IRI")

	err = pipeline.AddIRI("missing", mcal.DOINamespace, "_IRI").Apply(c)
	assert.Error(t, err)

	err = pipeline.AddDOI("title", "_IRI").Apply(c)
	assert.Error(t, err)

	assert.Empty(t, c.Triples())
}

func TestSplitFieldExpandsObjects(t *testing.T) {
	c := pipeline.NewContext(record("code", "https://github.com/odissei/x", "orcid", "0000-0001-1111-2222, NA ,0000-0003-3333-4444"), nil)
	step := pipeline.Steps(
		pipeline.AddIRI("code", mcal.CodelibNamespace, "_IRI"),
		pipeline.SplitField("orcid", ",", "_orcids"),
		pipeline.Assert(pipeline.Key("_IRI"), mcal.DCTCreator, pipeline.IRIOf(mcal.ORCIDNamespace, "_orcids")),
		pipeline.SplitField("missing", ",", "_none"),
		pipeline.Assert(pipeline.Key("_IRI"), mcal.DCTTitle, pipeline.Key("_none")),
	)
	require.NoError(t, step.Apply(c))

	triples := c.Triples()
	require.Len(t, triples, 2)
	assert.Equal(t, "https://github.com/odissei/x", triples[0].Subject)
	assert.Equal(t, export.IRI("https://orcid.org/0000-0001-1111-2222"), triples[0].Object)
	assert.Equal(t, export.IRI("https://orcid.org/0000-0003-3333-4444"), triples[1].Object)
}

func TestLookupCodes(t *testing.T) {
	var diags []normalize.Diagnostic
	n := newNormalizer(t, normalize.SinkFunc(func(d normalize.Diagnostic) { diags = append(diags, d) }))

	c := pipeline.NewContext(record(
		"DOI", "10.1/x",
		"features", "Naming, shaming, ?, naming",
		"types", "Automated analysis"), n)
	step := pipeline.Steps(
		pipeline.LookupCodes(mcal.ContentFeature, "features", ",", "_cf"),
		pipeline.LookupCodes(mcal.ContentAnalysisType, "types", ",", "_cat"),
		pipeline.LookupCodes(mcal.ResearchQuestionType, "missing", ",", "_rqt"),
	)
	require.NoError(t, step.Apply(c))

	cf, _ := c.Value("_cf")
	assert.Equal(t, []export.IRI{
		"https://mcal.odissei.nl/cv/contentFeature/v0.1/CFE6",
		"https://mcal.odissei.nl/cv/contentFeature/v0.1/CFE7",
		"https://mcal.odissei.nl/cv/contentFeature/v0.1/CFE0",
		"https://mcal.odissei.nl/cv/contentFeature/v0.1/CFE6",
	}, cf)
	cat, _ := c.Value("_cat")
	assert.Equal(t, []export.IRI{"https://mcal.odissei.nl/cv/contentAnalysisType/v0.1/CAT4"}, cat)
	rqt, _ := c.Value("_rqt")
	assert.Empty(t, rqt)

	require.Len(t, diags, 1)
	assert.Equal(t, "?", diags[0].Label)

	err := pipeline.LookupCodes(mcal.ContentFeature, "features", ",", "_cf").Apply(pipeline.NewContext(record("features", "x"), nil))
	assert.Error(t, err)
}

func TestChangeDate(t *testing.T) {
	c := pipeline.NewContext(record("Startdatum", "45292", "Einddatum", "soon"), nil)
	require.NoError(t, pipeline.ChangeDate("Startdatum", "_start").Apply(c))

	v, _ := c.Value("_start")
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), v)

	objects, err := pipeline.Key("_start").Resolve(c)
	require.NoError(t, err)
	assert.Equal(t, []any{export.Date(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))}, objects)

	assert.Error(t, pipeline.ChangeDate("Einddatum", "_end").Apply(c))
	assert.Error(t, pipeline.ChangeDate("missing", "_x").Apply(c))
}

func TestSanitize(t *testing.T) {
	c := pipeline.NewContext(record("alternativeTitle", "GBAPERSOONTAB [2022]"), nil)
	require.NoError(t, pipeline.Sanitize("alternativeTitle", "_title").Apply(c))
	v, _ := c.String("_title")
	assert.Equal(t, "GBAPERSOONTAB _2022_", v)
}
