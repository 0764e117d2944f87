package codebook_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/c360studio/semcode/codebook"
	"github.com/c360studio/semcode/vocabulary/mcal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRevisions(t *testing.T) {
	names, err := codebook.Revisions()
	require.NoError(t, err)
	assert.Equal(t, []string{"v0.1", "v0.2", "v0.3"}, names)
}

func TestLoadUnknownRevision(t *testing.T) {
	_, err := codebook.Load("v9")
	require.Error(t, err)
	assert.True(t, errors.Is(err, codebook.ErrUnknownRevision))
}

func TestBuiltinRevisionsCoverAllKinds(t *testing.T) {
	names, err := codebook.Revisions()
	require.NoError(t, err)

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			rev, err := codebook.Load(name)
			require.NoError(t, err)
			assert.Equal(t, mcal.Kinds, rev.Kinds())
			for _, kind := range mcal.Kinds {
				table, ok := rev.Table(kind)
				require.True(t, ok)
				assert.Positive(t, table.Len())
				for _, code := range table.Codes() {
					assert.True(t, kind.OwnsCode(code), "%s owns %s", kind, code)
					assert.NotEqual(t, kind.UnknownCode(), code)
				}
			}
		})
	}
}

func TestTableLookupV01(t *testing.T) {
	rev, err := codebook.Load("v0.1")
	require.NoError(t, err)

	tests := []struct {
		kind  mcal.Kind
		label string
		want  string
		ok    bool
	}{
		{mcal.ContentFeature, "actor visibility", "CFE2", true},
		{mcal.ContentFeature, "Actor Visibility", "CFE2", true},
		{mcal.ContentFeature, "naming", "CFE6", true},
		{mcal.ContentFeature, "morality", "CFE29", true},
		{mcal.ContentFeature, "actor  visibility", "", false},
		{mcal.ContentFeature, " naming", "", false},
		{mcal.ContentAnalysisType, "Automated analysis", "CAT4", true},
		{mcal.ContentAnalysisType, "automated analysis", "", false},
		{mcal.ResearchQuestionType, "effects on citizens", "RQT3", true},
		{mcal.ResearchQuestionType, "Effects on citizens", "", false},
	}

	for _, tc := range tests {
		t.Run(string(tc.kind)+"/"+tc.label, func(t *testing.T) {
			table, ok := rev.Table(tc.kind)
			require.True(t, ok)
			got, ok := table.Lookup(tc.label)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestTableFoldCaseFlag(t *testing.T) {
	rev, err := codebook.Load("v0.1")
	require.NoError(t, err)

	cf, _ := rev.Table(mcal.ContentFeature)
	cat, _ := rev.Table(mcal.ContentAnalysisType)
	rqt, _ := rev.Table(mcal.ResearchQuestionType)
	assert.True(t, cf.FoldCase())
	assert.False(t, cat.FoldCase())
	assert.False(t, rqt.FoldCase())

	v3, err := codebook.Load("v0.3")
	require.NoError(t, err)
	cf3, _ := v3.Table(mcal.ContentFeature)
	assert.False(t, cf3.FoldCase())
	_, ok := cf3.Lookup("actor visibility")
	assert.False(t, ok)
}

func TestTableManyToOne(t *testing.T) {
	rev, err := codebook.Load("v0.1")
	require.NoError(t, err)
	table, _ := rev.Table(mcal.ContentFeature)

	assert.Equal(t, []string{"actor visibility", "visibility of actors", "actor salience"}, table.Labels("CFE2"))
}

func TestParse(t *testing.T) {
	doc := []byte(`
revision: test
tables:
  content-feature:
    fold_case: true
    entries:
      - {label: "naming", code: CFE6}
      - {label: "naming", code: CFE6}
      - {label: "shaming", code: CFE7}
  cat:
    entries:
      - {label: "Automated analysis", code: CAT4}
`)
	rev, err := codebook.Parse(doc)
	require.NoError(t, err)
	assert.Equal(t, "test", rev.Name())

	cf, ok := rev.Table(mcal.ContentFeature)
	require.True(t, ok)
	assert.Equal(t, 2, cf.Len())
	assert.Equal(t, []codebook.Entry{
		{Label: "naming", Code: "CFE6"},
		{Label: "shaming", Code: "CFE7"},
	}, cf.Entries())

	_, ok = rev.Table(mcal.ResearchQuestionType)
	assert.False(t, ok)
}

func TestParseRejectsInvalidTables(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing name", `tables: {}`},
		{"unknown kind", "revision: x\ntables:\n  topics:\n    entries: []\n"},
		{"conflicting duplicate", "revision: x\ntables:\n  cfe:\n    entries:\n      - {label: naming, code: CFE6}\n      - {label: naming, code: CFE7}\n"},
		{"foreign namespace", "revision: x\ntables:\n  cfe:\n    entries:\n      - {label: naming, code: CAT6}\n"},
		{"unknown code assigned", "revision: x\ntables:\n  cat:\n    entries:\n      - {label: Other, code: CAT0}\n"},
		{"uppercase in folded table", "revision: x\ntables:\n  cfe:\n    fold_case: true\n    entries:\n      - {label: Naming, code: CFE6}\n"},
		{"empty label", "revision: x\ntables:\n  rqt:\n    entries:\n      - {label: \"\", code: RQT1}\n"},
		{"malformed yaml", "revision: [x"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := codebook.Parse([]byte(tc.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("revision: local\ntables:\n  rqt:\n    entries:\n      - {label: descriptive, code: RQT1}\n"), 0o644))

	rev, err := codebook.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "local", rev.Name())

	_, err = codebook.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
