package normalize_test

import (
	"sync"
	"testing"

	"github.com/c360studio/semcode/codebook"
	"github.com/c360studio/semcode/normalize"
	"github.com/c360studio/semcode/vocabulary/mcal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder is a Sink that keeps every diagnostic.
type recorder struct {
	mu    sync.Mutex
	diags []normalize.Diagnostic
}

func (r *recorder) Report(d normalize.Diagnostic) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.diags = append(r.diags, d)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.diags)
}

func newNormalizer(t *testing.T, revision string) (*normalize.Normalizer, *recorder) {
	t.Helper()
	rev, err := codebook.Load(revision)
	require.NoError(t, err)
	rec := &recorder{}
	return normalize.New(rev, normalize.WithSink(rec)), rec
}

func TestNormalizeKnownLabels(t *testing.T) {
	n, rec := newNormalizer(t, "v0.1")

	tests := []struct {
		kind  mcal.Kind
		label string
		want  string
	}{
		{mcal.ContentFeature, "actor visibility", "CFE2"},
		{mcal.ContentFeature, "naming", "CFE6"},
		{mcal.ContentFeature, "shaming", "CFE7"},
		{mcal.ContentFeature, "morality", "CFE29"},
		{mcal.ContentFeature, "issue salience", "CFE4"},
		{mcal.ContentAnalysisType, "Automated analysis", "CAT4"},
		{mcal.ContentAnalysisType, "Manual coding", "CAT1"},
		{mcal.ResearchQuestionType, "effects on citizens", "RQT3"},
	}

	for _, tc := range tests {
		t.Run(tc.label, func(t *testing.T) {
			assert.Equal(t, tc.want, n.Normalize(tc.kind, tc.label))
			assert.Equal(t, tc.want, n.Normalize(tc.kind, tc.label), "repeated calls return the same code")
		})
	}
	assert.Zero(t, rec.count())
}

func TestNormalizeUnknownLabel(t *testing.T) {
	n, rec := newNormalizer(t, "v0.1")

	got := n.Normalize(mcal.ContentFeature, "nonexistent label xyz")
	assert.Equal(t, "CFE0", got)
	require.Equal(t, 1, rec.count())
	assert.Equal(t, normalize.Diagnostic{
		Kind:     mcal.ContentFeature,
		Label:    "nonexistent label xyz",
		Code:     "CFE0",
		Revision: "v0.1",
	}, rec.diags[0])

	assert.Equal(t, "CAT0", n.Normalize(mcal.ContentAnalysisType, "Guesswork"))
	assert.Equal(t, "RQT0", n.Normalize(mcal.ResearchQuestionType, ""))
	assert.Equal(t, 3, rec.count(), "one diagnostic per call")
}

func TestNormalizeCaseFolding(t *testing.T) {
	n, rec := newNormalizer(t, "v0.1")

	// The content feature table is lowercase and folds input.
	assert.Equal(t, "CFE2", n.Normalize(mcal.ContentFeature, "Actor Visibility"))
	assert.Equal(t, "CFE6", n.Normalize(mcal.ContentFeature, "NAMING"))
	assert.Zero(t, rec.count())

	// The other tables match literally.
	assert.Equal(t, "CAT0", n.Normalize(mcal.ContentAnalysisType, "automated analysis"))
	assert.Equal(t, "CAT0", n.Normalize(mcal.ContentAnalysisType, "AUTOMATED ANALYSIS"))
	assert.Equal(t, "RQT0", n.Normalize(mcal.ResearchQuestionType, "Effects on citizens"))
	assert.Equal(t, 3, rec.count())
}

func TestNormalizeIsWhitespaceSignificant(t *testing.T) {
	n, rec := newNormalizer(t, "v0.1")

	assert.Equal(t, "CFE0", n.Normalize(mcal.ContentFeature, " naming"))
	assert.Equal(t, "CFE0", n.Normalize(mcal.ContentFeature, "actor visibility "))
	assert.Equal(t, "CFE0", n.Normalize(mcal.ContentFeature, "nam"))
	assert.Equal(t, 3, rec.count())
}

func TestNormalizeAll(t *testing.T) {
	n, rec := newNormalizer(t, "v0.1")

	got := n.NormalizeAll(mcal.ContentFeature, []string{"naming", "shaming", "?"})
	assert.Equal(t, []string{"CFE6", "CFE7", "CFE0"}, got)
	assert.Equal(t, 1, rec.count())

	labels := []string{"tone", "framing", "tone"}
	want := []string{
		n.Normalize(mcal.ContentFeature, "tone"),
		n.Normalize(mcal.ContentFeature, "framing"),
		n.Normalize(mcal.ContentFeature, "tone"),
	}
	assert.Equal(t, want, n.NormalizeAll(mcal.ContentFeature, labels))

	assert.Empty(t, n.NormalizeAll(mcal.ContentFeature, nil))
}

func TestNormalizeRevisionsDiffer(t *testing.T) {
	tests := []struct {
		revision string
		want     string
	}{
		{"v0.1", "CFE2"},
		{"v0.2", "CFE54"},
		{"v0.3", "CFE0"},
	}
	for _, tc := range tests {
		t.Run(tc.revision, func(t *testing.T) {
			n, _ := newNormalizer(t, tc.revision)
			assert.Equal(t, tc.want, n.Normalize(mcal.ContentFeature, "actor visibility"))
		})
	}

	n, _ := newNormalizer(t, "v0.3")
	assert.Equal(t, "CFE71", n.Normalize(mcal.ContentFeature, "Actor visibility"))
}

func TestLookupDoesNotReport(t *testing.T) {
	n, rec := newNormalizer(t, "v0.1")

	code, ok := n.Lookup(mcal.ContentFeature, "naming")
	assert.True(t, ok)
	assert.Equal(t, "CFE6", code)

	_, ok = n.Lookup(mcal.ContentFeature, "unknown")
	assert.False(t, ok)
	_, ok = n.Lookup(mcal.Kind("other"), "naming")
	assert.False(t, ok)
	assert.Zero(t, rec.count())
}

func TestNormalizeWithoutSink(t *testing.T) {
	rev, err := codebook.Load("v0.1")
	require.NoError(t, err)

	n := normalize.New(rev, normalize.WithSink(nil))
	assert.Equal(t, "CFE0", n.Normalize(mcal.ContentFeature, "unknown"))
	assert.Same(t, rev, n.Revision())
}

func TestNormalizeConcurrent(t *testing.T) {
	n, rec := newNormalizer(t, "v0.1")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				assert.Equal(t, "CFE2", n.Normalize(mcal.ContentFeature, "Actor Visibility"))
				assert.Equal(t, "CAT0", n.Normalize(mcal.ContentAnalysisType, "unknown"))
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1600, rec.count())
}
