package codebook

import (
	"sync"

	"github.com/c360studio/semcode/vocabulary/mcal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Entry maps one free-text label to a code.
type Entry struct {
	Label string `yaml:"label"`
	Code  string `yaml:"code"`
}

// Table is the immutable label→code mapping of one kind within a revision.
type Table struct {
	kind     mcal.Kind
	foldCase bool
	entries  []Entry
	index    map[string]string
}

// lowerPool holds lowercase casers; a cases.Caser must not be shared between
// goroutines.
var lowerPool = sync.Pool{
	New: func() any {
		c := cases.Lower(language.Und)
		return &c
	},
}

func foldLabel(s string) string {
	c := lowerPool.Get().(*cases.Caser)
	out := c.String(s)
	c.Reset()
	lowerPool.Put(c)
	return out
}

// Kind returns the kind the table belongs to.
func (t *Table) Kind() mcal.Kind {
	return t.kind
}

// FoldCase reports whether input labels are lowercased before matching.
func (t *Table) FoldCase() bool {
	return t.foldCase
}

// Lookup returns the code for label. Matching is exact, after lowercasing
// when the table folds case.
func (t *Table) Lookup(label string) (string, bool) {
	key := label
	if t.foldCase {
		key = foldLabel(label)
	}
	code, ok := t.index[key]
	return code, ok
}

// Len returns the number of distinct labels in the table.
func (t *Table) Len() int {
	return len(t.entries)
}

// Entries returns the table entries in authored order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Codes returns the distinct codes of the table in order of first use.
func (t *Table) Codes() []string {
	seen := make(map[string]bool, len(t.entries))
	codes := make([]string, 0, len(t.entries))
	for _, e := range t.entries {
		if !seen[e.Code] {
			seen[e.Code] = true
			codes = append(codes, e.Code)
		}
	}
	return codes
}

// Labels returns every label that maps to code, in authored order.
func (t *Table) Labels(code string) []string {
	var labels []string
	for _, e := range t.entries {
		if e.Code == code {
			labels = append(labels, e.Label)
		}
	}
	return labels
}

// isLower reports whether s is unchanged by lowercasing.
func isLower(s string) bool {
	return foldLabel(s) == s
}
