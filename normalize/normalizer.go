// Package normalize maps free-text survey and spreadsheet labels onto MCAL
// controlled-vocabulary codes.
//
// A Normalizer is bound to one codebook revision. Normalize never fails: a
// label without a table entry yields the kind's unknown code (CFE0, CAT0,
// RQT0) and is reported once to the configured Sink so it can be curated.
// The Normalizer holds no mutable state and is safe for concurrent use as
// long as its Sink is.
package normalize

import (
	"github.com/c360studio/semcode/codebook"
	"github.com/c360studio/semcode/vocabulary/mcal"
)

// Normalizer resolves labels against the tables of a single revision.
type Normalizer struct {
	revision *codebook.Revision
	sink     Sink
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithSink sets the sink that receives unmapped-label diagnostics.
func WithSink(sink Sink) Option {
	return func(n *Normalizer) {
		if sink != nil {
			n.sink = sink
		}
	}
}

// New creates a Normalizer over rev. Without WithSink diagnostics are
// discarded.
func New(rev *codebook.Revision, opts ...Option) *Normalizer {
	n := &Normalizer{
		revision: rev,
		sink:     Discard,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Revision returns the revision the normalizer resolves against.
func (n *Normalizer) Revision() *codebook.Revision {
	return n.revision
}

// Lookup returns the code for label without reporting misses.
func (n *Normalizer) Lookup(kind mcal.Kind, label string) (string, bool) {
	table, ok := n.revision.Table(kind)
	if !ok {
		return "", false
	}
	return table.Lookup(label)
}

// Normalize returns the code for label, or the kind's unknown code when the
// label has no entry. Every miss is reported to the sink exactly once.
func (n *Normalizer) Normalize(kind mcal.Kind, label string) string {
	if code, ok := n.Lookup(kind, label); ok {
		return code
	}
	code := kind.UnknownCode()
	n.sink.Report(Diagnostic{
		Kind:     kind,
		Label:    label,
		Code:     code,
		Revision: n.revision.Name(),
	})
	return code
}

// NormalizeAll normalizes each label independently. The result has the same
// length and order as labels; duplicates are kept.
func (n *Normalizer) NormalizeAll(kind mcal.Kind, labels []string) []string {
	codes := make([]string, len(labels))
	for i, label := range labels {
		codes[i] = n.Normalize(kind, label)
	}
	return codes
}
