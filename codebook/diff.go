package codebook

import "github.com/c360studio/semcode/vocabulary/mcal"

// ChangeType classifies a difference between two revisions.
type ChangeType string

// ChangeType constants.
const (
	// ChangeRemapped means the label resolves in both revisions, to different codes.
	ChangeRemapped ChangeType = "remapped"
	// ChangeRemoved means the label resolves only in the older revision.
	ChangeRemoved ChangeType = "removed"
	// ChangeAdded means the label resolves only in the newer revision.
	ChangeAdded ChangeType = "added"
)

// Change describes how one label behaves differently in two revisions.
type Change struct {
	Kind  mcal.Kind
	Type  ChangeType
	Label string
	From  string // code in the older revision, empty when added
	To    string // code in the newer revision, empty when removed
}

// Diff compares revision a against revision b. A label is compared by the
// code each revision would return for it, so case-folding differences between
// the two tables are taken into account. Results follow mcal.Kinds order and
// authored entry order within a table.
func Diff(a, b *Revision) []Change {
	var changes []Change
	for _, kind := range mcal.Kinds {
		ta, okA := a.Table(kind)
		tb, okB := b.Table(kind)

		if okA {
			for _, e := range ta.entries {
				var (
					to  string
					hit bool
				)
				if okB {
					to, hit = tb.Lookup(e.Label)
				}
				switch {
				case !hit:
					changes = append(changes, Change{Kind: kind, Type: ChangeRemoved, Label: e.Label, From: e.Code})
				case to != e.Code:
					changes = append(changes, Change{Kind: kind, Type: ChangeRemapped, Label: e.Label, From: e.Code, To: to})
				}
			}
		}

		if okB {
			for _, e := range tb.entries {
				if okA {
					if _, hit := ta.Lookup(e.Label); hit {
						continue
					}
				}
				changes = append(changes, Change{Kind: kind, Type: ChangeAdded, Label: e.Label, To: e.Code})
			}
		}
	}
	return changes
}
