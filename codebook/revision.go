package codebook

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"sync"

	"github.com/c360studio/semcode/vocabulary/mcal"
	"gopkg.in/yaml.v3"
)

// ErrUnknownRevision is returned when a revision name is not in the codebook.
var ErrUnknownRevision = errors.New("unknown codebook revision")

//go:embed revisions/*.yaml
var revisionFiles embed.FS

// Revision is a named, immutable set of tables, one per kind.
type Revision struct {
	name        string
	description string
	tables      map[mcal.Kind]*Table
}

// revisionFile is the YAML layout of a revision.
type revisionFile struct {
	Revision    string                   `yaml:"revision"`
	Description string                   `yaml:"description"`
	Tables      map[string]tableDocument `yaml:"tables"`
}

type tableDocument struct {
	FoldCase bool    `yaml:"fold_case"`
	Entries  []Entry `yaml:"entries"`
}

// Name returns the revision name, e.g. "v0.1".
func (r *Revision) Name() string {
	return r.name
}

// Description returns the free-text description of the revision.
func (r *Revision) Description() string {
	return r.description
}

// Table returns the table of kind k.
func (r *Revision) Table(k mcal.Kind) (*Table, bool) {
	t, ok := r.tables[k]
	return t, ok
}

// Kinds returns the kinds covered by the revision in mcal.Kinds order.
func (r *Revision) Kinds() []mcal.Kind {
	kinds := make([]mcal.Kind, 0, len(r.tables))
	for _, k := range mcal.Kinds {
		if _, ok := r.tables[k]; ok {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// Parse builds a revision from its YAML document and validates every table.
func Parse(data []byte) (*Revision, error) {
	var doc revisionFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse codebook revision: %w", err)
	}
	if doc.Revision == "" {
		return nil, fmt.Errorf("codebook revision name is required")
	}

	rev := &Revision{
		name:        doc.Revision,
		description: doc.Description,
		tables:      make(map[mcal.Kind]*Table, len(doc.Tables)),
	}

	var errs []error
	for name, td := range doc.Tables {
		kind, err := mcal.ParseKind(name)
		if err != nil {
			errs = append(errs, fmt.Errorf("revision %s: %w", doc.Revision, err))
			continue
		}
		if _, dup := rev.tables[kind]; dup {
			errs = append(errs, fmt.Errorf("revision %s: table %s defined twice", doc.Revision, kind))
			continue
		}
		table, err := buildTable(kind, td)
		if err != nil {
			errs = append(errs, fmt.Errorf("revision %s: %w", doc.Revision, err))
			continue
		}
		rev.tables[kind] = table
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return rev, nil
}

// buildTable validates the authored entries and indexes them. Identical
// repeated entries collapse onto the first occurrence; a label repeated with
// a different code is rejected.
func buildTable(kind mcal.Kind, td tableDocument) (*Table, error) {
	t := &Table{
		kind:     kind,
		foldCase: td.FoldCase,
		entries:  make([]Entry, 0, len(td.Entries)),
		index:    make(map[string]string, len(td.Entries)),
	}

	var errs []error
	for i, e := range td.Entries {
		switch {
		case e.Label == "":
			errs = append(errs, fmt.Errorf("%s entry %d: empty label", kind, i))
			continue
		case !kind.OwnsCode(e.Code):
			errs = append(errs, fmt.Errorf("%s entry %q: code %q outside namespace %s", kind, e.Label, e.Code, kind.Prefix()))
			continue
		case e.Code == kind.UnknownCode():
			errs = append(errs, fmt.Errorf("%s entry %q: unknown code %s cannot be assigned", kind, e.Label, e.Code))
			continue
		case t.foldCase && !isLower(e.Label):
			errs = append(errs, fmt.Errorf("%s entry %q: case-folded table requires lowercase labels", kind, e.Label))
			continue
		}

		if existing, ok := t.index[e.Label]; ok {
			if existing != e.Code {
				errs = append(errs, fmt.Errorf("%s label %q mapped to both %s and %s", kind, e.Label, existing, e.Code))
			}
			continue
		}
		t.index[e.Label] = e.Code
		t.entries = append(t.entries, e)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return t, nil
}

// LoadFile parses a revision from a YAML file outside the embedded codebook.
func LoadFile(filename string) (*Revision, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read codebook file: %w", err)
	}
	return Parse(data)
}

var (
	builtinOnce sync.Once
	builtin     map[string]*Revision
	builtinErr  error
)

func loadBuiltin() (map[string]*Revision, error) {
	builtinOnce.Do(func() {
		entries, err := revisionFiles.ReadDir("revisions")
		if err != nil {
			builtinErr = fmt.Errorf("read embedded revisions: %w", err)
			return
		}
		revs := make(map[string]*Revision, len(entries))
		for _, entry := range entries {
			data, err := revisionFiles.ReadFile(path.Join("revisions", entry.Name()))
			if err != nil {
				builtinErr = fmt.Errorf("read %s: %w", entry.Name(), err)
				return
			}
			rev, err := Parse(data)
			if err != nil {
				builtinErr = fmt.Errorf("%s: %w", entry.Name(), err)
				return
			}
			if _, dup := revs[rev.name]; dup {
				builtinErr = fmt.Errorf("%s: revision %s defined twice", entry.Name(), rev.name)
				return
			}
			revs[rev.name] = rev
		}
		builtin = revs
	})
	return builtin, builtinErr
}

// Load returns the embedded revision called name.
func Load(name string) (*Revision, error) {
	revs, err := loadBuiltin()
	if err != nil {
		return nil, err
	}
	rev, ok := revs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRevision, name)
	}
	return rev, nil
}

// Revisions returns the names of the embedded revisions, sorted.
func Revisions() ([]string, error) {
	revs, err := loadBuiltin()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(revs))
	for name := range revs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
