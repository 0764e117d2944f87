package source

import (
	"context"
	"strings"
)

// Record is one row of a tabular source: an ordered set of field→value pairs.
type Record struct {
	// Row is the 1-based row number in the source, header included, so that
	// it matches the row shown by spreadsheet tools.
	Row    int
	fields []string
	values map[string]string
}

// NewRecord builds a record from parallel field and value slices. Missing
// trailing values are treated as empty; a repeated field keeps its first value.
func NewRecord(row int, fields, values []string) Record {
	r := Record{
		Row:    row,
		fields: make([]string, 0, len(fields)),
		values: make(map[string]string, len(fields)),
	}
	for i, f := range fields {
		if _, dup := r.values[f]; dup {
			continue
		}
		v := ""
		if i < len(values) {
			v = values[i]
		}
		r.fields = append(r.fields, f)
		r.values[f] = v
	}
	return r
}

// Fields returns the field names in source order.
func (r Record) Fields() []string {
	out := make([]string, len(r.fields))
	copy(out, r.fields)
	return out
}

// Get returns the raw value of field and whether the field exists.
func (r Record) Get(field string) (string, bool) {
	v, ok := r.values[field]
	return v, ok
}

// Value returns the raw value of field, or "" when absent.
func (r Record) Value(field string) string {
	return r.values[field]
}

// Has reports whether field exists and holds a non-blank value.
func (r Record) Has(field string) bool {
	return strings.TrimSpace(r.values[field]) != ""
}

// Len returns the number of fields.
func (r Record) Len() int {
	return len(r.fields)
}

// Source produces records in order.
type Source interface {
	// Name identifies the source in logs.
	Name() string
	// Read calls fn for every record until the source is exhausted, fn
	// returns an error, or ctx is done.
	Read(ctx context.Context, fn func(Record) error) error
}

// Records is an in-memory source, mainly for tests and JSON literals.
type Records struct {
	Label string
	Rows  []Record
}

// Name returns the label of the record set.
func (s *Records) Name() string {
	if s.Label == "" {
		return "records"
	}
	return s.Label
}

// Read emits the rows in order.
func (s *Records) Read(ctx context.Context, fn func(Record) error) error {
	for _, r := range s.Rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

// Concat reads each source in turn as one stream.
func Concat(sources ...Source) Source {
	return &concat{sources: sources}
}

type concat struct {
	sources []Source
}

func (c *concat) Name() string {
	names := make([]string, len(c.sources))
	for i, s := range c.sources {
		names[i] = s.Name()
	}
	return strings.Join(names, "+")
}

func (c *concat) Read(ctx context.Context, fn func(Record) error) error {
	for _, s := range c.sources {
		if err := s.Read(ctx, fn); err != nil {
			return err
		}
	}
	return nil
}
