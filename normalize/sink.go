package normalize

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/c360studio/semcode/vocabulary/mcal"
)

// Diagnostic describes a label that had no entry in its table.
type Diagnostic struct {
	Kind     mcal.Kind
	Label    string
	Code     string // unknown code returned in place of a mapping
	Revision string
}

// Sink receives diagnostics for unmapped labels.
type Sink interface {
	Report(Diagnostic)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Diagnostic)

// Report calls f(d).
func (f SinkFunc) Report(d Diagnostic) { f(d) }

// Discard drops every diagnostic.
var Discard Sink = SinkFunc(func(Diagnostic) {})

// Multi fans a diagnostic out to every sink in order.
func Multi(sinks ...Sink) Sink {
	return SinkFunc(func(d Diagnostic) {
		for _, s := range sinks {
			if s != nil {
				s.Report(d)
			}
		}
	})
}

// LogSink logs each diagnostic as a warning.
func LogSink(logger *slog.Logger) Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return SinkFunc(func(d Diagnostic) {
		logger.Warn("Unmapped vocabulary label",
			"kind", string(d.Kind),
			"label", d.Label,
			"code", d.Code,
			"revision", d.Revision)
	})
}

// Unmapped aggregates the occurrences of one unmapped label.
type Unmapped struct {
	Kind      mcal.Kind `json:"kind"`
	Label     string    `json:"label"`
	Count     int       `json:"count"`
	FirstSeen time.Time `json:"first_seen"`
}

type unmappedKey struct {
	kind  mcal.Kind
	label string
}

// Collector accumulates unmapped labels for a curation report. It is safe
// for concurrent use.
type Collector struct {
	mu    sync.Mutex
	now   func() time.Time
	items map[unmappedKey]*Unmapped
	total int
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{
		now:   time.Now,
		items: make(map[unmappedKey]*Unmapped),
	}
}

// Report records one occurrence of d.Label.
func (c *Collector) Report(d Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.total++
	key := unmappedKey{kind: d.Kind, label: d.Label}
	if u, ok := c.items[key]; ok {
		u.Count++
		return
	}
	c.items[key] = &Unmapped{
		Kind:      d.Kind,
		Label:     d.Label,
		Count:     1,
		FirstSeen: c.now(),
	}
}

// Total returns the number of diagnostics received.
func (c *Collector) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// Unmapped returns the distinct unmapped labels ordered by kind, then by
// descending count, then by label.
func (c *Collector) Unmapped() []Unmapped {
	c.mu.Lock()
	out := make([]Unmapped, 0, len(c.items))
	for _, u := range c.items {
		out = append(out, *u)
	}
	c.mu.Unlock()

	order := make(map[mcal.Kind]int, len(mcal.Kinds))
	for i, k := range mcal.Kinds {
		order[k] = i
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return order[out[i].Kind] < order[out[j].Kind]
		}
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}
