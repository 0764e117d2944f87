package pipeline

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/c360studio/semcode/source"
)

// ErrUnknownPipeline is returned by Lookup for unregistered names.
var ErrUnknownPipeline = errors.New("unknown pipeline")

// Pipeline is a named, declarative record-to-triple mapping.
type Pipeline struct {
	// Name identifies the pipeline on the command line.
	Name string

	// Description is shown in listings.
	Description string

	// Graph is the named graph the output belongs to.
	Graph string

	// Inputs are the default source locations. Pipelines without defaults
	// need explicit inputs.
	Inputs []string

	// Format overrides format detection for the inputs.
	Format source.Format

	// Sheet selects a worksheet of XLSX inputs.
	Sheet string

	// Steps run for every record.
	Steps []Step
}

// Apply runs the pipeline steps on one context.
func (p *Pipeline) Apply(c *Context) error {
	for _, s := range p.Steps {
		if err := s.Apply(c); err != nil {
			return err
		}
	}
	return nil
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]*Pipeline)
)

// Register adds a pipeline to the registry. Registering a name twice is an
// error.
func Register(p *Pipeline) error {
	if p == nil || p.Name == "" {
		return fmt.Errorf("pipeline name is required")
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[p.Name]; exists {
		return fmt.Errorf("pipeline %q already registered", p.Name)
	}
	registry[p.Name] = p
	return nil
}

// Lookup returns the registered pipeline called name.
func Lookup(name string) (*Pipeline, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	p, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPipeline, name)
	}
	return p, nil
}

// Names returns the registered pipeline names, sorted.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
