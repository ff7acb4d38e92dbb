package pipeline

import (
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackadvisor/pkg/python"
	"github.com/matzehuels/stackadvisor/pkg/resolution"
)

// Descriptor describes a unit type: its name, role, default configuration
// and how to construct and auto-include it.
type Descriptor struct {
	Name     string
	Kind     Kind
	Defaults Configuration

	// MultiPackageResolution applies to steps, see [Step].
	MultiPackageResolution bool

	// New builds an instance from a configuration merged with Defaults.
	New func(Base) (Unit, error)

	// ShouldInclude returns the configuration of every instance to add when
	// a pipeline is assembled for bc, or nil to leave the unit out.
	ShouldInclude func(bc *BuildContext) []Configuration
}

// Build creates an instance with overrides applied to the defaults.
func (d *Descriptor) Build(overrides Configuration) (Unit, error) {
	base, err := NewBase(d, overrides)
	if err != nil {
		return nil, err
	}
	u, err := d.New(base)
	if err != nil {
		return nil, fmt.Errorf("unit %s: %w", d.Name, err)
	}
	if u.Kind() != d.Kind {
		return nil, fmt.Errorf("unit %s: built a %s, declared a %s", d.Name, u.Kind(), d.Kind)
	}
	return u, nil
}

// Registry resolves unit names to descriptors.
type Registry struct {
	order  []*Descriptor
	byName map[string]*Descriptor
}

// NewRegistry indexes descriptors. Names must be unique.
func NewRegistry(descriptors ...*Descriptor) (*Registry, error) {
	r := &Registry{byName: make(map[string]*Descriptor, len(descriptors))}
	for _, d := range descriptors {
		if _, dup := r.byName[d.Name]; dup {
			return nil, fmt.Errorf("duplicate unit %q", d.Name)
		}
		if !slices.Contains(Kinds, d.Kind) {
			return nil, fmt.Errorf("unit %q has unknown kind %q", d.Name, d.Kind)
		}
		r.byName[d.Name] = d
		r.order = append(r.order, d)
	}
	return r, nil
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (*Descriptor, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// Descriptors returns every descriptor in registration order.
func (r *Registry) Descriptors() []*Descriptor {
	return slices.Clone(r.order)
}

// Names lists registered unit names of the given kind.
func (r *Registry) Names(kind Kind) []string {
	var names []string
	for _, d := range r.order {
		if d.Kind == kind {
			names = append(names, d.Name)
		}
	}
	return names
}

// BuildContext is what ShouldInclude decides on.
type BuildContext struct {
	RecommendationType resolution.RecommendationType
	Project            *python.Project
	Logger             *log.Logger

	included map[string]int
}

// NewBuildContext returns a BuildContext with a discard logger.
func NewBuildContext(rt resolution.RecommendationType, project *python.Project) *BuildContext {
	return &BuildContext{
		RecommendationType: rt,
		Project:            project,
		Logger:             log.NewWithOptions(io.Discard, log.Options{}),
		included:           make(map[string]int),
	}
}

// IsIncluded reports whether a unit called name was added so far.
func (bc *BuildContext) IsIncluded(name string) bool {
	return bc.included[name] > 0
}

func (bc *BuildContext) markIncluded(name string) {
	if bc.included == nil {
		bc.included = make(map[string]int)
	}
	bc.included[name]++
}
