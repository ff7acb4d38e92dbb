// Package pipeline defines the pluggable units the resolver runs and
// assembles them into a [Pipeline].
//
// # Unit kinds
//
//   - [Sieve]: filters the candidates of each direct dependency before the
//     search starts.
//   - [Step]: scores or rejects a candidate on every expansion.
//   - [Stride]: scores or rejects a fully resolved state.
//   - [Wrap]: annotates accepted final states.
//
// # Assembly
//
// A pipeline is built either from a configuration file listing units by
// name, or by asking every registered [Descriptor] whether it wants to be
// included for a recommendation type:
//
//	reg, _ := pipeline.NewRegistry(units.All...)
//	bc := pipeline.NewBuildContext(resolution.RecommendationSecurity, project)
//	p, err := pipeline.Assemble(reg, bc)
//
//	cfg, _ := pipeline.LoadConfig("pipeline.yaml")
//	p, err := pipeline.FromConfig(reg, cfg)
package pipeline

import (
	"github.com/matzehuels/stackadvisor/pkg/errors"
	"github.com/matzehuels/stackadvisor/pkg/resolution"
)

// Pipeline is an ordered set of units.
type Pipeline struct {
	Sieves  []Sieve
	Steps   []Step
	Strides []Stride
	Wraps   []Wrap
}

// Add appends u to the list matching its kind.
func (p *Pipeline) Add(u Unit) error {
	switch v := u.(type) {
	case Sieve:
		p.Sieves = append(p.Sieves, v)
	case Step:
		p.Steps = append(p.Steps, v)
	case Stride:
		p.Strides = append(p.Strides, v)
	case Wrap:
		p.Wraps = append(p.Wraps, v)
	default:
		return errors.New(errors.ErrCodeInternal, "unit %s implements no unit kind", u.Name())
	}
	return nil
}

// Units returns every unit: sieves, steps, strides then wraps.
func (p *Pipeline) Units() []Unit {
	units := make([]Unit, 0, p.Len())
	for _, u := range p.Sieves {
		units = append(units, u)
	}
	for _, u := range p.Steps {
		units = append(units, u)
	}
	for _, u := range p.Strides {
		units = append(units, u)
	}
	for _, u := range p.Wraps {
		units = append(units, u)
	}
	return units
}

// Len returns the number of units.
func (p *Pipeline) Len() int {
	return len(p.Sieves) + len(p.Steps) + len(p.Strides) + len(p.Wraps)
}

// PreRun calls PreRun on every unit, stopping at the first error.
func (p *Pipeline) PreRun(c *resolution.Context) error {
	for _, u := range p.Units() {
		if err := u.PreRun(c); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "pre-run of %s", u.Name())
		}
	}
	return nil
}

// PostRun calls PostRun on every unit.
func (p *Pipeline) PostRun(c *resolution.Context) {
	for _, u := range p.Units() {
		u.PostRun(c)
	}
}

// Config describes the pipeline in the configuration file format.
func (p *Pipeline) Config() *Config {
	cfg := &Config{}
	for _, u := range p.Units() {
		e := UnitEntry{Name: u.Name(), Configuration: u.Configuration()}
		switch u.Kind() {
		case KindSieve:
			cfg.Sieves = append(cfg.Sieves, e)
		case KindStep:
			cfg.Steps = append(cfg.Steps, e)
		case KindStride:
			cfg.Strides = append(cfg.Strides, e)
		case KindWrap:
			cfg.Wraps = append(cfg.Wraps, e)
		}
	}
	return cfg
}

// Assemble builds a pipeline from every descriptor whose ShouldInclude
// returns configurations for bc, in registration order.
func Assemble(reg *Registry, bc *BuildContext) (*Pipeline, error) {
	p := &Pipeline{}
	for _, kind := range Kinds {
		for _, d := range reg.order {
			if d.Kind != kind || d.ShouldInclude == nil {
				continue
			}
			for _, overrides := range d.ShouldInclude(bc) {
				u, err := d.Build(overrides)
				if err != nil {
					return nil, err
				}
				if err := p.Add(u); err != nil {
					return nil, err
				}
				bc.markIncluded(d.Name)
				bc.Logger.Debug("included unit", "kind", d.Kind, "unit", d.Name, "configuration", u.Configuration())
			}
		}
	}
	return p, nil
}

// FromConfig builds the pipeline a configuration file describes.
func FromConfig(reg *Registry, cfg *Config) (*Pipeline, error) {
	p := &Pipeline{}
	for _, kind := range Kinds {
		for _, e := range cfg.entries(kind) {
			d, ok := reg.Lookup(e.Name)
			if !ok {
				return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown unit %q (available %ss: %v)", e.Name, kind, reg.Names(kind))
			}
			if d.Kind != kind {
				return nil, errors.New(errors.ErrCodeInvalidConfig, "unit %q is a %s, listed under %ss", e.Name, d.Kind, kind)
			}
			u, err := d.Build(e.Configuration)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "build unit %s", e.Name)
			}
			if err := p.Add(u); err != nil {
				return nil, err
			}
		}
	}
	return p, nil
}
