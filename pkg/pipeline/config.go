package pipeline

import (
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/matzehuels/stackadvisor/pkg/errors"
	"github.com/matzehuels/stackadvisor/pkg/resolution"
)

// Configuration holds a unit's parameters. Values are YAML or JSON scalars.
type Configuration map[string]any

// Merge returns defaults overlaid with overrides. Keys absent from defaults
// are rejected. Neither input is modified.
func Merge(defaults, overrides Configuration) (Configuration, error) {
	merged := maps.Clone(defaults)
	if merged == nil {
		merged = Configuration{}
	}
	for _, k := range slices.Sorted(maps.Keys(overrides)) {
		if _, ok := defaults[k]; !ok {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown configuration key %q", k)
		}
		merged[k] = overrides[k]
	}
	return merged, nil
}

// Float returns key as a float64.
func (c Configuration) Float(key string) (float64, error) {
	switch v := c[key].(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	default:
		return 0, typeError(key, "a number", v)
	}
}

// Int returns key as an int. Floats without a fractional part are accepted
// since JSON decodes every number as float64.
func (c Configuration) Int(key string) (int, error) {
	switch v := c[key].(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case uint64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, typeError(key, "an integer", v)
		}
		return int(v), nil
	default:
		return 0, typeError(key, "an integer", v)
	}
}

// Bool returns key as a bool.
func (c Configuration) Bool(key string) (bool, error) {
	v, ok := c[key].(bool)
	if !ok {
		return false, typeError(key, "a boolean", c[key])
	}
	return v, nil
}

// String returns key as a string.
func (c Configuration) String(key string) (string, error) {
	v, ok := c[key].(string)
	if !ok {
		return "", typeError(key, "a string", c[key])
	}
	return v, nil
}

func typeError(key, want string, got any) error {
	return errors.New(errors.ErrCodeInvalidConfig, "configuration %q must be %s, got %s", key, want, describe(got))
}

func describe(v any) string {
	if v == nil {
		return "nothing"
	}
	return fmt.Sprintf("%T %v", v, v)
}

// Base implements the bookkeeping part of [Unit]. Units embed it.
type Base struct {
	desc   *Descriptor
	config Configuration
}

// NewBase merges overrides into the descriptor's defaults.
func NewBase(d *Descriptor, overrides Configuration) (Base, error) {
	config, err := Merge(d.Defaults, overrides)
	if err != nil {
		return Base{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "unit %s", d.Name)
	}
	return Base{desc: d, config: config}, nil
}

// Name implements [Unit].
func (b Base) Name() string { return b.desc.Name }

// Kind implements [Unit].
func (b Base) Kind() Kind { return b.desc.Kind }

// Configuration implements [Unit]. The returned map is a copy.
func (b Base) Configuration() Configuration { return maps.Clone(b.config) }

// Config gives units access to their configuration without copying.
func (b Base) Config() Configuration { return b.config }

// MultiPackageResolution implements [Step].
func (b Base) MultiPackageResolution() bool { return b.desc.MultiPackageResolution }

// PreRun implements [Unit].
func (b Base) PreRun(*resolution.Context) error { return nil }

// PostRun implements [Unit].
func (b Base) PostRun(*resolution.Context) {}
