package pipeline

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/stackadvisor/pkg/errors"
)

// Config is the pipeline configuration file:
//
//	sieves:
//	  - name: cut_prereleases
//	steps:
//	  - name: cve_penalization
//	    configuration:
//	      cve_penalization: -0.3
//	strides:
//	  - name: score_filter
//	    configuration: {score_threshold: -0.5}
type Config struct {
	Sieves  []UnitEntry `json:"sieves,omitempty" yaml:"sieves,omitempty"`
	Steps   []UnitEntry `json:"steps,omitempty" yaml:"steps,omitempty"`
	Strides []UnitEntry `json:"strides,omitempty" yaml:"strides,omitempty"`
	Wraps   []UnitEntry `json:"wraps,omitempty" yaml:"wraps,omitempty"`
}

// UnitEntry names a unit and its configuration overrides.
type UnitEntry struct {
	Name          string        `json:"name" yaml:"name"`
	Configuration Configuration `json:"configuration,omitempty" yaml:"configuration,omitempty"`
}

func (c *Config) entries(kind Kind) []UnitEntry {
	switch kind {
	case KindSieve:
		return c.Sieves
	case KindStep:
		return c.Steps
	case KindStride:
		return c.Strides
	case KindWrap:
		return c.Wraps
	}
	return nil
}

// ParseConfig decodes a YAML pipeline configuration.
func ParseConfig(data []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse pipeline configuration")
	}
	for _, kind := range Kinds {
		for i, e := range c.entries(kind) {
			if e.Name == "" {
				return nil, errors.New(errors.ErrCodeInvalidConfig, "%s #%d has no name", kind, i)
			}
		}
	}
	return &c, nil
}

// LoadConfig reads a YAML pipeline configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "read %s", path)
	}
	return ParseConfig(data)
}

// YAML encodes the configuration.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
