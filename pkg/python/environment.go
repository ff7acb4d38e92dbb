package python

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/stackadvisor/pkg/errors"
)

// OperatingSystem identifies the target OS.
type OperatingSystem struct {
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
}

// Hardware identifies the target hardware.
type Hardware struct {
	CPUFamily string `json:"cpu_family,omitempty" yaml:"cpu_family,omitempty"`
	CPUModel  string `json:"cpu_model,omitempty" yaml:"cpu_model,omitempty"`
	GPUModel  string `json:"gpu_model,omitempty" yaml:"gpu_model,omitempty"`
}

// RuntimeEnvironment describes where the recommended stack will run. Zero
// fields mean "any".
type RuntimeEnvironment struct {
	Name            string          `json:"name,omitempty" yaml:"name,omitempty"`
	OperatingSystem OperatingSystem `json:"operating_system" yaml:"operating_system"`
	PythonVersion   string          `json:"python_version,omitempty" yaml:"python_version,omitempty"`
	Hardware        Hardware        `json:"hardware" yaml:"hardware"`
}

// ParseRuntimeEnvironment decodes a YAML runtime environment description:
//
//	name: prod
//	operating_system: {name: fedora, version: "38"}
//	python_version: "3.11"
//	hardware: {cpu_family: 6, cpu_model: 94}
func ParseRuntimeEnvironment(data []byte) (RuntimeEnvironment, error) {
	var env RuntimeEnvironment
	if err := yaml.Unmarshal(data, &env); err != nil {
		return RuntimeEnvironment{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse runtime environment")
	}
	return env, nil
}

// LoadRuntimeEnvironment reads a YAML runtime environment file.
func LoadRuntimeEnvironment(path string) (RuntimeEnvironment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RuntimeEnvironment{}, errors.Wrap(errors.ErrCodeInvalidPath, err, "read %s", path)
	}
	return ParseRuntimeEnvironment(data)
}

// IsZero reports whether no field is set.
func (e RuntimeEnvironment) IsZero() bool {
	return e == RuntimeEnvironment{}
}

// Clone returns a copy of e. RuntimeEnvironment holds only values, the
// method exists so callers holding a pointer can copy without dereferencing
// nil.
func (e *RuntimeEnvironment) Clone() *RuntimeEnvironment {
	if e == nil {
		return nil
	}
	c := *e
	return &c
}
