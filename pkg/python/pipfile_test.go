package python

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/stackadvisor/pkg/errors"
)

const testPipfile = `
[[source]]
name = "pypi"
url = "https://pypi.org/simple"
verify_ssl = true

[[source]]
name = "internal"
url = "https://pypi.internal.example/simple"
verify_ssl = false

[packages]
Flask = "==1.0.2"
requests = {version = ">=2.0", extras = ["security"]}
tensorflow = {version = "*", index = "internal"}

[dev-packages]
pytest = "*"

[requires]
python_version = "3.8"

[pipenv]
allow_prereleases = true
`

func TestParsePipfile(t *testing.T) {
	p, err := ParsePipfile([]byte(testPipfile))
	if err != nil {
		t.Fatalf("ParsePipfile: %v", err)
	}

	if len(p.Sources) != 2 {
		t.Fatalf("Sources = %d, want 2", len(p.Sources))
	}
	if p.Sources[1].VerifySSL {
		t.Error("internal source should not verify SSL")
	}
	if len(p.Requirements) != 3 {
		t.Fatalf("Requirements = %d, want 3", len(p.Requirements))
	}

	// names are sorted for a stable resolution order
	flask, requests, tf := p.Requirements[0], p.Requirements[1], p.Requirements[2]
	if flask.Name != "flask" || flask.Specifier != "==1.0.2" {
		t.Errorf("flask = %+v", flask)
	}
	if requests.Specifier != ">=2.0" || len(requests.Extras) != 1 {
		t.Errorf("requests = %+v", requests)
	}
	if tf.Index != "https://pypi.internal.example/simple" || tf.Specifier != "" {
		t.Errorf("tensorflow = %+v", tf)
	}
	if len(p.DevRequirements) != 1 || p.DevRequirements[0].Name != "pytest" {
		t.Errorf("DevRequirements = %+v", p.DevRequirements)
	}
	if p.PythonVersion != "3.8" {
		t.Errorf("PythonVersion = %q, want 3.8", p.PythonVersion)
	}
	if !p.AllowPrereleases {
		t.Error("AllowPrereleases = false, want true")
	}
	if got := len(p.DirectRequirements(true)); got != 4 {
		t.Errorf("DirectRequirements(true) = %d, want 4", got)
	}
}

func TestParsePipfileErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		code    errors.Code
	}{
		{"bad toml", "[packages\n", errors.ErrCodeInvalidPipfile},
		{"unknown index", "[packages]\nflask = {version = \"*\", index = \"nope\"}\n", errors.ErrCodeInvalidPipfile},
		{"git", "[packages]\nflask = {git = \"https://github.com/pallets/flask\"}\n", errors.ErrCodeUnsupported},
		{"bad name", "[packages]\n\"-flask\" = \"*\"\n", errors.ErrCodeInvalidPackage},
		{"source without url", "[[source]]\nname = \"x\"\n", errors.ErrCodeInvalidPipfile},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePipfile([]byte(tt.content))
			if !errors.Is(err, tt.code) {
				t.Errorf("ParsePipfile error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestPipfileStringRoundTrip(t *testing.T) {
	p, err := ParsePipfile([]byte(testPipfile))
	if err != nil {
		t.Fatal(err)
	}
	again, err := ParsePipfile([]byte(p.PipfileString()))
	if err != nil {
		t.Fatalf("re-parse: %v\n%s", err, p.PipfileString())
	}
	if len(again.Requirements) != len(p.Requirements) || again.Requirements[2].Index != p.Requirements[2].Index {
		t.Errorf("round trip mismatch: %+v", again.Requirements)
	}
}

func TestLoadProject(t *testing.T) {
	dir := t.TempDir()
	pipfilePath := filepath.Join(dir, "Pipfile")
	if err := os.WriteFile(pipfilePath, []byte("[packages]\nflask = \"*\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	p, err := LoadProject(pipfilePath)
	if err != nil {
		t.Fatalf("LoadProject(Pipfile): %v", err)
	}
	if len(p.Requirements) != 1 || p.Sources[0].URL != DefaultIndexURL {
		t.Errorf("project = %+v", p)
	}

	other := filepath.Join(dir, "setup.py")
	if err := os.WriteFile(other, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadProject(other); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("LoadProject(setup.py) error = %v, want UNSUPPORTED", err)
	}
	if _, err := LoadProject(filepath.Join(dir, "missing.txt")); err == nil {
		t.Error("LoadProject on a missing file should fail")
	}
}

func TestNewLockfile(t *testing.T) {
	p, err := ParsePipfile([]byte(testPipfile))
	if err != nil {
		t.Fatal(err)
	}
	tuples := []PackageTuple{
		{Name: "flask", Version: "1.0.2", Index: DefaultIndexURL},
		{Name: "tensorflow", Version: "2.1.0", Index: "https://pypi.internal.example/simple"},
		{Name: "werkzeug", Version: "1.0.0", Index: "https://mirror.example.com/simple"},
	}
	lf := NewLockfile(p, tuples)

	if got := lf.Default["flask"]; got.Version != "==1.0.2" || got.Index != "pypi" {
		t.Errorf("flask entry = %+v", got)
	}
	if got := lf.Default["tensorflow"].Index; got != "internal" {
		t.Errorf("tensorflow index = %q, want internal", got)
	}
	if len(lf.Meta.Sources) != 3 {
		t.Errorf("unknown index should add a source, got %d sources", len(lf.Meta.Sources))
	}
	if lf.Meta.Requires["python_version"] != "3.8" {
		t.Errorf("requires = %v", lf.Meta.Requires)
	}
	if len(p.Sources) != 2 {
		t.Error("NewLockfile must not modify the project sources")
	}

	data, err := lf.JSON()
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	var decoded Lockfile
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	got := decoded.Tuples()
	if len(got) != 3 || got[0] != tuples[0] || got[2] != tuples[2] {
		t.Errorf("Tuples() = %v, want %v", got, tuples)
	}
}

func TestParseRuntimeEnvironment(t *testing.T) {
	env, err := ParseRuntimeEnvironment([]byte(`
name: prod
operating_system:
  name: fedora
  version: "38"
python_version: "3.11"
hardware:
  cpu_family: "6"
  gpu_model: "a100"
`))
	if err != nil {
		t.Fatalf("ParseRuntimeEnvironment: %v", err)
	}
	want := RuntimeEnvironment{
		Name:            "prod",
		OperatingSystem: OperatingSystem{Name: "fedora", Version: "38"},
		PythonVersion:   "3.11",
		Hardware:        Hardware{CPUFamily: "6", GPUModel: "a100"},
	}
	if env != want {
		t.Errorf("env = %+v, want %+v", env, want)
	}
	if env.IsZero() {
		t.Error("IsZero() = true for a populated environment")
	}
	clone := (&env).Clone()
	clone.PythonVersion = "3.12"
	if env.PythonVersion != "3.11" {
		t.Error("Clone should not alias the original")
	}
	var nilEnv *RuntimeEnvironment
	if nilEnv.Clone() != nil {
		t.Error("Clone of nil should be nil")
	}
}
