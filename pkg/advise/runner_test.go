package advise

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/stackadvisor/pkg/errors"
	"github.com/matzehuels/stackadvisor/pkg/knowledge"
	"github.com/matzehuels/stackadvisor/pkg/pipeline"
	"github.com/matzehuels/stackadvisor/pkg/python"
	"github.com/matzehuels/stackadvisor/pkg/resolver"
)

func testKB() *knowledge.Memory {
	return knowledge.NewMemoryFromSnapshot(&knowledge.Snapshot{
		Packages: []knowledge.PackageRecord{
			{Name: "flask", Version: "1.0.2", Requires: []string{"click>=5.1"}},
			{Name: "click", Version: "7.0"},
			{Name: "click", Version: "6.0"},
		},
	})
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"missing manifest", Options{ManifestFilename: "Pipfile"}, errors.ErrCodeInvalidInput},
		{"missing filename", Options{Manifest: "flask"}, errors.ErrCodeInvalidInput},
		{"traversal", Options{Manifest: "flask", ManifestFilename: "../Pipfile"}, errors.ErrCodeInvalidPath},
		{"unsupported manifest", Options{Manifest: "flask", ManifestFilename: "setup.py"}, errors.ErrCodeUnsupported},
		{"bad format", Options{Manifest: "flask", ManifestFilename: "requirements.txt", Formats: []string{"png"}}, errors.ErrCodeInvalidInput},
		{"bad predictor", Options{Manifest: "flask", ManifestFilename: "requirements.txt", Predictor: "mcts"}, errors.ErrCodeInvalidInput},
		{"bad type", Options{Manifest: "flask", ManifestFilename: "requirements.txt", RecommendationType: "fastest"}, errors.ErrCodeInvalidInput},
		{"bad width", Options{Manifest: "flask", ManifestFilename: "requirements.txt", BeamWidth: -1}, errors.ErrCodeInvalidWidth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if !errors.Is(err, tt.code) {
				t.Errorf("ValidateAndSetDefaults() = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{Manifest: "flask", ManifestFilename: "requirements.txt"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults: %v", err)
	}
	if opts.Predictor != "latest" {
		t.Errorf("Predictor = %q, want latest", opts.Predictor)
	}
	if opts.RecommendationType != "stable" {
		t.Errorf("RecommendationType = %q, want stable", opts.RecommendationType)
	}
	if opts.Logger == nil {
		t.Error("Logger not set")
	}
	// idempotent
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Errorf("second call: %v", err)
	}
}

func TestParseProject(t *testing.T) {
	env := &python.RuntimeEnvironment{PythonVersion: "3.11"}
	p, err := ParseProject(Options{
		Manifest:           "[packages]\nflask = \"*\"\n",
		ManifestFilename:   "Pipfile",
		RuntimeEnvironment: env,
	})
	if err != nil {
		t.Fatalf("ParseProject: %v", err)
	}
	if len(p.Requirements) != 1 || p.Requirements[0].Name != "flask" {
		t.Errorf("Requirements = %v", p.Requirements)
	}
	if p.EffectivePythonVersion() != "3.11" {
		t.Errorf("python = %q, want 3.11", p.EffectivePythonVersion())
	}
}

func TestRunnerExecute(t *testing.T) {
	r := NewRunner(testKB(), nil, nil)
	defer r.Close()

	res, err := r.Execute(context.Background(), Options{
		Manifest:         "flask\n",
		ManifestFilename: "requirements.txt",
		Formats:          []string{FormatLock, FormatDOT},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	best := res.Report.Best()
	if best == nil {
		t.Fatal("no product")
	}
	got := make(map[string]string)
	for _, p := range best.Packages {
		got[p.Name] = p.Version
	}
	if got["flask"] != "1.0.2" || got["click"] != "7.0" {
		t.Errorf("best = %v", got)
	}

	lock := string(res.Artifacts[FormatLock])
	for _, want := range []string{`"flask"`, `"==1.0.2"`, `"==7.0"`, `"pipfile-spec": 6`} {
		if !strings.Contains(lock, want) {
			t.Errorf("lock missing %s:\n%s", want, lock)
		}
	}
	if !strings.Contains(string(res.Artifacts[FormatDOT]), `"flask" -> "click";`) {
		t.Errorf("dot missing edge:\n%s", res.Artifacts[FormatDOT])
	}
	if _, ok := res.Artifacts[FormatSVG]; ok {
		t.Error("svg rendered without being requested")
	}
	if res.Pipeline == nil || len(res.Pipeline.Sieves) == 0 {
		t.Errorf("pipeline config = %+v", res.Pipeline)
	}
}

func TestRunnerExecuteConfiguredPipeline(t *testing.T) {
	r := NewRunner(testKB(), nil, nil)
	cfg, err := pipeline.ParseConfig([]byte("wraps:\n  - name: info\n"))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}

	res, err := r.Execute(context.Background(), Options{
		Manifest:         "flask\n",
		ManifestFilename: "requirements.txt",
		Pipeline:         cfg,
		Count:            2,
		Predictor:        "combinations",
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(res.Pipeline.Sieves) != 0 || len(res.Pipeline.Wraps) != 1 {
		t.Errorf("pipeline = %+v, want only info", res.Pipeline)
	}
	if n := len(res.Report.Products); n != 2 {
		t.Errorf("products = %d, want 2", n)
	}
}

func TestRunnerExecuteNoDependencies(t *testing.T) {
	r := NewRunner(testKB(), nil, nil)
	res, err := r.Execute(context.Background(), Options{
		Manifest:         "django\n",
		ManifestFilename: "requirements.txt",
	})
	if !errors.Is(err, errors.ErrCodeNoDependencies) {
		t.Fatalf("err = %v, want NO_DEPENDENCIES", err)
	}
	if res == nil || res.Report == nil {
		t.Fatal("partial result missing")
	}
	if res.Report.Stats.Termination != resolver.TerminationError {
		t.Errorf("termination = %s, want %s", res.Report.Stats.Termination, resolver.TerminationError)
	}
}
