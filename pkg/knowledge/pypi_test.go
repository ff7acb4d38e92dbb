package knowledge

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/matzehuels/stackadvisor/pkg/cache"
	"github.com/matzehuels/stackadvisor/pkg/integrations/pypi"
	"github.com/matzehuels/stackadvisor/pkg/python"
)

func pypiServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body any
		switch r.URL.Path {
		case "/flask/json":
			body = map[string]any{
				"info": map[string]any{"name": "Flask", "version": "1.0.2"},
				"releases": map[string]any{
					"0.12.0": []any{map[string]any{"filename": "a.tar.gz"}},
					"1.0.2":  []any{map[string]any{"filename": "b.tar.gz", "requires_python": ">=3.9"}},
				},
			}
		case "/flask/0.12.0/json":
			body = map[string]any{
				"info": map[string]any{
					"name":          "Flask",
					"version":       "0.12.0",
					"requires_dist": []string{"Werkzeug>=0.7", "click>=2.0", "something @ https://x/y.whl"},
				},
				"vulnerabilities": []any{map[string]any{
					"id":       "PYSEC-2018-66",
					"aliases":  []string{"GHSA-5wv5-4vpf-pj6m", "CVE-2018-1000656"},
					"details":  "Improper input validation",
					"fixed_in": []string{"0.12.3"},
				}},
			}
		default:
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(body)
	}))
}

func testPyPI(t *testing.T) *PyPI {
	t.Helper()
	server := pypiServer(t)
	t.Cleanup(server.Close)
	return NewPyPI(pypi.NewClient(cache.NewNullCache(), time.Hour).WithBaseURL(server.URL), false)
}

func TestPyPIGetPackageVersions(t *testing.T) {
	kb := testPyPI(t)
	ctx := context.Background()

	all, err := kb.GetPackageVersions(ctx, "flask", python.RuntimeEnvironment{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all[0].Version != "1.0.2" || all[0].Index != python.DefaultIndexURL {
		t.Errorf("versions = %v", all)
	}

	old, _ := kb.GetPackageVersions(ctx, "flask", python.RuntimeEnvironment{PythonVersion: "3.6"})
	if len(old) != 1 || old[0].Version != "0.12.0" {
		t.Errorf("versions for python 3.6 = %v, want only 0.12.0", old)
	}

	missing, err := kb.GetPackageVersions(ctx, "does-not-exist", python.RuntimeEnvironment{})
	if err != nil || len(missing) != 0 {
		t.Errorf("missing package = %v, %v", missing, err)
	}
}

func TestPyPIGetDependencies(t *testing.T) {
	kb := testPyPI(t)
	reqs, err := kb.GetDependencies(context.Background(), python.NewPackageTuple("flask", "0.12.0", python.DefaultIndexURL), python.RuntimeEnvironment{})
	if err != nil {
		t.Fatal(err)
	}
	if len(reqs) != 2 || reqs[0].Name != "werkzeug" || reqs[1].Name != "click" {
		t.Errorf("requirements = %v, want werkzeug and click (direct reference skipped)", reqs)
	}

	other, err := kb.GetDependencies(context.Background(), python.NewPackageTuple("flask", "0.12.0", "https://other/simple"), python.RuntimeEnvironment{})
	if err != nil || other != nil {
		t.Errorf("other index = %v, %v", other, err)
	}
}

func TestPyPIGetCVERecords(t *testing.T) {
	kb := testPyPI(t)
	records, err := kb.GetCVERecords(context.Background(), "flask", "0.12.0")
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %v", records)
	}
	r := records[0]
	if r.ID != "CVE-2018-1000656" || r.VersionRange != "<0.12.3" || r.Advisory != "Improper input validation" {
		t.Errorf("record = %+v", r)
	}
}

func TestPyPIUnknownData(t *testing.T) {
	kb := testPyPI(t)
	ctx := context.Background()
	flask := python.NewPackageTuple("flask", "0.12.0", python.DefaultIndexURL)

	if broken, _ := kb.HasBuildError(ctx, flask, python.RuntimeEnvironment{}); broken {
		t.Error("HasBuildError = true, want false")
	}
	if avg, _ := kb.ComputeAveragePerformance(ctx, []python.PackageTuple{flask}, python.RuntimeEnvironment{}); !math.IsNaN(avg) {
		t.Errorf("performance = %v, want NaN", avg)
	}
	if ok, _ := kb.IsIndexEnabled(ctx, "https://anything"); !ok {
		t.Error("IsIndexEnabled = false, want true")
	}
}
