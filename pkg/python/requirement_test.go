package python

import (
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/stackadvisor/pkg/errors"
)

func TestParseRequirement(t *testing.T) {
	tests := []struct {
		input string
		want  Requirement
	}{
		{"flask", Requirement{Name: "flask"}},
		{"Flask==1.0.2", Requirement{Name: "flask", Specifier: "==1.0.2"}},
		{"requests >= 2.0, < 3", Requirement{Name: "requests", Specifier: ">=2.0,<3"}},
		{"requests[security,socks]>=2.0", Requirement{Name: "requests", Specifier: ">=2.0", Extras: []string{"security", "socks"}}},
		{"pytest; extra == 'test'", Requirement{Name: "pytest", Markers: "extra == 'test'"}},
		{"six (>=1.10)", Requirement{Name: "six", Specifier: ">=1.10"}},
		{"numpy *", Requirement{Name: "numpy"}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseRequirement(tt.input)
			if err != nil {
				t.Fatalf("ParseRequirement(%q) error: %v", tt.input, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseRequirement(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseRequirementErrors(t *testing.T) {
	tests := []struct {
		input string
		code  errors.Code
	}{
		{"", errors.ErrCodeInvalidInput},
		{"git+https://github.com/pallets/flask", errors.ErrCodeUnsupported},
		{"-flask", errors.ErrCodeInvalidPackage},
	}
	for _, tt := range tests {
		_, err := ParseRequirement(tt.input)
		if !errors.Is(err, tt.code) {
			t.Errorf("ParseRequirement(%q) error = %v, want code %s", tt.input, err, tt.code)
		}
	}
}

func TestRequirementOptional(t *testing.T) {
	r, _ := ParseRequirement(`pytest ; extra == "test"`)
	if !r.Optional() {
		t.Error("extra marker should make the requirement optional")
	}
	r, _ = ParseRequirement(`importlib-metadata ; python_version < "3.8"`)
	if r.Optional() {
		t.Error("python_version marker should not make the requirement optional")
	}
}

func TestRequirementString(t *testing.T) {
	r := Requirement{Name: "requests", Specifier: ">=2", Extras: []string{"socks"}, Markers: "os_name == 'nt'"}
	if got := r.String(); got != "requests[socks]>=2; os_name == 'nt'" {
		t.Errorf("String() = %q", got)
	}
}

func TestParseRequirements(t *testing.T) {
	content := `# Test requirements
--index-url https://mirror.example.com/simple
requests>=2.28.0
click==8.1.0  # pinned
Pydantic>=2.0
httpx

-e ./local-package
git+https://github.com/user/repo.git
requests==1.0
--pre
`
	p, err := ParseRequirements(strings.NewReader(content))
	if err != nil {
		t.Fatalf("ParseRequirements failed: %v", err)
	}

	var names []string
	for _, r := range p.Requirements {
		names = append(names, r.Name)
	}
	want := []string{"requests", "click", "pydantic", "httpx"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("names = %v, want %v", names, want)
	}
	if p.Requirements[0].Specifier != ">=2.28.0" {
		t.Errorf("first declaration should win, got %q", p.Requirements[0].Specifier)
	}
	if len(p.Sources) != 1 || p.Sources[0].URL != "https://mirror.example.com/simple" {
		t.Errorf("Sources = %+v", p.Sources)
	}
	if !p.AllowPrereleases {
		t.Error("--pre should allow prereleases")
	}
}

func TestParseRequirementsDefaultSource(t *testing.T) {
	p, err := ParseRequirements(strings.NewReader("flask\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Sources) != 1 || p.Sources[0] != DefaultSource() {
		t.Errorf("Sources = %+v, want default PyPI source", p.Sources)
	}
}

func TestSupportsRequirementsFile(t *testing.T) {
	tests := []struct {
		filename string
		want     bool
	}{
		{"requirements.txt", true},
		{"requirements-dev.txt", true},
		{"requirements_prod.txt", true},
		{"pyproject.toml", false},
		{"Pipfile", false},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := SupportsRequirementsFile(tt.filename); got != tt.want {
				t.Errorf("SupportsRequirementsFile(%q) = %v, want %v", tt.filename, got, tt.want)
			}
		})
	}
}
