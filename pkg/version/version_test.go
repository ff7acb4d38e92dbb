package version

import (
	"errors"
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		release []uint64
		pre     bool
		wantErr bool
	}{
		{"1.0.2", []uint64{1, 0, 2}, false, false},
		{"2022.1", []uint64{2022, 1}, false, false},
		{"1.2.3.4", []uint64{1, 2, 3, 4}, false, false},
		{"2.0.0rc1", []uint64{2, 0, 0}, true, false},
		{"1.0a2", []uint64{1, 0}, true, false},
		{"1.0.dev3", []uint64{1, 0}, true, false},
		{"1.0.post1", []uint64{1, 0}, false, false},
		{"1!2.0", []uint64{2, 0}, false, false},
		{"v1.4", []uint64{1, 4}, false, false},
		{"1.0+local.7", []uint64{1, 0}, false, false},
		{"", nil, false, true},
		{"latest", nil, false, true},
		{"1.0-beta-x", nil, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v, err := Parse(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidVersion) {
					t.Errorf("Parse(%q) error = %v, want ErrInvalidVersion", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.input, err)
			}
			if !reflect.DeepEqual(v.Release(), tt.release) {
				t.Errorf("Release() = %v, want %v", v.Release(), tt.release)
			}
			if v.IsPrerelease() != tt.pre {
				t.Errorf("IsPrerelease() = %v, want %v", v.IsPrerelease(), tt.pre)
			}
			if v.String() != tt.input {
				t.Errorf("String() = %q, want %q", v.String(), tt.input)
			}
		})
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0", "1.0.0", 0},
		{"1.0.1", "1.0", 1},
		{"1.10", "1.9", 1},
		{"1.0.dev1", "1.0a1", -1},
		{"1.0a1", "1.0b1", -1},
		{"1.0b2", "1.0rc1", -1},
		{"1.0rc1", "1.0", -1},
		{"1.0", "1.0.post1", -1},
		{"1.0.post1", "1.0.1", -1},
		{"1.2.3.5rc1", "1.2.3.4", 1},
		{"1!0.1", "2.0", 1},
		{"1.0.post2", "1.0.post10", -1},
		{"garbage", "0.0.1", -1},
		{"alpha", "beta", -1},
	}
	for _, tt := range tests {
		t.Run(tt.a+"_vs_"+tt.b, func(t *testing.T) {
			if got := Compare(tt.a, tt.b); got != tt.want {
				t.Errorf("Compare(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
			if got := Compare(tt.b, tt.a); got != -tt.want {
				t.Errorf("Compare(%q, %q) = %d, want %d", tt.b, tt.a, got, -tt.want)
			}
		})
	}
}

func TestSortDescending(t *testing.T) {
	versions := []string{"0.12.0", "1.0.2", "2.0.0rc1", "1.0", "0.9", "2.0.0"}
	SortDescending(versions)
	want := []string{"2.0.0", "2.0.0rc1", "1.0.2", "1.0", "0.12.0", "0.9"}
	if !reflect.DeepEqual(versions, want) {
		t.Errorf("SortDescending = %v, want %v", versions, want)
	}
}

func TestIsPrerelease(t *testing.T) {
	if !IsPrerelease("2.0b1") {
		t.Error("2.0b1 should be a prerelease")
	}
	if IsPrerelease("2.0") || IsPrerelease("not-a-version") {
		t.Error("final and invalid versions are not prereleases")
	}
}

func TestMustParsePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustParse should panic on invalid input")
		}
	}()
	MustParse("???")
}
