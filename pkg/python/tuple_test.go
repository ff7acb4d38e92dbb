package python

import "testing"

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Flask", "flask"},
		{"zope.interface", "zope-interface"},
		{"Foo__Bar", "foo-bar"},
		{"a-_.b", "a-b"},
		{"  requests ", "requests"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := NormalizeName(tt.input); got != tt.want {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestPackageTupleComparable(t *testing.T) {
	a := NewPackageTuple("Flask", "1.0.2", DefaultIndexURL)
	b := PackageTuple{Name: "flask", Version: "1.0.2", Index: DefaultIndexURL}
	if a != b {
		t.Errorf("tuples should be equal: %v vs %v", a, b)
	}
	set := map[PackageTuple]bool{a: true}
	if !set[b] {
		t.Error("equal tuples should hash to the same key")
	}
	if (PackageTuple{Name: "flask", Version: "1.0.2"}) == a {
		t.Error("tuples differing by index should not be equal")
	}
}

func TestPackageTupleString(t *testing.T) {
	tests := []struct {
		tuple PackageTuple
		want  string
	}{
		{PackageTuple{Name: "flask"}, "flask"},
		{PackageTuple{Name: "flask", Version: "1.0.2"}, "flask==1.0.2"},
		{PackageTuple{Name: "flask", Version: "1.0.2", Index: "idx"}, "flask==1.0.2 (idx)"},
	}
	for _, tt := range tests {
		if got := tt.tuple.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestPackageTupleLocked(t *testing.T) {
	if (PackageTuple{Name: "a", Version: "1"}).Locked() {
		t.Error("tuple without index should not be locked")
	}
	if !(PackageTuple{Name: "a", Version: "1", Index: "i"}).Locked() {
		t.Error("tuple with version and index should be locked")
	}
}
