// Package version implements Python (PEP 440) version ordering and
// specifier matching on top of github.com/Masterminds/semver/v3.
//
// PEP 440 versions are mapped onto semantic versions: the first three
// release segments become major.minor.patch, prerelease phases become
// semver prerelease identifiers ("a.1", "b.2", "rc.1", and "0.dev.3" so that
// dev releases sort first). Release segments beyond the third, epochs and
// post releases are kept beside the semver value and compared explicitly.
package version

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ErrInvalidVersion is returned for strings that are not PEP 440 versions.
var ErrInvalidVersion = errors.New("invalid version")

var pep440RE = regexp.MustCompile(`(?i)^v?(?:(\d+)!)?(\d+(?:\.\d+)*)` +
	`(?:[-_.]?(a|b|c|rc|alpha|beta|pre|preview)[-_.]?(\d*))?` +
	`(?:-(\d+)|[-_.]?(post|rev|r)[-_.]?(\d*))?` +
	`(?:[-_.]?(dev)[-_.]?(\d*))?` +
	`(?:\+[a-z0-9]+(?:[-_.][a-z0-9]+)*)?$`)

// Version is a parsed PEP 440 version.
type Version struct {
	raw     string
	epoch   int
	release []uint64
	sv      *semver.Version
	post    int // -1 when not a post release
	dev     bool
}

// Parse parses a PEP 440 version string.
func Parse(s string) (*Version, error) {
	s = strings.TrimSpace(s)
	m := pep440RE.FindStringSubmatch(s)
	if m == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
	}

	v := &Version{raw: s, post: -1}
	if m[1] != "" {
		v.epoch, _ = strconv.Atoi(m[1])
	}
	for _, seg := range strings.Split(m[2], ".") {
		n, err := strconv.ParseUint(seg, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
		}
		v.release = append(v.release, n)
	}

	var pre string
	switch strings.ToLower(m[3]) {
	case "":
	case "a", "alpha":
		pre = "a." + number(m[4])
	case "b", "beta":
		pre = "b." + number(m[4])
	default:
		pre = "rc." + number(m[4])
	}
	switch {
	case m[5] != "":
		v.post, _ = strconv.Atoi(m[5])
	case m[6] != "":
		v.post, _ = strconv.Atoi(number(m[7]))
	}
	if m[8] != "" {
		v.dev = true
		// a dev release of a final release sorts before its prereleases
		if pre == "" && v.post < 0 {
			pre = "0.dev." + number(m[9])
		}
	}

	core := fmt.Sprintf("%d.%d.%d", v.segment(0), v.segment(1), v.segment(2))
	if pre != "" {
		core += "-" + pre
	}
	sv, err := semver.NewVersion(core)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidVersion, s, err)
	}
	v.sv = sv
	return v, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// constants.
func MustParse(s string) *Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// number normalizes an optional numeric suffix: "" -> "0", "007" -> "7".
func number(s string) string {
	s = strings.TrimLeft(s, "0")
	if s == "" {
		return "0"
	}
	return s
}

func (v *Version) segment(i int) uint64 {
	if i < len(v.release) {
		return v.release[i]
	}
	return 0
}

// String returns the version as it was written.
func (v *Version) String() string { return v.raw }

// Release returns the release segments (1.2.3 -> [1 2 3]).
func (v *Version) Release() []uint64 {
	return append([]uint64(nil), v.release...)
}

// IsPrerelease reports whether v is an alpha, beta, release candidate or
// development release.
func (v *Version) IsPrerelease() bool {
	return v.sv.Prerelease() != "" || v.dev
}

// Compare returns -1, 0 or 1 depending on whether v sorts before, equal to or
// after o. Trailing zero release segments are insignificant (1.0 == 1.0.0).
func (v *Version) Compare(o *Version) int {
	if c := cmpInt(v.epoch, o.epoch); c != 0 {
		return c
	}
	if c := v.compareRelease(o); c != 0 {
		return c
	}
	// release segments are equal, semver now only compares prereleases
	if c := v.sv.Compare(o.sv); c != 0 {
		return c
	}
	return cmpInt(v.post, o.post)
}

func (v *Version) compareRelease(o *Version) int {
	n := max(len(v.release), len(o.release))
	for i := 0; i < n; i++ {
		a, b := v.segment(i), o.segment(i)
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
	}
	return 0
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Compare compares two version strings. Strings that do not parse sort
// before every valid version and lexically among themselves.
func Compare(a, b string) int {
	va, errA := Parse(a)
	vb, errB := Parse(b)
	switch {
	case errA == nil && errB == nil:
		return va.Compare(vb)
	case errA != nil && errB != nil:
		return strings.Compare(a, b)
	case errA != nil:
		return -1
	default:
		return 1
	}
}

// IsPrerelease reports whether s parses as a prerelease version.
func IsPrerelease(s string) bool {
	v, err := Parse(s)
	return err == nil && v.IsPrerelease()
}

// SortDescending sorts version strings newest first. The sort is stable so
// equal versions (1.0 and 1.0.0) keep their relative order.
func SortDescending(versions []string) {
	sort.SliceStable(versions, func(i, j int) bool {
		return Compare(versions[i], versions[j]) > 0
	})
}
