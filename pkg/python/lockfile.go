package python

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// Lockfile is a Pipfile.lock document.
type Lockfile struct {
	Meta    LockMeta                    `json:"_meta"`
	Default map[string]LockedDependency `json:"default"`
	Develop map[string]LockedDependency `json:"develop"`
}

// LockMeta is the _meta section of a Pipfile.lock.
type LockMeta struct {
	Hash        map[string]string `json:"hash"`
	PipfileSpec int               `json:"pipfile-spec"`
	Requires    map[string]string `json:"requires"`
	Sources     []Source          `json:"sources"`
}

// LockedDependency is one pinned package entry.
type LockedDependency struct {
	Version string `json:"version"`
	Index   string `json:"index,omitempty"`
}

// NewLockfile pins tuples into a lockfile for project. Tuples served from an
// index the project does not declare get a generated source entry.
func NewLockfile(p *Project, tuples []PackageTuple) *Lockfile {
	lf := &Lockfile{
		Meta: LockMeta{
			Hash:        map[string]string{"sha256": p.hash()},
			PipfileSpec: 6,
			Requires:    map[string]string{},
			Sources:     append([]Source(nil), p.Sources...),
		},
		Default: make(map[string]LockedDependency, len(tuples)),
		Develop: map[string]LockedDependency{},
	}
	if v := p.EffectivePythonVersion(); v != "" {
		lf.Meta.Requires["python_version"] = v
	}

	for _, t := range tuples {
		entry := LockedDependency{Version: "==" + t.Version}
		if t.Index != "" {
			entry.Index = lf.sourceName(t.Index)
		}
		lf.Default[t.Name] = entry
	}
	return lf
}

func (lf *Lockfile) sourceName(url string) string {
	for _, s := range lf.Meta.Sources {
		if s.URL == url {
			return s.Name
		}
	}
	name := fmt.Sprintf("source-%d", len(lf.Meta.Sources))
	lf.Meta.Sources = append(lf.Meta.Sources, Source{Name: name, URL: url, VerifySSL: true})
	return name
}

// Tuples returns the pinned default packages as tuples sorted by name.
func (lf *Lockfile) Tuples() []PackageTuple {
	urls := make(map[string]string, len(lf.Meta.Sources))
	for _, s := range lf.Meta.Sources {
		urls[s.Name] = s.URL
	}
	out := make([]PackageTuple, 0, len(lf.Default))
	for name, dep := range lf.Default {
		v := dep.Version
		if len(v) > 2 && v[:2] == "==" {
			v = v[2:]
		}
		out = append(out, PackageTuple{Name: name, Version: v, Index: urls[dep.Index]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// JSON renders the lockfile with the four-space indentation pipenv writes.
func (lf *Lockfile) JSON() ([]byte, error) {
	data, err := json.MarshalIndent(lf, "", "    ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// hash digests the inputs that determine a lock: requirements, sources and
// the required Python version.
func (p *Project) hash() string {
	data, _ := json.Marshal(struct {
		Requirements    []Requirement
		DevRequirements []Requirement
		Sources         []Source
		PythonVersion   string
	}{p.Requirements, p.DevRequirements, p.Sources, p.PythonVersion})
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
