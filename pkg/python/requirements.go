package python

import (
	"bufio"
	"io"
	"strings"

	"github.com/matzehuels/stackadvisor/pkg/errors"
)

// ParseRequirements reads a requirements.txt document.
//
// Comments, blank lines, editable installs and URL requirements are skipped.
// "--index-url" and "--extra-index-url" options become project sources, the
// first one being the primary index. A package listed twice keeps its first
// declaration.
func ParseRequirements(r io.Reader) (*Project, error) {
	p := &Project{}
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := stripComment(scanner.Text())
		if line == "" {
			continue
		}
		if line[0] == '-' {
			if url, ok := indexOption(line); ok {
				p.addSource(url)
			} else if line == "--pre" {
				p.AllowPrereleases = true
			}
			continue
		}
		if strings.Contains(line, "://") || strings.HasPrefix(line, "git+") {
			continue
		}
		req, err := ParseRequirement(line)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "requirements line %d", lineNo)
		}
		if seen[req.Name] {
			continue
		}
		seen[req.Name] = true
		p.Requirements = append(p.Requirements, req)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(p.Sources) == 0 {
		p.Sources = []Source{DefaultSource()}
	}
	return p, nil
}

// SupportsRequirementsFile reports whether name looks like a requirements file
// (requirements.txt, requirements-dev.txt, ...).
func SupportsRequirementsFile(name string) bool {
	return name == "requirements.txt" ||
		(strings.HasPrefix(name, "requirements") && strings.HasSuffix(name, ".txt"))
}

func stripComment(line string) string {
	if i := strings.Index(line, " #"); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, "#") {
		return ""
	}
	return line
}

func indexOption(line string) (string, bool) {
	for _, opt := range []string{"--index-url", "--extra-index-url", "-i"} {
		if !strings.HasPrefix(line, opt) {
			continue
		}
		rest := strings.TrimSpace(strings.TrimPrefix(line, opt))
		rest = strings.TrimSpace(strings.TrimPrefix(rest, "="))
		if rest != "" {
			return rest, true
		}
	}
	return "", false
}
