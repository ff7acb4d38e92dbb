package render

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/stackadvisor/pkg/resolver"
	"github.com/matzehuels/stackadvisor/pkg/state"
)

// Options configures DOT generation.
type Options struct {
	// Detailed adds the source index and warning count to node labels.
	Detailed bool
	// Direct lists the project's direct dependency names.
	Direct []string
}

const (
	fillDirect  = "#dbeafe"
	fillWarning = "#fde2e1"
)

// ToDOT converts a product's dependency graph to Graphviz DOT. Nodes and
// edges are emitted in name order so equal products give equal output.
func ToDOT(p *resolver.Product, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	if p == nil {
		buf.WriteString("}\n")
		return buf.String()
	}
	buf.WriteString("\n")

	warnings := warningsByPackage(p.Justification)
	for _, t := range p.Packages {
		label := t.Name + "\n" + t.Version
		if opts.Detailed {
			label += "\n" + t.Index
			if n := warnings[t.Name]; n > 0 {
				label += fmt.Sprintf("\n%d warning(s)", n)
			}
		}
		attrs := []string{fmt.Sprintf("label=%q", label)}
		switch {
		case warnings[t.Name] > 0:
			attrs = append(attrs, fmt.Sprintf("fillcolor=%q", fillWarning))
		case slices.Contains(opts.Direct, t.Name):
			attrs = append(attrs, fmt.Sprintf("fillcolor=%q", fillDirect))
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", t.Name, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, t := range p.Packages {
		for _, dep := range p.Dependencies[t.Name] {
			fmt.Fprintf(&buf, "  %q -> %q;\n", t.Name, dep)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func warningsByPackage(js []state.Justification) map[string]int {
	out := make(map[string]int)
	for _, j := range js {
		if j.Type == state.TypeWarning && j.Package != "" {
			out[j.Package]++
		}
	}
	return out
}
