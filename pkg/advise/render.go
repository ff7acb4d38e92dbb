package advise

import (
	"context"
	"fmt"

	"github.com/matzehuels/stackadvisor/pkg/python"
	"github.com/matzehuels/stackadvisor/pkg/render"
	"github.com/matzehuels/stackadvisor/pkg/resolver"
)

// Render generates the requested artifacts for product. DOT is produced
// once and reused for SVG.
func Render(ctx context.Context, product *resolver.Product, project *python.Project, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))
	if product == nil || len(opts.Formats) == 0 {
		return artifacts, nil
	}

	var direct []string
	for _, r := range project.DirectRequirements(opts.Dev) {
		direct = append(direct, r.Name)
	}
	dot := render.ToDOT(product, render.Options{Detailed: opts.Detailed, Direct: direct})

	for _, format := range opts.Formats {
		var (
			data []byte
			err  error
		)
		switch format {
		case FormatLock:
			data, err = product.Lockfile.JSON()
		case FormatDOT:
			data = []byte(dot)
		case FormatSVG:
			data, err = render.RenderSVG(ctx, dot)
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}
