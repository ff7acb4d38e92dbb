// Package render draws a recommended stack as a dependency graph.
//
// [ToDOT] turns a [resolver.Product] into Graphviz DOT source: one rounded
// box per pinned package, an arrow from every package to each package it
// requires. Direct dependencies of the project are highlighted, packages
// that collected warnings (for example known CVEs) are tinted.
//
//	dot := render.ToDOT(report.Best(), render.Options{Direct: []string{"flask"}})
//	svg, err := render.RenderSVG(ctx, dot)
//
// SVG rendering runs Graphviz in-process through
// [github.com/goccy/go-graphviz]; the DOT source can also be fed to any
// external Graphviz tool.
package render
