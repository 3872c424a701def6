// Package nodelink renders installed-package graphs as node-link diagrams.
//
// # Usage
//
// Convert a graph to DOT format, then render to SVG:
//
//	dot := nodelink.ToDOT(g, nodelink.Options{Detailed: false})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// Nodes are labelled "name@version". Packages that a diagnostic points at
// are filled red; dependencies that are not installed at all are drawn with
// a dashed outline. The audited package is drawn bold.
//
// # Options
//
//   - Detailed: node labels include the package directory and edges are
//     labelled with the declared range and section
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering, so no Graphviz installation is required.
package nodelink
