// Package graph holds the graph of installed packages discovered by an audit.
//
// Nodes are physical package directories (two declared names that resolve to
// the same installation share one node); edges are resolved declarations
// from a dependent to its dependency. Installed trees may contain cycles, so
// unlike a layering graph this structure accepts them; [Graph.HasCycle]
// reports whether one exists.
//
// # Basic Usage
//
//	g := graph.New(nil)
//	_ = g.AddNode(graph.Node{ID: "/repo", Meta: graph.Metadata{"name": "app"}})
//	_ = g.AddNode(graph.Node{ID: "/repo/node_modules/lib"})
//	_ = g.AddEdge(graph.Edge{From: "/repo", To: "/repo/node_modules/lib"})
//
// # Serialization
//
// [Marshal] and [Write] produce a stable JSON document (nodes sorted by ID,
// edges in insertion order) for the `dephellp graph --format json` output.
package graph
