package graph

import (
	"errors"
	"maps"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the node ID is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with the
	// same ID already exists.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [Graph.AddEdge] when the From node
	// does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.AddEdge] when the To node
	// does not exist.
	ErrUnknownTargetNode = errors.New("unknown target node")
)

// Metadata stores arbitrary key-value pairs attached to nodes, edges or the
// graph. Metadata maps are never nil after insertion.
type Metadata map[string]any

// Common metadata keys written by the audit.
const (
	MetaName     = "name"     // declared package name
	MetaVersion  = "version"  // installed version
	MetaRoot     = "root"     // true on the audited package
	MetaProblem  = "problem"  // diagnostic kind attached to a node or edge
	MetaMissing  = "missing"  // true on placeholder nodes for absent packages
	MetaRange    = "range"    // declared range on an edge
	MetaSection  = "section"  // declaring section on an edge
	MetaDeclared = "declared" // declared key on an edge (differs from name for aliases)
)

// Node is a vertex of the graph.
type Node struct {
	ID   string   // Unique identifier (package directory)
	Meta Metadata // Arbitrary key-value metadata (never nil after AddNode)
}

// Label returns "name@version" when known, otherwise the ID.
func (n Node) Label() string {
	name, _ := n.Meta[MetaName].(string)
	if name == "" {
		return n.ID
	}
	if v, _ := n.Meta[MetaVersion].(string); v != "" {
		return name + "@" + v
	}
	return name
}

// Edge is a directed connection from a dependent to a dependency.
type Edge struct {
	From string   // Source node ID
	To   string   // Target node ID
	Meta Metadata // Arbitrary key-value metadata (never nil after AddEdge)
}

// Graph is a directed graph keyed by node ID.
//
// The zero value is not usable - use New to create a valid Graph instance.
// Graph is not safe for concurrent use without external synchronization.
type Graph struct {
	nodes    map[string]*Node
	edges    []Edge
	outgoing map[string][]string // nodeID -> children IDs
	incoming map[string][]string // nodeID -> parent IDs
	meta     Metadata
}

// New creates an empty graph with optional graph-level metadata.
func New(meta Metadata) *Graph {
	if meta == nil {
		meta = Metadata{}
	}
	return &Graph{
		nodes:    make(map[string]*Node),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
		meta:     meta,
	}
}

// Meta returns the graph-level metadata map.
func (g *Graph) Meta() Metadata { return g.meta }

// AddNode adds a node. Returns ErrInvalidNodeID for an empty ID and
// ErrDuplicateNodeID if the ID is taken.
func (g *Graph) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := g.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	if n.Meta == nil {
		n.Meta = Metadata{}
	}
	node := &n
	g.nodes[node.ID] = node
	return nil
}

// EnsureNode returns the node with id, adding it with meta if absent.
// Metadata of an existing node is left untouched.
func (g *Graph) EnsureNode(id string, meta Metadata) *Node {
	if n, ok := g.nodes[id]; ok {
		return n
	}
	_ = g.AddNode(Node{ID: id, Meta: meta})
	return g.nodes[id]
}

// AddEdge adds a directed edge between two existing nodes.
// Multiple edges between the same nodes are allowed: one package may
// declare the same dependency in several sections.
func (g *Graph) AddEdge(e Edge) error {
	if _, ok := g.nodes[e.From]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := g.nodes[e.To]; !ok {
		return ErrUnknownTargetNode
	}
	if e.Meta == nil {
		e.Meta = Metadata{}
	}
	g.edges = append(g.edges, e)
	g.outgoing[e.From] = append(g.outgoing[e.From], e.To)
	g.incoming[e.To] = append(g.incoming[e.To], e.From)
	return nil
}

// Nodes returns all nodes sorted by ID. The pointers refer to the graph's
// own nodes, so metadata changes affect the graph.
func (g *Graph) Nodes() []*Node {
	ids := slices.Sorted(maps.Keys(g.nodes))
	nodes := make([]*Node, len(ids))
	for i, id := range ids {
		nodes[i] = g.nodes[id]
	}
	return nodes
}

// Edges returns a copy of all edges in insertion order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Children returns the IDs of nodes that this node has edges to.
func (g *Graph) Children(id string) []string { return g.outgoing[id] }

// Parents returns the IDs of nodes that have edges to this node.
func (g *Graph) Parents(id string) []string { return g.incoming[id] }

// Node returns the node with the given ID and true, or nil and false if not found.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Sources returns nodes with no incoming edges, sorted by ID.
func (g *Graph) Sources() []*Node {
	var sources []*Node
	for _, n := range g.Nodes() {
		if len(g.incoming[n.ID]) == 0 {
			sources = append(sources, n)
		}
	}
	return sources
}

// HasCycle reports whether any directed cycle exists, including self-loops.
// Detection uses depth-first search with white/gray/black coloring.
func (g *Graph) HasCycle() bool {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(g.nodes))
	var hasCycle bool

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		for _, child := range g.outgoing[id] {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				hasCycle = true
			}
			if hasCycle {
				return
			}
		}
		color[id] = black
	}

	for _, id := range slices.Sorted(maps.Keys(g.nodes)) {
		if color[id] == white {
			dfs(id)
			if hasCycle {
				return true
			}
		}
	}
	return false
}

// Merge returns the union of graphs. Nodes with the same ID are combined,
// keeping the first value of every metadata key except MetaProblem and
// MetaRoot, which stick once set. Edges repeated with the same endpoints,
// section and declared name are kept once.
func Merge(graphs ...*Graph) *Graph {
	out := New(nil)
	type edgeKey struct{ from, to, section, declared string }
	seen := make(map[edgeKey]bool)

	for _, g := range graphs {
		if g == nil {
			continue
		}
		for k, v := range g.meta {
			if _, ok := out.meta[k]; !ok {
				out.meta[k] = v
			}
		}
		for _, n := range g.Nodes() {
			dst := out.EnsureNode(n.ID, maps.Clone(n.Meta))
			for k, v := range n.Meta {
				if _, ok := dst.Meta[k]; !ok || k == MetaProblem || k == MetaRoot {
					dst.Meta[k] = v
				}
			}
		}
		for _, e := range g.edges {
			section, _ := e.Meta[MetaSection].(string)
			declared, _ := e.Meta[MetaDeclared].(string)
			key := edgeKey{e.From, e.To, section, declared}
			if seen[key] {
				continue
			}
			seen[key] = true
			_ = out.AddEdge(Edge{From: e.From, To: e.To, Meta: maps.Clone(e.Meta)})
		}
	}
	return out
}
