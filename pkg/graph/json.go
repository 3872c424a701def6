package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// document is the JSON shape of a graph.
type document struct {
	Meta  Metadata   `json:"meta,omitempty"`
	Nodes []nodeJSON `json:"nodes"`
	Edges []edgeJSON `json:"edges"`
}

type nodeJSON struct {
	ID   string   `json:"id"`
	Meta Metadata `json:"meta,omitempty"`
}

type edgeJSON struct {
	From string   `json:"from"`
	To   string   `json:"to"`
	Meta Metadata `json:"meta,omitempty"`
}

// Marshal converts a graph to indented JSON bytes.
// Nodes are sorted by ID for deterministic output.
func Marshal(g *Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write writes a graph as JSON to w.
func Write(g *Graph, w io.Writer) error {
	doc := document{
		Meta:  g.meta,
		Nodes: make([]nodeJSON, 0, g.NodeCount()),
		Edges: make([]edgeJSON, 0, g.EdgeCount()),
	}
	for _, n := range g.Nodes() {
		doc.Nodes = append(doc.Nodes, nodeJSON{ID: n.ID, Meta: n.Meta})
	}
	for _, e := range g.edges {
		doc.Edges = append(doc.Edges, edgeJSON{From: e.From, To: e.To, Meta: e.Meta})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
