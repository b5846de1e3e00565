package autodiff

import (
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
)

// NodeInfo describes one node of an exported graph.
type NodeInfo struct {
	ID           uint64 `json:"id"`
	Op           string `json:"op,omitempty"` // Empty for leaves
	Label        string `json:"label,omitempty"`
	Shape        []int  `json:"shape"`
	RequiresGrad bool   `json:"requires_grad"`
}

// Edge connects a parent (From) to the node consuming it (To). Index is the
// argument position of the parent in the consuming operation.
type Edge struct {
	From  uint64 `json:"from"`
	To    uint64 `json:"to"`
	Index int    `json:"index"`
}

// GraphExport is a node/edge list for visualization tools.
type GraphExport struct {
	Nodes []NodeInfo `json:"nodes"`
	Edges []Edge     `json:"edges"`
}

// Export collects the graph behind root. Nodes are ordered by id.
func Export(root *Tensor) *GraphExport {
	nodes := ancestors(root)
	out := &GraphExport{
		Nodes: make([]NodeInfo, 0, len(nodes)),
	}
	for _, n := range nodes {
		out.Nodes = append(out.Nodes, NodeInfo{
			ID:           n.id,
			Op:           n.opName(),
			Label:        n.label,
			Shape:        append([]int{}, n.Shape()...),
			RequiresGrad: n.requiresGrad,
		})
		for i, p := range n.parents {
			out.Edges = append(out.Edges, Edge{From: p.id, To: n.id, Index: i})
		}
	}

	slices.SortFunc(out.Nodes, func(a, b NodeInfo) int { return cmp.Compare(a.ID, b.ID) })
	slices.SortFunc(out.Edges, func(a, b Edge) int {
		if c := cmp.Compare(a.To, b.To); c != 0 {
			return c
		}
		return cmp.Compare(a.Index, b.Index)
	})
	return out
}

// WriteJSON writes the export as indented JSON.
func (e *GraphExport) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}

// WriteDOT writes the export in Graphviz DOT format.
func (e *GraphExport) WriteDOT(w io.Writer) error {
	var b strings.Builder
	b.WriteString("digraph autodiff {\n")
	b.WriteString("  rankdir=LR;\n")
	for _, n := range e.Nodes {
		name := n.Op
		shape := "ellipse"
		if name == "" {
			name = "leaf"
			shape = "box"
		}
		if n.Label != "" {
			name = n.Label + ": " + name
		}
		style := ""
		if n.RequiresGrad {
			style = ", style=bold"
		}
		fmt.Fprintf(&b, "  n%d [label=%q, shape=%s%s];\n", n.ID, fmt.Sprintf("%s %v", name, n.Shape), shape, style)
	}
	for _, edge := range e.Edges {
		fmt.Fprintf(&b, "  n%d -> n%d [label=\"%d\"];\n", edge.From, edge.To, edge.Index)
	}
	b.WriteString("}\n")

	_, err := io.WriteString(w, b.String())
	return err
}
