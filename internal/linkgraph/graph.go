package linkgraph

// Node is a note in the link graph.
type Node struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Edge is a resolved link from one note to another.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Graph returns every note as a node and every resolved link as an edge.
// Unresolved links produce no edge.
func (idx *Index) Graph() ([]Node, []Edge) {
	nodes := make([]Node, 0, len(idx.notes))
	var edges []Edge
	for _, n := range idx.notes {
		nodes = append(nodes, Node{ID: n.ID, Title: n.Title})
		for _, target := range idx.Outbound(n) {
			edges = append(edges, Edge{Source: n.ID, Target: target.ID})
		}
	}
	return nodes, edges
}
