package deliverygraph

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Transition is an explicit edge declared on a graph node. It overrides
// the positional default: triggering `Trigger` from `Source` moves the
// order to `Dest`.
type Transition struct {
	Trigger string `json:"trigger"`
	Source  string `json:"source"`
	Dest    string `json:"dest"`
}

// Node is one reachable status within a delivery graph.
type Node struct {
	ID          int64        `json:"id"`
	Code        string       `json:"code"`
	Name        string       `json:"name"`
	Icon        string       `json:"icon"`
	ButtonName  string       `json:"button_name,omitempty"`
	Position    int          `json:"position"`
	Repeatable  bool         `json:"repeatable,omitempty"`
	Transitions []Transition `json:"transitions,omitempty"`
}

// Graph is a partner's ordered status catalogue. Read-only once parsed;
// safe to share across concurrent transitions.
type Graph struct {
	nodes  []Node
	byCode map[string]*Node
}

// ParseError reports a malformed graph definition.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid delivery graph: %s", e.Reason)
}

// ErrNodeNotFound reports a code absent from the graph.
type NodeNotFoundError struct {
	Code string
}

func (e *NodeNotFoundError) Error() string {
	return fmt.Sprintf("status %q is not part of the delivery graph", e.Code)
}

// Parse builds a Graph from a raw JSON graph definition (a list of node
// records). It fails fast on malformed definitions instead of deferring
// errors to first use.
func Parse(raw []byte) (*Graph, error) {
	var nodes []Node
	if err := json.Unmarshal(raw, &nodes); err != nil {
		return nil, &ParseError{Reason: err.Error()}
	}
	return New(nodes)
}

// New builds a Graph from already-decoded node records.
func New(nodes []Node) (*Graph, error) {
	if len(nodes) == 0 {
		return nil, &ParseError{Reason: "graph has no nodes"}
	}

	byCode := make(map[string]*Node, len(nodes))
	byPosition := make(map[int]string, len(nodes))

	sorted := make([]Node, len(nodes))
	copy(sorted, nodes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Position < sorted[j].Position
	})

	for i := range sorted {
		n := &sorted[i]
		if n.Code == "" {
			return nil, &ParseError{Reason: fmt.Sprintf("node at position %d has no code", n.Position)}
		}
		if n.Position < 0 {
			return nil, &ParseError{Reason: fmt.Sprintf("node %q has negative position %d", n.Code, n.Position)}
		}
		if _, ok := byCode[n.Code]; ok {
			return nil, &ParseError{Reason: fmt.Sprintf("duplicate node code %q", n.Code)}
		}
		if other, ok := byPosition[n.Position]; ok {
			return nil, &ParseError{Reason: fmt.Sprintf("nodes %q and %q share position %d", other, n.Code, n.Position)}
		}
		byCode[n.Code] = n
		byPosition[n.Position] = n.Code
	}

	return &Graph{nodes: sorted, byCode: byCode}, nil
}

// Nodes returns the graph nodes in position order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// FindNode returns the node with the given code.
func (g *Graph) FindNode(code string) (*Node, error) {
	n, ok := g.byCode[code]
	if !ok {
		return nil, &NodeNotFoundError{Code: code}
	}
	return n, nil
}

// NextByPosition returns the node that follows the given code in
// position order, or nil when the code names the last node.
func (g *Graph) NextByPosition(code string) *Node {
	n, ok := g.byCode[code]
	if !ok {
		return nil
	}
	for i := range g.nodes {
		if g.nodes[i].Position > n.Position {
			return &g.nodes[i]
		}
	}
	return nil
}

// IsTerminal reports whether the node has no positional successor and no
// explicit outgoing transitions.
func (g *Graph) IsTerminal(code string) bool {
	n, ok := g.byCode[code]
	if !ok {
		return false
	}
	return g.NextByPosition(code) == nil && len(n.Transitions) == 0
}
