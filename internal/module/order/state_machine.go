package order

import (
	"github.com/dostavo/server/internal/module/deliverygraph"
)

// StateMachine validates status transitions for one order against its
// delivery graph. A transition is legal when the target is the next
// node by position, an explicit edge of the current node names it as
// destination, or it is the current node itself.
type StateMachine struct {
	graph   *deliverygraph.Graph
	current *deliverygraph.Node
}

// NewStateMachine builds a machine positioned at currentCode. The code
// must name a node of the graph.
func NewStateMachine(graph *deliverygraph.Graph, currentCode string) (*StateMachine, error) {
	node, err := graph.FindNode(currentCode)
	if err != nil {
		return nil, &UnknownStatusError{Code: currentCode}
	}
	return &StateMachine{graph: graph, current: node}, nil
}

// Current returns the node the machine is positioned at.
func (m *StateMachine) Current() *deliverygraph.Node {
	return m.current
}

// CanTransition reports whether moving to targetCode is legal from the
// current node.
func (m *StateMachine) CanTransition(targetCode string) (bool, error) {
	if _, err := m.graph.FindNode(targetCode); err != nil {
		return false, &UnknownStatusError{Code: targetCode}
	}
	if targetCode == m.current.Code {
		return true, nil
	}
	if next := m.graph.NextByPosition(m.current.Code); next != nil && next.Code == targetCode {
		return true, nil
	}
	for _, tr := range m.current.Transitions {
		if tr.Dest == targetCode {
			return true, nil
		}
	}
	return false, nil
}

// TransitionTo moves the machine to targetCode, or returns
// IllegalTransitionError when the graph forbids it.
func (m *StateMachine) TransitionTo(targetCode string) error {
	ok, err := m.CanTransition(targetCode)
	if err != nil {
		return err
	}
	if !ok {
		return &IllegalTransitionError{From: m.current.Code, To: targetCode}
	}
	node, err := m.graph.FindNode(targetCode)
	if err != nil {
		return &UnknownStatusError{Code: targetCode}
	}
	m.current = node
	return nil
}
