// Package graph implements the Graph Runtime (spec.md §4.1): a directed
// graph of node functions over flow.State, with unconditional and
// conditional edges, a next_node override, and an iteration cap guarding
// against cycles.
package graph

import (
	"context"
	"fmt"

	"github.com/RudraKhare/movi-agent/pkg/flow"
)

// MaxIterations bounds how many nodes a single run may visit before the
// runtime declares a cycle (spec.md §4.1 "iteration cap 20").
const MaxIterations = 20

// NodeFunc is one processing stage. It may set st.NextNode to override
// conditional-edge evaluation for this step.
type NodeFunc func(ctx context.Context, st *flow.State) error

// Edge is a conditional transition evaluated in declaration order; the
// first edge whose predicate returns true determines the next node.
type Edge struct {
	To   string
	When func(st *flow.State) bool
}

// Graph is a named set of nodes and their outgoing edges.
type Graph struct {
	nodes map[string]NodeFunc
	edges map[string][]Edge
	start string
}

// New builds an empty Graph with the given entry node name.
func New(start string) *Graph {
	return &Graph{
		nodes: make(map[string]NodeFunc),
		edges: make(map[string][]Edge),
		start: start,
	}
}

// AddNode registers a node function under name.
func (g *Graph) AddNode(name string, fn NodeFunc) {
	g.nodes[name] = fn
}

// AddEdge appends a conditional outgoing edge from 'from'.
func (g *Graph) AddEdge(from, to string, when func(st *flow.State) bool) {
	g.edges[from] = append(g.edges[from], Edge{To: to, When: when})
}

// Terminal is the empty NextNode value: a node that leaves st.NextNode as
// Terminal hands the choice to its outgoing edges, and the run stops
// without error when none of them matches or the node has none.
const Terminal = ""

// Run executes the graph from its start node until a node leaves
// st.NextNode = Terminal and no outgoing edge matches (including a node with
// no edges registered), an error occurs, or MaxIterations is exceeded, in
// which case st.Error is set to graph_cycle and Run returns nil
// (spec.md §4.1 "next_node precedence over conditional-edge evaluation").
func (g *Graph) Run(ctx context.Context, st *flow.State) error {
	current := g.start

	for i := 0; i < MaxIterations; i++ {
		node, ok := g.nodes[current]
		if !ok {
			return fmt.Errorf("graph: unknown node %q", current)
		}

		st.NextNode = ""
		if err := node(ctx, st); err != nil {
			return fmt.Errorf("graph: node %q: %w", current, err)
		}

		if st.NextNode != "" {
			current = st.NextNode
			continue
		}

		next, ok := g.nextFromEdges(current, st)
		if !ok {
			return nil
		}
		current = next
	}

	st.Error = flow.NewError(flow.ErrGraphCycle, "graph exceeded iteration cap", nil)
	return nil
}

func (g *Graph) nextFromEdges(from string, st *flow.State) (string, bool) {
	edges, ok := g.edges[from]
	if !ok {
		return "", false
	}
	for _, e := range edges {
		if e.When == nil || e.When(st) {
			return e.To, true
		}
	}
	return "", false
}
