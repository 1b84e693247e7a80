package graph

import (
	"context"
	"fmt"

	"github.com/insightify-ai/insightify/core/types"
	"github.com/mudler/xlog"
)

// End is the terminal transition target.
const End = "end"

// maxSteps bounds a single run. The subtask and debug loops are themselves
// bounded, so hitting this means a wiring bug, not a long request.
const maxSteps = 256

// Node is one state-machine step. Implementations mutate the state and return
// an error only for conditions fatal to the whole turn.
type Node interface {
	Name() string
	Invoke(ctx context.Context, state *types.AgentState) error
}

// EdgeFunc picks the next node id from the state after a node ran.
type EdgeFunc func(state *types.AgentState) string

// Graph is a data-driven state machine: node ids mapped to implementations,
// node ids mapped to transition functions.
type Graph struct {
	entry string
	nodes map[string]Node
	edges map[string]EdgeFunc
}

func New(entry string) *Graph {
	return &Graph{
		entry: entry,
		nodes: map[string]Node{},
		edges: map[string]EdgeFunc{},
	}
}

func (g *Graph) AddNode(n Node) *Graph {
	g.nodes[n.Name()] = n
	return g
}

// AddEdge wires an unconditional transition.
func (g *Graph) AddEdge(from, to string) *Graph {
	g.edges[from] = func(*types.AgentState) string { return to }
	return g
}

// AddConditionalEdge wires a state-dependent transition.
func (g *Graph) AddConditionalEdge(from string, f EdgeFunc) *Graph {
	g.edges[from] = f
	return g
}

// Run executes the machine from the entry node until an edge returns End.
func (g *Graph) Run(ctx context.Context, state *types.AgentState) error {
	current := g.entry
	for step := 0; ; step++ {
		if step >= maxSteps {
			return fmt.Errorf("graph exceeded %d steps at node %q", maxSteps, current)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		node, ok := g.nodes[current]
		if !ok {
			return fmt.Errorf("graph has no node %q", current)
		}

		xlog.Debug("Graph step", "node", current, "step", step)
		if err := node.Invoke(ctx, state); err != nil {
			return fmt.Errorf("node %s: %w", current, err)
		}

		edge, ok := g.edges[current]
		if !ok {
			return fmt.Errorf("graph has no edge from %q", current)
		}
		next := edge(state)
		if next == End {
			return nil
		}
		current = next
	}
}

// NodeFunc adapts a function to the Node interface.
type NodeFunc struct {
	ID string
	Fn func(ctx context.Context, state *types.AgentState) error
}

func (n NodeFunc) Name() string { return n.ID }

func (n NodeFunc) Invoke(ctx context.Context, state *types.AgentState) error {
	if n.Fn == nil {
		return nil
	}
	return n.Fn(ctx, state)
}
