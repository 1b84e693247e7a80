package graph_test

import (
	"context"
	"errors"

	"github.com/insightify-ai/insightify/core/graph"
	"github.com/insightify-ai/insightify/core/types"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Graph", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	countingNode := func(id string, visits map[string]int) graph.Node {
		return graph.NodeFunc{ID: id, Fn: func(_ context.Context, _ *types.AgentState) error {
			visits[id]++
			return nil
		}}
	}

	It("runs nodes in edge order until End", func() {
		visits := map[string]int{}
		g := graph.New("a")
		g.AddNode(countingNode("a", visits))
		g.AddNode(countingNode("b", visits))
		g.AddEdge("a", "b")
		g.AddEdge("b", graph.End)

		Expect(g.Run(ctx, &types.AgentState{})).To(Succeed())
		Expect(visits).To(Equal(map[string]int{"a": 1, "b": 1}))
	})

	It("follows conditional edges driven by state", func() {
		visits := map[string]int{}
		state := &types.AgentState{Subtasks: []string{"one", "two", "three"}}

		g := graph.New("plan")
		g.AddNode(graph.NodeFunc{ID: "plan", Fn: func(_ context.Context, s *types.AgentState) error {
			visits["plan"]++
			s.PopSubtask()
			return nil
		}})
		g.AddNode(countingNode("save", visits))
		g.AddConditionalEdge("plan", func(s *types.AgentState) string {
			if len(s.Subtasks) > 0 {
				return "plan"
			}
			return "save"
		})
		g.AddEdge("save", graph.End)

		Expect(g.Run(ctx, state)).To(Succeed())
		Expect(visits["plan"]).To(Equal(3))
		Expect(visits["save"]).To(Equal(1))
	})

	It("fails on a transition to an unregistered node", func() {
		g := graph.New("a")
		g.AddNode(graph.NodeFunc{ID: "a"})
		g.AddEdge("a", "ghost")

		err := g.Run(ctx, &types.AgentState{})
		Expect(err).To(MatchError(ContainSubstring(`no node "ghost"`)))
	})

	It("fails on a node without an outgoing edge", func() {
		g := graph.New("a")
		g.AddNode(graph.NodeFunc{ID: "a"})

		err := g.Run(ctx, &types.AgentState{})
		Expect(err).To(MatchError(ContainSubstring(`no edge from "a"`)))
	})

	It("wraps node errors with the node id", func() {
		g := graph.New("boom")
		g.AddNode(graph.NodeFunc{ID: "boom", Fn: func(_ context.Context, _ *types.AgentState) error {
			return errors.New("kaput")
		}})
		g.AddEdge("boom", graph.End)

		err := g.Run(ctx, &types.AgentState{})
		Expect(err).To(MatchError(ContainSubstring("node boom")))
		Expect(err).To(MatchError(ContainSubstring("kaput")))
	})

	It("stops when the context is cancelled", func() {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		g := graph.New("a")
		g.AddNode(graph.NodeFunc{ID: "a"})
		g.AddEdge("a", graph.End)

		Expect(g.Run(cancelled, &types.AgentState{})).To(MatchError(context.Canceled))
	})

	It("aborts runaway loops", func() {
		g := graph.New("spin")
		g.AddNode(graph.NodeFunc{ID: "spin"})
		g.AddEdge("spin", "spin")

		err := g.Run(ctx, &types.AgentState{})
		Expect(err).To(MatchError(ContainSubstring("exceeded")))
	})
})
