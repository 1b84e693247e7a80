package nodes

import (
	"fmt"

	"github.com/insightify-ai/insightify/core/graph"
	"github.com/insightify-ai/insightify/core/memory"
	"github.com/insightify-ai/insightify/core/types"
	"github.com/insightify-ai/insightify/pkg/llm"
	"github.com/insightify-ai/insightify/services/classifier"
	"github.com/insightify-ai/insightify/services/sandbox"
)

// Node ids of the chat graph.
const (
	NodeRequestRouting          = "request_routing"
	NodeDecision                = "decision"
	NodeSolutionPlanning        = "solution_planning"
	NodeExecutionPlanning       = "execution_planning"
	NodeCodeModeRouter          = "code_mode_router"
	NodeCodeGeneration          = "code_generation"
	NodeVisualizationGeneration = "visualization_generation"
	NodeCodeExecution           = "code_execution"
	NodeCodeDebugging           = "code_debugging"
	NodeFallback                = "fallback"
	NodeReporting               = "reporting"
	NodeSuggestion              = "suggestion"
	NodeSaveMemory              = "save_memory"
)

// Dependencies is the explicit wiring every node receives, constructed once at
// process start.
type Dependencies struct {
	Client     llm.Client
	Model      string
	Classifier *classifier.Classifier
	Summarizer *Summarizer
	Sandbox    sandbox.Executor
	Memories   *memory.Manager
	// Packages the generated snippets may import.
	Packages []string
}

// UnknownTaskError reports a request type with no registered handler. Fatal to
// the request.
type UnknownTaskError struct {
	Task types.Label
}

func (e *UnknownTaskError) Error() string {
	return fmt.Sprintf("no handler registered for task %q", e.Task)
}

// taskHandlers maps a classified request type to the node that handles it.
var taskHandlers = map[types.Label]string{
	types.RequestGeneral:    NodeDecision,
	types.RequestTechnical:  NodeSolutionPlanning,
	types.RequestContextual: NodeSolutionPlanning,
	types.Other:             NodeSolutionPlanning,
}

// Build assembles the chat graph: the node map plus the edge functions that
// make the state machine data-driven.
func Build(deps Dependencies) *graph.Graph {
	g := graph.New(NodeRequestRouting)

	g.AddNode(&requestRouting{deps: deps})
	g.AddNode(&decision{deps: deps})
	g.AddNode(&solutionPlanning{deps: deps})
	g.AddNode(&executionPlanning{deps: deps})
	g.AddNode(&codeModeRouter{deps: deps})
	g.AddNode(&codeGeneration{deps: deps})
	g.AddNode(&visualizationGeneration{deps: deps})
	g.AddNode(&codeExecution{deps: deps})
	g.AddNode(&codeDebugging{deps: deps})
	g.AddNode(&fallback{})
	g.AddNode(&reporting{deps: deps})
	g.AddNode(&suggestion{deps: deps})
	g.AddNode(&saveMemory{deps: deps})

	g.AddConditionalEdge(NodeRequestRouting, routeFromRequest)
	g.AddEdge(NodeDecision, NodeReporting)
	g.AddEdge(NodeSolutionPlanning, NodeExecutionPlanning)
	g.AddEdge(NodeExecutionPlanning, NodeCodeModeRouter)
	g.AddConditionalEdge(NodeCodeModeRouter, routeFromCodeMode)
	g.AddEdge(NodeCodeGeneration, NodeCodeExecution)
	g.AddEdge(NodeVisualizationGeneration, NodeCodeExecution)
	g.AddConditionalEdge(NodeCodeExecution, routeFromCodeExecution)
	g.AddEdge(NodeCodeDebugging, NodeCodeExecution)
	g.AddEdge(NodeFallback, NodeReporting)
	g.AddConditionalEdge(NodeReporting, routeFromReporting)
	g.AddEdge(NodeSuggestion, NodeSaveMemory)
	g.AddEdge(NodeSaveMemory, graph.End)

	return g
}

func routeFromRequest(state *types.AgentState) string {
	return taskHandlers[state.RequestType]
}

func routeFromCodeMode(state *types.AgentState) string {
	if state.CodeMode == types.ModeVisualization {
		return NodeVisualizationGeneration
	}
	return NodeCodeGeneration
}

func routeFromCodeExecution(state *types.AgentState) string {
	if state.CodeError == "" {
		return NodeReporting
	}
	if state.DebugAttempts < state.MaxDebugAttempts {
		return NodeCodeDebugging
	}
	return NodeFallback
}

func routeFromReporting(state *types.AgentState) string {
	if len(state.Subtasks) > 0 {
		return NodeExecutionPlanning
	}
	return NodeSuggestion
}
