package nodes

import (
	"context"
	"fmt"

	"github.com/insightify-ai/insightify/core/types"
	"github.com/insightify-ai/insightify/pkg/llm"
	"github.com/mudler/xlog"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// solutionPlanning decomposes the question into an ordered subtask queue
// through a structured-output call; no free-text splitting.
type solutionPlanning struct {
	deps Dependencies
}

func (n *solutionPlanning) Name() string { return NodeSolutionPlanning }

func (n *solutionPlanning) Invoke(ctx context.Context, state *types.AgentState) error {
	taskLabels, err := n.deps.Classifier.Classify(ctx, state.Question, types.EDATasks, EDAExamples)
	if err != nil {
		return err
	}

	guidance, err := render("subtasks", subtasksPrompt, struct {
		Question       string
		DatasetSummary string
		Summary        string
		TaskLabels     []string
	}{
		Question:       state.Question,
		DatasetSummary: state.DatasetSummary,
		Summary:        state.ConversationSummary,
		TaskLabels:     types.LabelSet(taskLabels).Strings(),
	})
	if err != nil {
		return err
	}

	var out struct {
		Subtasks []string `json:"subtasks"`
	}
	err = llm.GenerateTypedJSON(ctx, n.deps.Client, guidance, n.deps.Model, jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"subtasks": {
				Type:        jsonschema.Array,
				Description: "Ordered list of subtasks",
				Items:       &jsonschema.Definition{Type: jsonschema.String},
			},
		},
		Required: []string{"subtasks"},
	}, &out)
	if err != nil {
		return err
	}

	state.Subtasks = out.Subtasks
	if len(state.Subtasks) == 0 {
		state.Subtasks = []string{state.Question}
	}
	xlog.Debug("Solution planned", "session", state.SessionID, "subtasks", len(state.Subtasks))
	return nil
}

// executionPlanning consumes the head subtask and turns it into a concrete
// plan. Stale visuals from a previous subtask are cleared here so they are
// never reattached.
type executionPlanning struct {
	deps Dependencies
}

func (n *executionPlanning) Name() string { return NodeExecutionPlanning }

func (n *executionPlanning) Invoke(ctx context.Context, state *types.AgentState) error {
	subtask, ok := state.PopSubtask()
	if !ok {
		return fmt.Errorf("no pending subtasks")
	}

	state.Image = ""
	state.DebugAttempts = 0

	guidance, err := render("plan", executionPlanPrompt, struct {
		Subtask        string
		DatasetSummary string
		CodeSummary    string
	}{
		Subtask:        subtask,
		DatasetSummary: state.DatasetSummary,
		CodeSummary:    state.CodeSummary,
	})
	if err != nil {
		return err
	}

	plan, err := llm.GenerateText(ctx, n.deps.Client, n.deps.Model, guidance)
	if err != nil {
		return err
	}

	state.ExecutionPlan = plan
	state.AppendAnswer(plan)
	state.EmitText(plan)
	return nil
}
