package nodes

import (
	"context"

	"github.com/insightify-ai/insightify/core/types"
	"github.com/insightify-ai/insightify/pkg/llm"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// codeModeRouter classifies the execution plan as CODE or VISUALIZATION.
// Exactly one label; the closed-world fallback lands on CODE.
type codeModeRouter struct {
	deps Dependencies
}

func (n *codeModeRouter) Name() string { return NodeCodeModeRouter }

func (n *codeModeRouter) Invoke(ctx context.Context, state *types.AgentState) error {
	label, err := n.deps.Classifier.ClassifyOne(ctx, state.ExecutionPlan, types.CodeModes, CodeModeExamples)
	if err != nil {
		return err
	}
	if label == types.Other {
		label = types.ModeCode
	}
	state.CodeMode = label
	return nil
}

var codeSchema = jsonschema.Definition{
	Type: jsonschema.Object,
	Properties: map[string]jsonschema.Definition{
		"code": {
			Type:        jsonschema.String,
			Description: "The snippet body, no markdown fences",
		},
	},
	Required: []string{"code"},
}

func generateSnippet(ctx context.Context, deps Dependencies, templName, templText string, state *types.AgentState) error {
	guidance, err := render(templName, templText, struct {
		Plan           string
		DatasetSummary string
		CodeSummary    string
		Packages       []string
		Variables      []string
	}{
		Plan:           state.ExecutionPlan,
		DatasetSummary: state.DatasetSummary,
		CodeSummary:    state.CodeSummary,
		Packages:       deps.Packages,
		Variables:      state.VariableNames(),
	})
	if err != nil {
		return err
	}

	var out struct {
		Code string `json:"code"`
	}
	if err := llm.GenerateTypedJSON(ctx, deps.Client, guidance, deps.Model, codeSchema, &out); err != nil {
		return err
	}
	state.Code = out.Code
	return nil
}

type codeGeneration struct {
	deps Dependencies
}

func (n *codeGeneration) Name() string { return NodeCodeGeneration }

func (n *codeGeneration) Invoke(ctx context.Context, state *types.AgentState) error {
	return generateSnippet(ctx, n.deps, "code", codePrompt, state)
}

type visualizationGeneration struct {
	deps Dependencies
}

func (n *visualizationGeneration) Name() string { return NodeVisualizationGeneration }

func (n *visualizationGeneration) Invoke(ctx context.Context, state *types.AgentState) error {
	return generateSnippet(ctx, n.deps, "visualization", visualizationPrompt, state)
}
