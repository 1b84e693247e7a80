package nodes

import (
	"context"
	"fmt"

	"github.com/insightify-ai/insightify/core/types"
	"github.com/insightify-ai/insightify/pkg/llm"
	"github.com/mudler/xlog"
)

// codeExecution runs the generated snippet against the variable bindings.
// Failures are captured as state, not returned: they drive the debug loop.
type codeExecution struct {
	deps Dependencies
}

func (n *codeExecution) Name() string { return NodeCodeExecution }

func (n *codeExecution) Invoke(ctx context.Context, state *types.AgentState) error {
	result, vars, err := n.deps.Sandbox.Execute(ctx, state.Code, state.Variables)
	if err != nil {
		state.CodeError = err.Error()
		xlog.Debug("Snippet failed", "session", state.SessionID, "attempt", state.DebugAttempts, "error", err)
		return nil
	}

	state.CodeError = ""
	state.Variables = vars

	if img, ok := vars["image"].(string); ok && img != "" {
		state.Image = img
		state.EmitImage(img)
		delete(vars, "image")
	}
	if result != "" {
		state.AppendAnswer(result)
		state.EmitText(result)
	}
	return nil
}

// codeDebugging asks the model for a corrected snippet and counts the
// attempt. Loops back to code_execution; the edge enforces the bound.
type codeDebugging struct {
	deps Dependencies
}

func (n *codeDebugging) Name() string { return NodeCodeDebugging }

func (n *codeDebugging) Invoke(ctx context.Context, state *types.AgentState) error {
	guidance, err := render("debug", debugPrompt, struct {
		Code           string
		Error          string
		DatasetSummary string
		Packages       []string
		Variables      []string
	}{
		Code:           state.Code,
		Error:          state.CodeError,
		DatasetSummary: state.DatasetSummary,
		Packages:       n.deps.Packages,
		Variables:      state.VariableNames(),
	})
	if err != nil {
		return err
	}

	var out struct {
		Code string `json:"code"`
	}
	if err := llm.GenerateTypedJSON(ctx, n.deps.Client, guidance, n.deps.Model, codeSchema, &out); err != nil {
		return err
	}

	state.Code = out.Code
	state.DebugAttempts++
	state.AppendAnswer(out.Code)
	state.EmitText(out.Code)
	return nil
}

// fallback closes a subtask whose debug budget is exhausted. The turn still
// reaches reporting and save_memory, so the history stays consistent.
type fallback struct{}

func (n *fallback) Name() string { return NodeFallback }

func (n *fallback) Invoke(ctx context.Context, state *types.AgentState) error {
	msg := fmt.Sprintf("I could not complete this step after %d attempts. Last error: %s",
		state.DebugAttempts, state.CodeError)
	state.AppendAnswer(msg)
	state.EmitText(msg)
	return nil
}
