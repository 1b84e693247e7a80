package nodes

import (
	"context"
	"fmt"

	"github.com/insightify-ai/insightify/core/types"
	"github.com/insightify-ai/insightify/pkg/llm"
	"github.com/mudler/xlog"
)

// reporting folds the outcome of the finished subtask into the running
// summaries. Runs once per subtask and once after a direct decision answer.
type reporting struct {
	deps Dependencies
}

func (n *reporting) Name() string { return NodeReporting }

func (n *reporting) Invoke(ctx context.Context, state *types.AgentState) error {
	outcome := "succeeded"
	if state.CodeError != "" {
		outcome = fmt.Sprintf("failed: %s", state.CodeError)
	}
	report := fmt.Sprintf("Question: %s\nStep outcome (%s):\n%s",
		state.Question, outcome, state.CurrentAnswer())

	summary, err := n.deps.Summarizer.ConversationSummary(ctx, state.ConversationSummary, report)
	if err != nil {
		return err
	}
	state.ConversationSummary = summary

	if state.Code != "" && state.CodeError == "" {
		codeSummary, err := n.deps.Summarizer.CodeSummary(ctx, state.Code, state.CodeSummary, state.VariableNames())
		if err != nil {
			return err
		}
		state.CodeSummary = codeSummary
	}

	xlog.Debug("Subtask reported", "session", state.SessionID, "outcome", outcome, "remaining", len(state.Subtasks))
	return nil
}

// suggestion proposes one follow-up analysis as the closing frame of the
// stream.
type suggestion struct {
	deps Dependencies
}

func (n *suggestion) Name() string { return NodeSuggestion }

func (n *suggestion) Invoke(ctx context.Context, state *types.AgentState) error {
	guidance, err := render("suggestion", suggestionPrompt, struct {
		Summary string
	}{
		Summary: state.ConversationSummary,
	})
	if err != nil {
		return err
	}

	text, err := llm.GenerateText(ctx, n.deps.Client, n.deps.Model, guidance)
	if err != nil {
		return err
	}
	state.Suggestion = text
	state.EmitText(text)
	return nil
}

// saveMemory is the terminal node: it projects the state back into the four
// memory kinds. This is the only persistence point of a run, so mid-stream
// cancellation never corrupts stored memories.
type saveMemory struct {
	deps Dependencies
}

func (n *saveMemory) Name() string { return NodeSaveMemory }

func (n *saveMemory) Invoke(ctx context.Context, state *types.AgentState) error {
	return n.deps.Memories.Persist(ctx, state)
}
