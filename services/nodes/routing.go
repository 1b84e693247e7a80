package nodes

import (
	"context"

	"github.com/insightify-ai/insightify/core/types"
	"github.com/insightify-ai/insightify/pkg/llm"
	"github.com/mudler/xlog"
	"github.com/sashabaranov/go-openai"
)

// requestRouting hydrates the state from the memory services and classifies
// the request type. Entry node.
type requestRouting struct {
	deps Dependencies
}

func (n *requestRouting) Name() string { return NodeRequestRouting }

func (n *requestRouting) Invoke(ctx context.Context, state *types.AgentState) error {
	if err := n.deps.Memories.Hydrate(ctx, state); err != nil {
		return err
	}

	label, err := n.deps.Classifier.ClassifyOne(ctx, state.Question, types.RequestTypes, RequestTypeExamples)
	if err != nil {
		return err
	}
	state.RequestType = label
	xlog.Debug("Request routed", "session", state.SessionID, "type", label)

	if _, ok := taskHandlers[label]; !ok {
		return &UnknownTaskError{Task: label}
	}
	return nil
}

// decision answers general requests directly from the memories, streaming the
// answer token by token.
type decision struct {
	deps Dependencies
}

func (n *decision) Name() string { return NodeDecision }

func (n *decision) Invoke(ctx context.Context, state *types.AgentState) error {
	guidance, err := render("decision", decisionPrompt, struct {
		Summary  string
		Question string
	}{
		Summary:  state.ConversationSummary,
		Question: state.Question,
	})
	if err != nil {
		return err
	}

	conv := []openai.ChatCompletionMessage{{Role: "user", Content: guidance}}
	answer, err := llm.StreamText(ctx, n.deps.Client, n.deps.Model, conv, func(chunk string) error {
		state.EmitText(chunk)
		return nil
	})
	if err != nil {
		return err
	}

	state.AppendAnswer(answer)
	return nil
}
