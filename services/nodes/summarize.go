package nodes

import (
	"context"

	"github.com/insightify-ai/insightify/pkg/llm"
)

// Summarizer compacts the running summaries. Each call fully replaces the
// previous summary; no diff or merge algorithm, no determinism guarantee.
type Summarizer struct {
	client llm.Client
	model  string
}

func NewSummarizer(client llm.Client, model string) *Summarizer {
	return &Summarizer{client: client, model: model}
}

func (s *Summarizer) ConversationSummary(ctx context.Context, prior, report string) (string, error) {
	guidance, err := render("conversation_summary", conversationSummaryPrompt, struct {
		Summary string
		Report  string
	}{
		Summary: prior,
		Report:  report,
	})
	if err != nil {
		return "", err
	}
	return llm.GenerateText(ctx, s.client, s.model, guidance)
}

func (s *Summarizer) CodeSummary(ctx context.Context, code, prior string, variables []string) (string, error) {
	guidance, err := render("code_summary", codeSummaryPrompt, struct {
		Summary   string
		Code      string
		Variables []string
	}{
		Summary:   prior,
		Code:      code,
		Variables: variables,
	})
	if err != nil {
		return "", err
	}
	return llm.GenerateText(ctx, s.client, s.model, guidance)
}
