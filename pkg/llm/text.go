package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// GenerateText runs a single-turn completion and returns the text content.
func GenerateText(ctx context.Context, client Client, model, prompt string) (string, error) {
	return GenerateTextWithConversation(ctx, client, model, []openai.ChatCompletionMessage{
		{
			Role:    "user",
			Content: prompt,
		},
	})
}

func GenerateTextWithConversation(ctx context.Context, client Client, model string, conv []openai.ChatCompletionMessage) (string, error) {
	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    model,
		Messages: conv,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) != 1 {
		return "", fmt.Errorf("no choices: %d", len(resp.Choices))
	}
	return resp.Choices[0].Message.Content, nil
}

// StreamText delivers the completion incrementally through fn and returns the
// accumulated text. Providers without a streaming surface fall back to a single
// blocking completion delivered as one chunk.
func StreamText(ctx context.Context, client Client, model string, conv []openai.ChatCompletionMessage, fn func(chunk string) error) (string, error) {
	streamer, ok := client.(StreamingClient)
	if !ok {
		content, err := GenerateTextWithConversation(ctx, client, model, conv)
		if err != nil {
			return "", err
		}
		if fn != nil {
			if err := fn(content); err != nil {
				return content, err
			}
		}
		return content, nil
	}

	stream, err := streamer.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    model,
		Messages: conv,
		Stream:   true,
	})
	if err != nil {
		return "", err
	}
	defer stream.Close()

	sb := strings.Builder{}
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return sb.String(), err
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		sb.WriteString(delta)
		if fn != nil {
			if err := fn(delta); err != nil {
				return sb.String(), err
			}
		}
	}
	return sb.String(), nil
}
