package classifier_test

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/insightify-ai/insightify/core/types"
	"github.com/insightify-ai/insightify/pkg/llm"
	"github.com/insightify-ai/insightify/services/classifier"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sashabaranov/go-openai"
)

func labelsResponse(labels string) openai.ChatCompletionResponse {
	raw, _ := json.Marshal(map[string]string{"labels": labels})
	return llm.ToolCallResponse(string(raw))
}

var edaExamples = []classifier.Example{
	{Question: "Explore the range and distribution of features", Labels: []types.Label{types.TaskDistributionAnalysis}},
	{Question: "Which columns move together?", Labels: []types.Label{types.TaskCorrelationAnalysis}},
}

var _ = Describe("Classifier", func() {
	var (
		mock *llm.MockClient
		c    *classifier.Classifier
		ctx  context.Context
	)

	BeforeEach(func() {
		mock = &llm.MockClient{}
		c = classifier.New(mock, "test-model")
		ctx = context.Background()
	})

	It("maps unknown tokens to OTHER instead of failing", func() {
		mock.CreateChatCompletionFunc = func(_ context.Context, _ openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
			return labelsResponse("DISTRIBUTION_ANALYSIS, TOTALLY_MADE_UP"), nil
		}

		labels, err := c.Classify(ctx, "explore the data", types.EDATasks, edaExamples)
		Expect(err).ToNot(HaveOccurred())
		Expect(labels).To(Equal([]types.Label{types.TaskDistributionAnalysis, types.Other}))
	})

	It("never invents labels outside the configured set", func() {
		mock.CreateChatCompletionFunc = func(_ context.Context, _ openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
			return labelsResponse("DISTRIBUTION_ANALYSIS, SUMMARY_STATISTICS"), nil
		}

		labels, err := c.Classify(ctx, "Explore the range and distribution of features", types.EDATasks, edaExamples)
		Expect(err).ToNot(HaveOccurred())
		for _, l := range labels {
			Expect(types.EDATasks.Contains(l)).To(BeTrue())
		}
	})

	It("embeds the label set and the examples in the prompt", func() {
		mock.CreateChatCompletionFunc = func(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
			content := req.Messages[0].Content
			Expect(content).To(ContainSubstring("DISTRIBUTION_ANALYSIS"))
			Expect(content).To(ContainSubstring("Which columns move together?"))
			return labelsResponse("CORRELATION_ANALYSIS"), nil
		}

		_, err := c.Classify(ctx, "anything", types.EDATasks, edaExamples)
		Expect(err).ToNot(HaveOccurred())
	})

	Describe("ClassifyOne", func() {
		It("returns OTHER when the model produces nothing usable", func() {
			mock.CreateChatCompletionFunc = func(_ context.Context, _ openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
				return labelsResponse("   "), nil
			}

			label, err := c.ClassifyOne(ctx, "???", types.EDATasks, nil)
			Expect(err).ToNot(HaveOccurred())
			Expect(label).To(Equal(types.Other))
		})

		It("routes plotting plans to VISUALIZATION and computation plans to CODE", func() {
			mock.CreateChatCompletionFunc = func(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
				if strings.Contains(req.Messages[0].Content, "histogram") {
					return labelsResponse("VISUALIZATION"), nil
				}
				return labelsResponse("CODE"), nil
			}

			label, err := c.ClassifyOne(ctx, "plot a histogram of the age column", types.CodeModes, nil)
			Expect(err).ToNot(HaveOccurred())
			Expect(label).To(Equal(types.ModeVisualization))

			label, err = c.ClassifyOne(ctx, "compute the mean and standard deviation", types.CodeModes, nil)
			Expect(err).ToNot(HaveOccurred())
			Expect(label).To(Equal(types.ModeCode))
		})
	})

	Describe("ClassifyBatch", func() {
		It("classifies each item independently and flattens in order", func() {
			mock.CreateChatCompletionFunc = func(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
				content := req.Messages[0].Content
				switch {
				case strings.Contains(content, "spread of values"):
					return labelsResponse("DISTRIBUTION_ANALYSIS, SUMMARY_STATISTICS"), nil
				case strings.Contains(content, "empty cells"):
					return labelsResponse("MISSING_VALUES"), nil
				}
				return labelsResponse(""), nil
			}

			labels, err := c.ClassifyBatch(ctx, []classifier.BatchItem{
				{Question: "spread of values", Task: "eda"},
				{Question: "empty cells", Task: "eda"},
			}, types.EDATasks, nil)
			Expect(err).ToNot(HaveOccurred())
			Expect(labels).To(Equal([]types.Label{
				types.TaskDistributionAnalysis,
				types.TaskSummaryStatistics,
				types.TaskMissingValues,
			}))
		})
	})
})
