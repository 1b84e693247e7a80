package nodes_test

import (
	"context"
	"strings"

	"github.com/insightify-ai/insightify/core/memory"
	"github.com/insightify-ai/insightify/core/types"
	"github.com/insightify-ai/insightify/services/classifier"
	"github.com/insightify-ai/insightify/services/nodes"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Chat graph", func() {
	var (
		ctx     context.Context
		llms    *scriptedLLM
		box     *fakeSandbox
		store   *fakeStore
		mgr     *memory.Manager
		state   *types.AgentState
		events  []types.StreamEvent
		texts   func() []string
		answers func() string
	)

	run := func() error {
		client := llms.client()
		deps := nodes.Dependencies{
			Client:     client,
			Model:      "test-model",
			Classifier: classifier.New(client, "test-model"),
			Summarizer: nodes.NewSummarizer(client, "test-model"),
			Sandbox:    box,
			Memories:   mgr,
			Packages:   []string{"fmt", "strconv"},
		}
		state.OnEvent(func(e types.StreamEvent) { events = append(events, e) })
		return nodes.Build(deps).Run(ctx, state)
	}

	persistedTurn := func() types.QAPair {
		raw, err := store.Get(ctx, memory.Key{
			Kind: memory.KindConversation, UserID: "u1", SessionID: "s1", FileName: "data.csv",
		})
		Expect(err).ToNot(HaveOccurred())
		turns, err := memory.DecodeConversation(raw)
		Expect(err).ToNot(HaveOccurred())
		Expect(turns).ToNot(BeEmpty())
		return turns[len(turns)-1]
	}

	BeforeEach(func() {
		ctx = context.Background()
		llms = &scriptedLLM{requestType: "TECHNICAL", subtasks: []string{"count the rows"}}
		box = &fakeSandbox{}
		store = newFakeStore()
		mgr = memory.NewManager(store, nil, fakeLoader{}, nil)
		events = nil
		state = &types.AgentState{
			Question:         "analyze the dataset",
			UserID:           "u1",
			SessionID:        "s1",
			FileName:         "data.csv",
			StorageURI:       "/tmp/data.csv",
			DatasetSummary:   "1 column: age",
			MaxDebugAttempts: 2,
		}
		texts = func() []string {
			out := []string{}
			for _, e := range events {
				if e.Type == types.EventText {
					out = append(out, e.Data)
				}
			}
			return out
		}
		answers = func() string { return persistedTurn().Answer }
	})

	Describe("technical requests", func() {
		It("plans, executes and persists every subtask", func() {
			llms.subtasks = []string{"count the rows", "average the age column"}

			Expect(run()).To(Succeed())

			Expect(box.execs).To(Equal(2))
			Expect(box.codes).To(Equal([]string{"analysis code", "analysis code"}))
			Expect(llms.planCount).To(Equal(2))

			turn := persistedTurn()
			Expect(turn.Question).To(Equal("analyze the dataset"))
			Expect(turn.Answer).To(ContainSubstring("plan for step 1"))
			Expect(turn.Answer).To(ContainSubstring("result 1"))
			Expect(turn.Answer).To(ContainSubstring("plan for step 2"))
			Expect(turn.Answer).To(ContainSubstring("result 2"))
		})

		It("folds each finished subtask into the running summaries", func() {
			llms.subtasks = []string{"count the rows", "average the age column"}

			Expect(run()).To(Succeed())
			Expect(llms.summaryCount).To(Equal(2))

			raw, err := store.Get(ctx, memory.Key{
				Kind: memory.KindConversationSummary, UserID: "u1", SessionID: "s1", FileName: "data.csv",
			})
			Expect(err).ToNot(HaveOccurred())
			text, err := memory.DecodeSummary(raw)
			Expect(err).ToNot(HaveOccurred())
			Expect(text).To(Equal("conversation summary 2"))

			raw, err = store.Get(ctx, memory.Key{
				Kind: memory.KindCodeSummary, UserID: "u1", SessionID: "s1", FileName: "data.csv",
			})
			Expect(err).ToNot(HaveOccurred())
			text, err = memory.DecodeSummary(raw)
			Expect(err).ToNot(HaveOccurred())
			Expect(text).To(Equal("code summary"))
		})

		It("closes the stream with one follow-up suggestion", func() {
			Expect(run()).To(Succeed())

			Expect(state.Suggestion).To(Equal("try a correlation analysis next"))
			Expect(events).ToNot(BeEmpty())
			last := events[len(events)-1]
			Expect(last.Type).To(Equal(types.EventText))
			Expect(last.Data).To(Equal("try a correlation analysis next"))
		})
	})

	Describe("debug loop", func() {
		It("retries a failing snippet up to the attempt bound, then falls back", func() {
			box.failures = -1

			Expect(run()).To(Succeed())

			Expect(box.execs).To(Equal(3))
			Expect(llms.debugCount).To(Equal(2))
			Expect(box.codes).To(Equal([]string{"analysis code", "fix 1", "fix 2"}))

			answer := answers()
			Expect(answer).To(ContainSubstring("fix 1"))
			Expect(answer).To(ContainSubstring("fix 2"))
			Expect(strings.Index(answer, "fix 1")).To(BeNumerically("<", strings.Index(answer, "fix 2")))
			Expect(answer).To(ContainSubstring("could not complete this step after 2 attempts"))
			Expect(answer).To(ContainSubstring("index out of range"))
		})

		It("recovers when a corrected snippet succeeds", func() {
			box.failures = 1

			Expect(run()).To(Succeed())

			Expect(box.execs).To(Equal(2))
			Expect(llms.debugCount).To(Equal(1))
			Expect(answers()).To(ContainSubstring("result 2"))
		})

		It("still persists the turn but keeps the code summary untouched on exhaustion", func() {
			box.failures = -1

			Expect(run()).To(Succeed())

			Expect(answers()).ToNot(BeEmpty())

			raw, err := store.Get(ctx, memory.Key{
				Kind: memory.KindCodeSummary, UserID: "u1", SessionID: "s1", FileName: "data.csv",
			})
			Expect(err).ToNot(HaveOccurred())
			text, err := memory.DecodeSummary(raw)
			Expect(err).ToNot(HaveOccurred())
			Expect(text).To(BeEmpty())
		})
	})

	Describe("general requests", func() {
		It("answers directly without touching the sandbox", func() {
			llms.requestType = "GENERAL"

			Expect(run()).To(Succeed())

			Expect(box.execs).To(BeZero())
			Expect(llms.planCount).To(BeZero())
			Expect(answers()).To(Equal("direct answer"))
			Expect(texts()).To(ContainElement("direct answer"))
		})
	})

	Describe("visualizations", func() {
		It("routes plotting subtasks through the image pipeline", func() {
			llms.subtasks = []string{"plot a histogram of age"}

			Expect(run()).To(Succeed())

			Expect(box.codes).To(Equal([]string{"viz code"}))
			Expect(state.Image).To(Equal("base64-png-bytes"))

			var images []string
			for _, e := range events {
				if e.Type == types.EventImage {
					images = append(images, e.Data)
				}
			}
			Expect(images).To(Equal([]string{"base64-png-bytes"}))
		})

		It("never persists the image as a variable binding", func() {
			llms.subtasks = []string{"plot a histogram of age"}

			Expect(run()).To(Succeed())

			raw, err := store.Get(ctx, memory.Key{
				Kind: memory.KindVariables, UserID: "u1", SessionID: "s1", FileName: "data.csv",
			})
			Expect(err).ToNot(HaveOccurred())
			refs, err := memory.DecodeVariables(raw)
			Expect(err).ToNot(HaveOccurred())
			Expect(refs).ToNot(HaveKey("image"))
			Expect(refs).To(HaveKey(memory.DatasetVariable))
			Expect(refs[memory.DatasetVariable].Kind).To(Equal("dataset"))
		})
	})
})
