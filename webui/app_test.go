package webui_test

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/insightify-ai/insightify/core/graph"
	"github.com/insightify-ai/insightify/core/memory"
	"github.com/insightify-ai/insightify/core/types"
	"github.com/insightify-ai/insightify/pkg/dataset"
	"github.com/insightify-ai/insightify/webui"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type mapStore struct {
	mu   sync.Mutex
	rows map[memory.Key][]byte
}

func (s *mapStore) Get(_ context.Context, key memory.Key) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.rows[key]
	if !ok {
		return nil, memory.ErrNotFound
	}
	return raw, nil
}

func (s *mapStore) Create(_ context.Context, key memory.Key, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[key]; !ok {
		s.rows[key] = payload
	}
	return nil
}

func (s *mapStore) Update(_ context.Context, key memory.Key, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[key] = payload
	return nil
}

type staticLoader struct{}

func (staticLoader) Load(_ context.Context, uri string) (*dataset.Dataset, error) {
	return &dataset.Dataset{URI: uri, Columns: []string{"age"}}, nil
}

// echoGraph answers every question with one text frame.
func echoGraph() *graph.Graph {
	g := graph.New("echo")
	g.AddNode(graph.NodeFunc{
		ID: "echo",
		Fn: func(_ context.Context, state *types.AgentState) error {
			state.EmitText("echo: " + state.Question)
			return nil
		},
	})
	g.AddEdge("echo", graph.End)
	return g
}

var _ = Describe("HTTP API", func() {
	var app *webui.App

	BeforeEach(func() {
		store := &mapStore{rows: map[memory.Key][]byte{}}
		app = webui.NewApp(webui.Config{
			Memories:         memory.NewManager(store, nil, staticLoader{}, nil),
			Graph:            echoGraph(),
			MaxDebugAttempts: 2,
		})
	})

	request := func(method, target, body string) *http.Response {
		var reader io.Reader
		if body != "" {
			reader = strings.NewReader(body)
		}
		req, err := http.NewRequest(method, target, reader)
		Expect(err).ToNot(HaveOccurred())
		if body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		resp, err := app.Test(req, -1)
		Expect(err).ToNot(HaveOccurred())
		return resp
	}

	It("reports health", func() {
		resp := request(http.MethodGet, "/healthz", "")
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
	})

	Describe("chat", func() {
		It("rejects malformed bodies", func() {
			resp := request(http.MethodPost, "/api/chat", "{not json")
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("rejects requests missing identity fields", func() {
			resp := request(http.MethodPost, "/api/chat", `{"question":"hi"}`)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("streams the run as server-sent events", func() {
			resp := request(http.MethodPost, "/api/chat",
				`{"question":"hello","user_id":"u1","session_id":"s1","file_name":"data.csv"}`)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(ContainSubstring("text/event-stream"))

			body, err := io.ReadAll(resp.Body)
			Expect(err).ToNot(HaveOccurred())
			Expect(string(body)).To(ContainSubstring("data: "))
			Expect(string(body)).To(ContainSubstring("echo: hello"))
		})
	})

	Describe("memory inspection", func() {
		It("rejects unknown kinds", func() {
			resp := request(http.MethodGet, "/api/memory/bogus?user_id=u1&session_id=s1&file_name=data.csv", "")
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})

		It("requires the full key", func() {
			resp := request(http.MethodGet, "/api/memory/conversation_summary?user_id=u1", "")
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("returns the raw payload of a kind", func() {
			resp := request(http.MethodGet, "/api/memory/conversation_summary?user_id=u1&session_id=s1&file_name=data.csv", "")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			raw, err := io.ReadAll(resp.Body)
			Expect(err).ToNot(HaveOccurred())
			text, err := memory.DecodeSummary(raw)
			Expect(err).ToNot(HaveOccurred())
			Expect(text).To(BeEmpty())
		})
	})
})
