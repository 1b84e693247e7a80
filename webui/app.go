package webui

import (
	"context"

	fiber "github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/insightify-ai/insightify/core/graph"
	"github.com/insightify-ai/insightify/core/memory"
	"github.com/insightify-ai/insightify/core/sse"
	"github.com/insightify-ai/insightify/core/types"
	"github.com/mudler/xlog"
)

type Config struct {
	Memories         *memory.Manager
	Graph            *graph.Graph
	MaxDebugAttempts int
}

type App struct {
	*fiber.App
	config Config
}

func NewApp(config Config) *App {
	a := &App{
		App:    fiber.New(fiber.Config{DisableStartupMessage: true}),
		config: config,
	}
	a.registerRoutes()
	return a
}

func (a *App) registerRoutes() {
	a.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	a.Post("/api/chat", a.Chat)
	a.Get("/api/memory/:kind", a.Memory)
}

// ChatRequest is the body of the streaming chat endpoint. The user identity
// is an already-authenticated precondition.
type ChatRequest struct {
	Question       string `json:"question"`
	UserID         string `json:"user_id"`
	SessionID      string `json:"session_id"`
	FileName       string `json:"file_name"`
	StorageURI     string `json:"storage_uri"`
	DatasetSummary string `json:"dataset_summary"`
}

// Chat runs one graph over a fresh AgentState and streams the produced
// frames back as server-sent events.
func (a *App) Chat(c *fiber.Ctx) error {
	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Question == "" || req.UserID == "" || req.SessionID == "" || req.FileName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "question, user_id, session_id and file_name are required"})
	}

	requestID := uuid.NewString()
	state := &types.AgentState{
		Question:         req.Question,
		UserID:           req.UserID,
		SessionID:        req.SessionID,
		FileName:         req.FileName,
		StorageURI:       req.StorageURI,
		DatasetSummary:   req.DatasetSummary,
		MaxDebugAttempts: a.config.MaxDebugAttempts,
	}

	stream := sse.NewStream(64)
	state.OnEvent(func(e types.StreamEvent) {
		stream.Send(sse.FromEvent(e))
	})

	// Client disconnect cancels the run; already-persisted writes are never
	// rolled back (persistence happens only at the terminal node).
	runCtx, cancel := context.WithCancel(context.Background())
	go func() {
		<-stream.Done()
		cancel()
	}()

	go func() {
		defer stream.Close()
		defer cancel()

		if err := a.config.Graph.Run(runCtx, state); err != nil {
			xlog.Error("Chat run failed", "request", requestID, "session", req.SessionID, "error", err)
			stream.Send(sse.Frame{Type: types.EventText, Data: "Something went wrong while answering. Please retry."})
			return
		}
		xlog.Info("Chat run finished", "request", requestID, "session", req.SessionID)
	}()

	return stream.Serve(c)
}

// Memory exposes the raw payload of one memory kind, for session debugging.
func (a *App) Memory(c *fiber.Ctx) error {
	var svc *memory.Service
	switch memory.Kind(c.Params("kind")) {
	case memory.KindConversation:
		svc = a.config.Memories.Conversation
	case memory.KindConversationSummary:
		svc = a.config.Memories.ConversationSummary
	case memory.KindCodeSummary:
		svc = a.config.Memories.CodeSummary
	case memory.KindVariables:
		svc = a.config.Memories.Variables
	default:
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown memory kind"})
	}

	userID := c.Query("user_id")
	sessionID := c.Query("session_id")
	fileName := c.Query("file_name")
	if userID == "" || sessionID == "" || fileName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "user_id, session_id and file_name are required"})
	}

	raw, err := svc.Get(c.Context(), userID, sessionID, fileName, c.Query("storage_uri"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	c.Set("Content-Type", "application/json")
	return c.Send(raw)
}
