package main

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/mudler/xlog"
	"github.com/robfig/cron/v3"

	"github.com/insightify-ai/insightify/core/memory"
	"github.com/insightify-ai/insightify/pkg/dataset"
	"github.com/insightify-ai/insightify/pkg/llm"
	"github.com/insightify-ai/insightify/services/classifier"
	"github.com/insightify-ai/insightify/services/nodes"
	"github.com/insightify-ai/insightify/services/sandbox"
	"github.com/insightify-ai/insightify/webui"
)

var (
	model            string
	apiURL           string
	apiKey           string
	timeout          string
	dbURL            string
	redisAddr        string
	listenAddr       string
	maxDebugAttempts string
	retention        string
)

func init() {
	_ = godotenv.Load()

	model = os.Getenv("INSIGHTIFY_MODEL")
	apiURL = os.Getenv("INSIGHTIFY_LLM_API_URL")
	apiKey = os.Getenv("INSIGHTIFY_LLM_API_KEY")
	dbURL = os.Getenv("INSIGHTIFY_DB_URL")
	redisAddr = os.Getenv("INSIGHTIFY_REDIS_ADDR")
	maxDebugAttempts = os.Getenv("INSIGHTIFY_MAX_DEBUG_ATTEMPTS")
	retention = os.Getenv("INSIGHTIFY_RETENTION")

	timeout = os.Getenv("INSIGHTIFY_TIMEOUT")
	if timeout == "" {
		timeout = "5m"
	}
	listenAddr = os.Getenv("INSIGHTIFY_LISTEN_ADDR")
	if listenAddr == "" {
		listenAddr = ":8080"
	}
}

func main() {
	if model == "" {
		xlog.Error("INSIGHTIFY_MODEL not set")
		os.Exit(1)
	}
	if dbURL == "" {
		xlog.Error("INSIGHTIFY_DB_URL not set")
		os.Exit(1)
	}

	attempts := 2
	if maxDebugAttempts != "" {
		if n, err := strconv.Atoi(maxDebugAttempts); err == nil && n >= 0 {
			attempts = n
		}
	}

	store, err := memory.Connect(dbURL)
	if err != nil {
		xlog.Error("Memory store connection failed", "error", err)
		os.Exit(1)
	}

	var cache memory.Cache
	if redisAddr != "" {
		redisCache := memory.NewRedisCache(redisAddr, 30*time.Minute)
		if err := redisCache.Connect(context.Background()); err != nil {
			xlog.Warn("Memory cache unavailable, running store-only", "addr", redisAddr, "error", err)
		} else {
			cache = redisCache
			defer redisCache.Close()
		}
	}

	client := llm.NewClient(apiKey, apiURL, timeout)
	memories := memory.NewManager(store, cache, dataset.NewFileLoader(), store)

	deps := nodes.Dependencies{
		Client:     client,
		Model:      model,
		Classifier: classifier.New(client, model),
		Summarizer: nodes.NewSummarizer(client, model),
		Sandbox:    sandbox.NewYaegiExecutor(),
		Memories:   memories,
		Packages:   []string{"fmt", "strconv", "strings", "sort", "math", "encoding/base64", "bytes", "image", "image/png", "image/color"},
	}

	if retention != "" {
		dur, err := time.ParseDuration(retention)
		if err != nil {
			xlog.Warn("Invalid INSIGHTIFY_RETENTION, sweep disabled", "value", retention)
		} else {
			c := cron.New()
			c.AddFunc("@daily", func() {
				deleted, err := store.DeleteOlderThan(context.Background(), time.Now().Add(-dur))
				if err != nil {
					xlog.Error("Retention sweep failed", "error", err)
					return
				}
				xlog.Info("Retention sweep done", "deleted", deleted)
			})
			c.Start()
			defer c.Stop()
		}
	}

	app := webui.NewApp(webui.Config{
		Memories:         memories,
		Graph:            nodes.Build(deps),
		MaxDebugAttempts: attempts,
	})

	xlog.Info("Listening", "addr", listenAddr)
	if err := app.Listen(listenAddr); err != nil {
		xlog.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}
