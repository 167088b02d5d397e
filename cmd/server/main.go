package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/static"
	"github.com/joho/godotenv"

	"github.com/blue-enigma/triply/internal/adapter/ai"
	"github.com/blue-enigma/triply/internal/adapter/graphstore"
	"github.com/blue-enigma/triply/internal/adapter/vectorstore"
	"github.com/blue-enigma/triply/internal/handler"
	"github.com/blue-enigma/triply/internal/port"
	"github.com/blue-enigma/triply/internal/service"
	"github.com/blue-enigma/triply/pkg/config"

	_ "github.com/lib/pq"
)

func main() {
	// ── Load .env file ───────────────────────────────────────────────────
	_ = godotenv.Load() // silently ignore if .env doesn't exist

	// ── Configuration ────────────────────────────────────────────────────
	cfg := config.Load()

	slog.Info("🌍 Starting Triply AI",
		"port", cfg.Port,
		"vector_backend", cfg.VectorBackend,
		"chat_model", cfg.ChatModel,
		"embed_model", cfg.EmbedModel,
	)

	ctx := context.Background()

	// ── Model provider ───────────────────────────────────────────────────
	openAI := ai.NewOpenAIProvider(ai.OpenAIConfig{
		BaseURL:     cfg.OpenAIBaseURL,
		APIKey:      cfg.OpenAIAPIKey,
		EmbedModel:  cfg.EmbedModel,
		ChatModel:   cfg.ChatModel,
		Temperature: cfg.Temperature,
	})
	provider := ai.NewBreakerProvider(openAI)

	// ── Vector index ─────────────────────────────────────────────────────
	var index port.VectorIndex
	switch cfg.VectorBackend {
	case "pgvector":
		pg, err := vectorstore.NewPgVectorIndex(cfg.DatabaseURL, cfg.EmbeddingDimension)
		if err != nil {
			slog.Error("failed to connect to pgvector", "error", err)
			os.Exit(1)
		}
		defer pg.Close()
		index = pg
	default:
		index = vectorstore.NewPineconeIndex(vectorstore.PineconeConfig{
			APIKey:    cfg.PineconeAPIKey,
			IndexName: cfg.PineconeIndex,
			Dimension: cfg.EmbeddingDimension,
			Metric:    "cosine",
			Cloud:     cfg.PineconeCloud,
			Region:    cfg.PineconeRegion,
		})
	}
	if err := index.EnsureIndex(ctx); err != nil {
		slog.Error("failed to ensure vector index", "error", err)
		os.Exit(1)
	}

	// ── Graph store ──────────────────────────────────────────────────────
	graph, err := graphstore.NewNeo4jStore(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
	if err != nil {
		slog.Error("failed to connect to neo4j", "error", err)
		os.Exit(1)
	}
	defer graph.Close(ctx)

	// ── Services ─────────────────────────────────────────────────────────
	retriever := service.NewRetriever(provider, index, cfg.TopK, cfg.EmbeddingDimension)
	expander := service.NewExpander(graph, cfg.GraphFactLimit)
	generator := service.NewGenerator(provider, cfg.MaxAnswerTokens, cfg.MaxStreamTokens)
	hybrid := service.NewHybridService(retriever, expander, generator)
	graphs := service.NewGraphService(graph, cfg.GraphVizLimit, cfg.StaticDir)

	// ── Fiber App ────────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:     cfg.AppName,
		ReadTimeout: 30 * time.Second,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: []string{cfg.FrontendURL},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
	}))
	app.Use("/static", static.New(cfg.StaticDir))

	// ── Routes ───────────────────────────────────────────────────────────
	chatHandler := handler.NewChatHandler(hybrid, graphs)
	chatHandler.Register(app)

	app.Get("/api/v1/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"app":     cfg.AppName,
			"version": "1.1.2",
		})
	})

	// ── Start ────────────────────────────────────────────────────────────
	slog.Info("🌐 Fiber listening", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
