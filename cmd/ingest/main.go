package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"github.com/blue-enigma/triply/internal/adapter/ai"
	"github.com/blue-enigma/triply/internal/adapter/graphstore"
	"github.com/blue-enigma/triply/internal/adapter/vectorstore"
	"github.com/blue-enigma/triply/internal/domain"
	"github.com/blue-enigma/triply/internal/port"
	"github.com/blue-enigma/triply/pkg/config"

	_ "github.com/lib/pq"
)

// Loads a travel dataset into Neo4j and the vector index: entity nodes,
// typed relationships, and one embedding per entity.
func main() {
	dataFile := flag.String("data", "vietnam_travel_dataset.json", "path to the travel dataset JSON")
	embedRPS := flag.Float64("embed-rps", 5, "embedding requests per second")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	ctx := context.Background()

	nodes, err := loadDataset(*dataFile)
	if err != nil {
		slog.Error("failed to load dataset", "file", *dataFile, "error", err)
		os.Exit(1)
	}
	slog.Info("dataset loaded", "file", *dataFile, "nodes", len(nodes))

	provider := ai.NewOpenAIProvider(ai.OpenAIConfig{
		BaseURL:    cfg.OpenAIBaseURL,
		APIKey:     cfg.OpenAIAPIKey,
		EmbedModel: cfg.EmbedModel,
		ChatModel:  cfg.ChatModel,
	})

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

	graph, err := graphstore.NewNeo4jStore(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
	if err != nil {
		slog.Error("failed to connect to neo4j", "error", err)
		os.Exit(1)
	}
	defer graph.Close(ctx)

	if err := ingest(ctx, nodes, graph, index, provider, rate.NewLimiter(rate.Limit(*embedRPS), 1)); err != nil {
		slog.Error("ingest failed", "error", err)
		os.Exit(1)
	}

	slog.Info("done loading", "nodes", len(nodes))
}

func loadDataset(path string) ([]domain.TravelNode, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var nodes []domain.TravelNode
	if err := json.Unmarshal(raw, &nodes); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	return nodes, nil
}

// ingest writes the graph first (nodes, then relationships so both ends
// exist), then embeds and upserts each entity's text into the index.
// Embedding calls are rate-limited to stay under provider quotas.
func ingest(ctx context.Context, nodes []domain.TravelNode, graph port.GraphStore, index port.VectorIndex, provider port.AIProvider, limiter *rate.Limiter) error {
	if err := graph.EnsureConstraints(ctx); err != nil {
		return err
	}

	for _, node := range nodes {
		if err := graph.UpsertNode(ctx, node); err != nil {
			return err
		}
	}
	slog.Info("graph nodes created", "count", len(nodes))

	relations := 0
	for _, node := range nodes {
		for _, conn := range node.Connections {
			if conn.Target == "" {
				continue
			}
			if err := graph.UpsertRelation(ctx, node.ID, conn.Relation, conn.Target); err != nil {
				return err
			}
			relations++
		}
	}
	slog.Info("graph relationships created", "count", relations)

	var records []port.VectorRecord
	for _, node := range nodes {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		vector, err := provider.Embed(ctx, embeddingText(node))
		if err != nil {
			slog.Error("embedding failed, skipping node", "id", node.ID, "error", err)
			continue
		}
		records = append(records, port.VectorRecord{
			ID:     node.ID,
			Values: vector,
			Metadata: map[string]any{
				"name": node.Name,
				"type": node.Type,
				"city": node.City,
			},
		})

		if len(records) >= 100 {
			if err := index.Upsert(ctx, records); err != nil {
				return err
			}
			records = records[:0]
		}
	}
	if err := index.Upsert(ctx, records); err != nil {
		return err
	}

	return nil
}

// embeddingText is the entity text indexed for similarity search.
func embeddingText(node domain.TravelNode) string {
	return fmt.Sprintf("%s. %s. %s. %s", node.Name, node.Type, node.City, node.Description)
}
