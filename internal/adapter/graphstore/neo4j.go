package graphstore

import (
	"context"
	"fmt"
	"regexp"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/blue-enigma/triply/internal/domain"
	"github.com/blue-enigma/triply/internal/port"
)

// neighborQuery fetches one-hop neighbors of a seed entity, any relation
// type, either direction.
const neighborQuery = `MATCH (n:Entity {id: $nid})-[r]-(m:Entity)
RETURN type(r) AS rel, m.id AS id, m.name AS name, m.description AS description
LIMIT $limit`

// subgraphQuery fetches directed edges for the visualization.
const subgraphQuery = `MATCH (a:Entity)-[r]->(b:Entity)
RETURN a.id AS a_id, a.name AS a_name, b.id AS b_id, b.name AS b_name, type(r) AS rel
LIMIT $limit`

// relTypePattern validates relationship type labels before they are
// interpolated into Cypher (types cannot be bound as parameters).
var relTypePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// Neo4jStore implements port.GraphStore on a long-lived Neo4j driver.
// Sessions are opened per logical operation and always closed.
type Neo4jStore struct {
	driver neo4j.DriverWithContext
}

// NewNeo4jStore connects to Neo4j and verifies connectivity.
func NewNeo4jStore(ctx context.Context, uri, user, password string) (*Neo4jStore, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("neo4j connectivity: %w", err)
	}
	return &Neo4jStore{driver: driver}, nil
}

// Close releases the driver and its connection pool.
func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

// Neighbors returns up to limit entities adjacent to the seed id, in
// store order. A seed with no edges yields an empty slice.
func (s *Neo4jStore) Neighbors(ctx context.Context, seedID string, limit int) ([]port.Neighbor, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	records, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, neighborQuery, map[string]any{"nid": seedID, "limit": limit})
		if err != nil {
			return nil, err
		}
		return result.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("neo4j neighbors: %w", err)
	}

	var neighbors []port.Neighbor
	for _, record := range records.([]*neo4j.Record) {
		neighbors = append(neighbors, port.Neighbor{
			Relation:    stringValue(record, "rel"),
			ID:          stringValue(record, "id"),
			Name:        stringValue(record, "name"),
			Description: stringValue(record, "description"),
		})
	}
	return neighbors, nil
}

// Subgraph returns up to limit directed edges for visualization.
func (s *Neo4jStore) Subgraph(ctx context.Context, limit int) ([]domain.GraphEdge, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	records, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, subgraphQuery, map[string]any{"limit": limit})
		if err != nil {
			return nil, err
		}
		return result.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("neo4j subgraph: %w", err)
	}

	var edges []domain.GraphEdge
	for _, record := range records.([]*neo4j.Record) {
		edges = append(edges, domain.GraphEdge{
			SourceID:   stringValue(record, "a_id"),
			SourceName: stringValue(record, "a_name"),
			TargetID:   stringValue(record, "b_id"),
			TargetName: stringValue(record, "b_name"),
			Relation:   stringValue(record, "rel"),
		})
	}
	return edges, nil
}

// EnsureConstraints creates the unique-id constraint on entities.
func (s *Neo4jStore) EnsureConstraints(ctx context.Context) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, "CREATE CONSTRAINT IF NOT EXISTS FOR (n:Entity) REQUIRE n.id IS UNIQUE", nil)
	})
	if err != nil {
		return fmt.Errorf("neo4j constraints: %w", err)
	}
	return nil
}

// UpsertNode merges an entity node with its properties.
func (s *Neo4jStore) UpsertNode(ctx context.Context, node domain.TravelNode) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	props := map[string]any{
		"id":          node.ID,
		"name":        node.Name,
		"type":        node.Type,
		"city":        node.City,
		"description": node.Description,
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, "MERGE (n:Entity {id: $id}) SET n += $props",
			map[string]any{"id": node.ID, "props": props})
	})
	if err != nil {
		return fmt.Errorf("neo4j upsert node %s: %w", node.ID, err)
	}
	return nil
}

// UpsertRelation merges a typed relationship between two entities.
func (s *Neo4jStore) UpsertRelation(ctx context.Context, sourceID, relation, targetID string) error {
	if relation == "" {
		relation = "RELATED_TO"
	}
	if !relTypePattern.MatchString(relation) {
		return fmt.Errorf("neo4j upsert relation: invalid relation type %q", relation)
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := fmt.Sprintf(
		"MATCH (a:Entity {id: $source_id}), (b:Entity {id: $target_id}) MERGE (a)-[r:%s]->(b) RETURN r",
		relation,
	)
	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, query, map[string]any{"source_id": sourceID, "target_id": targetID})
	})
	if err != nil {
		return fmt.Errorf("neo4j upsert relation %s-[%s]->%s: %w", sourceID, relation, targetID, err)
	}
	return nil
}

// stringValue reads a record field as a string; null and missing values
// map to the empty string.
func stringValue(record *neo4j.Record, key string) string {
	v, ok := record.Get(key)
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
