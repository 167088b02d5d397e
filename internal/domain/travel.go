package domain

// VectorMatch is one scored hit from the vector index, ordered by the
// provider from most to least similar. Metadata carries the entity's
// stored attributes (name, type, city, ...).
type VectorMatch struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata"`
}

// GraphFact is one relationship edge discovered by a one-hop expansion
// around a seed entity. TargetDescription is capped at 300 characters.
type GraphFact struct {
	Source            string `json:"source"`
	Relation          string `json:"rel"`
	TargetID          string `json:"target_id"`
	TargetName        string `json:"target_name"`
	TargetDescription string `json:"target_desc"`
}

// ChatMessage is one turn of a chat-completion prompt.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// AnswerEnvelope is the externally visible result of one hybrid query.
type AnswerEnvelope struct {
	Query      string        `json:"query"`
	Answer     string        `json:"answer"`
	Matches    []VectorMatch `json:"matches"`
	GraphFacts []GraphFact   `json:"graph_facts"`
}

// StreamEvent is one unit of a streamed answer. Exactly one field is
// meaningful per event: a content token, the done sentinel, or an error
// sentinel. Done and Err are terminal and mutually exclusive; every
// stream ends with exactly one of them.
type StreamEvent struct {
	Token string
	Done  bool
	Err   string
}

// GraphEdge is one directed edge of the knowledge graph, used by the
// visualization subgraph read.
type GraphEdge struct {
	SourceID   string `json:"source_id"`
	SourceName string `json:"source_name"`
	TargetID   string `json:"target_id"`
	TargetName string `json:"target_name"`
	Relation   string `json:"relation"`
}

// TravelNode is one record of the travel dataset consumed by the
// ingestion pipeline. Connections become typed relationships.
type TravelNode struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Type        string       `json:"type"`
	City        string       `json:"city"`
	Description string       `json:"description"`
	Connections []Connection `json:"connections"`
}

// Connection is one outgoing relationship of a TravelNode.
type Connection struct {
	Relation string `json:"relation"`
	Target   string `json:"target"`
}
