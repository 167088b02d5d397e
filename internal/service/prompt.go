package service

import (
	"fmt"
	"strings"

	"github.com/blue-enigma/triply/internal/domain"
)

// systemInstruction is the fixed persona for every generated answer.
const systemInstruction = "You are a helpful and professional travel assistant. " +
	"Use both semantic search results and graph relationships " +
	"to answer the user's question concisely and informatively. " +
	"Mention relevant attractions, locations, and provide 2-3 itinerary tips where possible."

// ComposePrompt deterministically renders the chat prompt: the fixed
// system instruction plus one user turn fusing the query, the semantic
// matches, and the graph facts. Pure function; inputs are rendered in
// the order received, and the section labels are emitted even when a
// list is empty so the prompt shape stays stable.
func ComposePrompt(query string, matches []domain.VectorMatch, facts []domain.GraphFact) []domain.ChatMessage {
	vectorContext := make([]string, len(matches))
	for i, m := range matches {
		vectorContext[i] = fmt.Sprintf("- id: %s, name: %s, type: %s, city: %s",
			m.ID, metaValue(m.Metadata, "name"), metaValue(m.Metadata, "type"), metaValue(m.Metadata, "city"))
	}

	graphContext := make([]string, len(facts))
	for i, f := range facts {
		graphContext[i] = fmt.Sprintf("- (%s) -[%s]-> (%s) %s: %s",
			f.Source, f.Relation, f.TargetID, f.TargetName, f.TargetDescription)
	}

	userContent := fmt.Sprintf(
		"User query: %s\n\nTop semantic matches:\n%s\n\nGraph facts:\n%s\n\nNow, based on all the above context, craft your best possible travel advice.",
		query,
		strings.Join(vectorContext, "\n"),
		strings.Join(graphContext, "\n"),
	)

	return []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: systemInstruction},
		{Role: domain.RoleUser, Content: userContent},
	}
}

// metaValue reads a metadata key as text; missing keys render as "".
func metaValue(md map[string]any, key string) string {
	if md == nil {
		return ""
	}
	v, ok := md[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
