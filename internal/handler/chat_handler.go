package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v3"

	"github.com/blue-enigma/triply/internal/domain"
	"github.com/blue-enigma/triply/internal/port"
	"github.com/blue-enigma/triply/internal/service"
)

// ChatHandler exposes the hybrid question-answering endpoints.
type ChatHandler struct {
	hybrid *service.HybridService
	graphs *service.GraphService
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(hybrid *service.HybridService, graphs *service.GraphService) *ChatHandler {
	return &ChatHandler{hybrid: hybrid, graphs: graphs}
}

// Register sets up the chat and graph routes.
func (h *ChatHandler) Register(router fiber.Router) {
	router.Post("/chat", h.Chat)
	router.Post("/chat/stream", h.ChatStream)
	router.Get("/graph", h.Graph)
}

type chatRequest struct {
	Query string `json:"query"`
}

// Chat returns the full answer envelope in one response.
func (h *ChatHandler) Chat(c fiber.Ctx) error {
	var body chatRequest
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	envelope, err := h.hybrid.Answer(c.Context(), body.Query)
	if err != nil {
		if errors.Is(err, port.ErrEmptyQuery) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(envelope)
}

// ChatStream delivers the answer token-by-token over Server-Sent Events.
// Each token arrives as data: {"token": ...}; the stream is terminated
// by data: [DONE] on success or data: {"error": ...} on failure.
func (h *ChatHandler) ChatStream(c fiber.Ctx) error {
	var body chatRequest
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	// The stream writer runs after this handler returns, so the pipeline
	// gets its own context, cancelled when the client goes away.
	ctx, cancel := context.WithCancel(context.WithoutCancel(c.Context()))

	events, err := h.hybrid.AnswerStream(ctx, body.Query)
	if err != nil {
		cancel()
		if errors.Is(err, port.ErrEmptyQuery) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	return c.SendStreamWriter(func(w *bufio.Writer) {
		defer cancel()
		for event := range events {
			if err := writeSSE(w, event); err != nil {
				// Client disconnected; stop pulling deltas.
				return
			}
		}
	})
}

// Graph renders the knowledge-graph visualization and returns its URL.
func (h *ChatHandler) Graph(c fiber.Ctx) error {
	if _, err := h.graphs.GenerateHTML(c.Context()); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"graph_url": "/static/graph.html"})
}

// writeSSE frames one stream event and flushes it to the client.
func writeSSE(w *bufio.Writer, event domain.StreamEvent) error {
	switch {
	case event.Err != "":
		payload, _ := json.Marshal(fiber.Map{"error": event.Err})
		if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
			return err
		}
	case event.Done:
		if _, err := fmt.Fprint(w, "data: [DONE]\n\n"); err != nil {
			return err
		}
	default:
		payload, _ := json.Marshal(fiber.Map{"token": event.Token})
		if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
			return err
		}
	}
	return w.Flush()
}
