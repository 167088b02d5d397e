package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/blue-enigma/triply/internal/domain"
	"github.com/blue-enigma/triply/internal/port"
)

// OpenAIConfig holds the configuration for the OpenAI-compatible API.
type OpenAIConfig struct {
	BaseURL     string // e.g. https://api.openai.com
	APIKey      string
	EmbedModel  string // e.g. text-embedding-3-small
	ChatModel   string // e.g. gpt-4o-mini
	Temperature float64
}

// OpenAIProvider implements port.AIProvider using the OpenAI REST API.
type OpenAIProvider struct {
	cfg        OpenAIConfig
	httpClient *http.Client
}

// NewOpenAIProvider creates a new OpenAI-backed AI provider.
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	return &OpenAIProvider{
		cfg:        cfg,
		httpClient: &http.Client{},
	}
}

// ModelName returns the chat model identifier.
func (o *OpenAIProvider) ModelName() string {
	return o.cfg.ChatModel
}

// Embed generates a vector embedding for the given text.
func (o *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	payload := map[string]any{
		"model": o.cfg.EmbedModel,
		"input": []string{text},
	}

	body, err := o.post(ctx, "/v1/embeddings", payload)
	if err != nil {
		return nil, fmt.Errorf("openai embed: %w", err)
	}

	var resp struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("openai embed decode: %w", err)
	}

	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai embed: empty response")
	}

	return resp.Data[0].Embedding, nil
}

// Chat sends the prompt and returns the complete response text.
func (o *OpenAIProvider) Chat(ctx context.Context, messages []domain.ChatMessage, maxTokens int) (string, error) {
	payload := map[string]any{
		"model":       o.cfg.ChatModel,
		"messages":    messages,
		"max_tokens":  maxTokens,
		"temperature": o.cfg.Temperature,
	}

	body, err := o.post(ctx, "/v1/chat/completions", payload)
	if err != nil {
		return "", fmt.Errorf("openai chat: %w", err)
	}

	var resp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("openai chat decode: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai chat: empty response")
	}

	return resp.Choices[0].Message.Content, nil
}

// ChatStream sends the prompt and streams response deltas as they arrive.
// The returned channel ends with exactly one terminal delta (Done or Err).
func (o *OpenAIProvider) ChatStream(ctx context.Context, messages []domain.ChatMessage, maxTokens int) (<-chan port.ChatDelta, error) {
	payload := map[string]any{
		"model":       o.cfg.ChatModel,
		"messages":    messages,
		"max_tokens":  maxTokens,
		"temperature": o.cfg.Temperature,
		"stream":      true,
	}

	payloadBytes, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.cfg.BaseURL+"/v1/chat/completions", bytes.NewReader(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("openai stream: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.cfg.APIKey)

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("openai stream: API error (%d): %s", resp.StatusCode, string(body))
	}

	ch := make(chan port.ChatDelta, 64)
	go func() {
		defer close(ch)
		defer resp.Body.Close()

		// send delivers a delta unless the consumer has gone away. On
		// cancellation a terminal error is offered without blocking so
		// the goroutine always exits and releases the response body.
		send := func(delta port.ChatDelta) bool {
			select {
			case ch <- delta:
				return true
			case <-ctx.Done():
				select {
				case ch <- port.ChatDelta{Err: ctx.Err()}:
				default:
				}
				return false
			}
		}

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if !strings.HasPrefix(line, "data:") {
				continue
			}
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "[DONE]" {
				send(port.ChatDelta{Done: true})
				return
			}

			var chunk struct {
				Choices []struct {
					Delta struct {
						Content string `json:"content"`
					} `json:"delta"`
				} `json:"choices"`
			}
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				send(port.ChatDelta{Err: fmt.Errorf("openai stream decode: %w", err)})
				return
			}
			if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
				if !send(port.ChatDelta{Content: chunk.Choices[0].Delta.Content}) {
					return
				}
			}
		}
		if err := scanner.Err(); err != nil {
			send(port.ChatDelta{Err: fmt.Errorf("openai stream read: %w", err)})
			return
		}
		// Connection closed without a [DONE] marker.
		send(port.ChatDelta{Done: true})
	}()

	return ch, nil
}

// post is a helper for POST requests to the OpenAI API.
func (o *OpenAIProvider) post(ctx context.Context, path string, payload any) ([]byte, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.cfg.BaseURL+path, bytes.NewReader(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.cfg.APIKey)

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}
