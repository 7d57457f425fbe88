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

	"github.com/atmosferica/shop-assistant/internal/port"
)

// EndpointConfig holds the configuration for one OpenAI-compatible endpoint.
type EndpointConfig struct {
	BaseURL string // e.g. https://api.openai.com/v1 or https://api.deepseek.com/v1
	Model   string // e.g. text-embedding-3-small, deepseek-chat
	APIKey  string
}

// OpenAIProvider implements port.AIProvider against OpenAI-compatible APIs.
// Embeddings and completions may target different endpoints (different URLs,
// models and keys), e.g. OpenAI for vectors and DeepSeek for chat.
type OpenAIProvider struct {
	embed         EndpointConfig
	chat          EndpointConfig
	maxInputChars int
	httpClient    *http.Client
}

// NewOpenAIProvider creates a provider with separate embed/chat configs.
// Embedding input longer than maxInputChars is truncated, never rejected.
func NewOpenAIProvider(embed, chat EndpointConfig, maxInputChars int) *OpenAIProvider {
	if maxInputChars <= 0 {
		maxInputChars = 8000
	}
	return &OpenAIProvider{
		embed:         embed,
		chat:          chat,
		maxInputChars: maxInputChars,
		httpClient:    &http.Client{},
	}
}

// ModelName returns the chat model identifier.
func (p *OpenAIProvider) ModelName() string {
	return p.chat.Model
}

type embeddingsResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed generates a vector embedding for the given text.
func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	clean := p.prepareInput(text)
	if clean == "" {
		return nil, port.ErrEmptyText
	}

	payload := map[string]any{
		"model":           p.embed.Model,
		"input":           clean,
		"encoding_format": "float",
	}

	body, err := p.post(ctx, p.embed, "/embeddings", payload)
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}

	var resp embeddingsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("embed decode: %w: %w", port.ErrProviderUnavailable, err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("embed: %w", port.ErrEmptyResponse)
	}

	return resp.Data[0].Embedding, nil
}

// EmbedBatch generates embeddings for multiple texts in one call. The result
// order matches the input order.
func (p *OpenAIProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	inputs := make([]string, len(texts))
	for i, t := range texts {
		inputs[i] = p.prepareInput(t)
	}

	payload := map[string]any{
		"model":           p.embed.Model,
		"input":           inputs,
		"encoding_format": "float",
	}

	body, err := p.post(ctx, p.embed, "/embeddings", payload)
	if err != nil {
		return nil, fmt.Errorf("embed batch: %w", err)
	}

	var resp embeddingsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("embed batch decode: %w: %w", port.ErrProviderUnavailable, err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embed batch: got %d vectors for %d inputs: %w", len(resp.Data), len(texts), port.ErrEmptyResponse)
	}

	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, fmt.Errorf("embed batch: index %d out of range: %w", d.Index, port.ErrProviderUnavailable)
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}

// Complete sends a prompt and returns the fully accumulated streamed
// response. Malformed stream lines are skipped, not fatal.
func (p *OpenAIProvider) Complete(ctx context.Context, prompt string, params port.GenerationParams) (string, error) {
	stream, err := p.CompleteStream(ctx, prompt, params)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for chunk := range stream {
		sb.WriteString(chunk)
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("complete: %w", err)
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("complete: %w", port.ErrEmptyResponse)
	}
	return sb.String(), nil
}

// CompleteStream sends a prompt and streams the response chunk-by-chunk.
func (p *OpenAIProvider) CompleteStream(ctx context.Context, prompt string, params port.GenerationParams) (<-chan string, error) {
	payload := map[string]any{
		"model": p.chat.Model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"max_tokens":        params.MaxTokens,
		"temperature":       params.Temperature,
		"stream":            true,
		"top_p":             0.8,
		"frequency_penalty": 0.1,
		"presence_penalty":  0.1,
	}

	payloadBytes, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.chat.BaseURL+"/chat/completions", bytes.NewReader(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("complete stream: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.chat.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.chat.APIKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("complete stream: %w: %w", port.ErrProviderUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("chat API error (%d): %s: %w", resp.StatusCode, string(body), port.ErrProviderUnavailable)
	}

	ch := make(chan string, 64)
	go func() {
		defer close(ch)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			data := strings.TrimPrefix(line, "data: ")
			if data == "[DONE]" {
				return
			}

			var chunk struct {
				Choices []struct {
					Delta struct {
						Content string `json:"content"`
					} `json:"delta"`
				} `json:"choices"`
			}
			// Skip malformed lines instead of aborting the stream.
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				continue
			}
			if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
				select {
				case ch <- chunk.Choices[0].Delta.Content:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}

// prepareInput trims and truncates embedding input to the provider maximum.
func (p *OpenAIProvider) prepareInput(text string) string {
	clean := strings.TrimSpace(text)
	if len(clean) <= p.maxInputChars {
		return clean
	}
	runes := []rune(clean)
	if len(runes) > p.maxInputChars {
		runes = runes[:p.maxInputChars]
	}
	return string(runes)
}

// post is a helper for POST requests to an OpenAI-compatible endpoint.
func (p *OpenAIProvider) post(ctx context.Context, cfg EndpointConfig, path string, payload any) ([]byte, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.BaseURL+path, bytes.NewReader(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", port.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error (%d): %s: %w", resp.StatusCode, string(body), port.ErrProviderUnavailable)
	}

	return io.ReadAll(resp.Body)
}
