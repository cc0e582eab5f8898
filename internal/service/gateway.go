package service

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"core/internal/config"
	"core/internal/utils"
)

// Turn is one prior exchange entry forwarded to the completion API
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest carries one gateway call: the current message, the system
// prompt, an optional domain-context block, and prior turns.
type CompletionRequest struct {
	Message      string
	SystemPrompt string
	Context      string
	History      []Turn
}

// Completer is the gateway surface the orchestrator depends on
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	CompleteStream(ctx context.Context, req CompletionRequest, callback func(content string) error) (string, error)
	IsEnabled() bool
}

// historyLimit caps the prior turns forwarded to the remote call to bound
// prompt size.
const historyLimit = 6

// Gateway wraps the OpenAI-compatible completion service. It performs no
// retries: a failed or malformed response surfaces as a typed error and the
// calling handler degrades.
type Gateway struct {
	config      *config.LLMConfig
	httpClient  *http.Client
	chunkParser StreamChunkParser
}

// NewGateway creates a new gateway with auto-detection of the API provider
func NewGateway(cfg *config.LLMConfig) *Gateway {
	return &Gateway{
		config:      cfg,
		chunkParser: detectChunkParser(cfg.APIBase),
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
	}
}

// IsEnabled returns whether the gateway is configured and ready
func (g *Gateway) IsEnabled() bool {
	return g.config.Enabled
}

// chatCompletionRequest represents a chat completion request
type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int         `json:"index"`
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Complete performs one completion call and validates the returned text
func (g *Gateway) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if !g.config.Enabled {
		return "", &APIError{Message: "completion API is not enabled (missing API key)"}
	}

	body := chatCompletionRequest{
		Model:       g.config.ChatModel,
		Messages:    g.buildMessages(req),
		Temperature: g.config.Temperature,
		MaxTokens:   g.config.MaxTokens,
	}

	resp, err := g.post(ctx, body)
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", &APIError{Message: "no choices in response"}
	}

	return g.validate(resp.Choices[0].Message.Content)
}

// CompleteStream performs a streaming completion call, invoking the callback
// for each content delta. The accumulated text goes through the same sanity
// validation as Complete before being returned.
func (g *Gateway) CompleteStream(ctx context.Context, req CompletionRequest, callback func(content string) error) (string, error) {
	if !g.config.Enabled {
		return "", &APIError{Message: "completion API is not enabled (missing API key)"}
	}

	body := chatCompletionRequest{
		Model:       g.config.ChatModel,
		Messages:    g.buildMessages(req),
		Temperature: g.config.Temperature,
		MaxTokens:   g.config.MaxTokens,
		Stream:      true,
	}

	reqBody, err := json.Marshal(body)
	if err != nil {
		return "", &APIError{Message: fmt.Sprintf("failed to marshal request: %v", err)}
	}

	url := fmt.Sprintf("%s/chat/completions", g.config.APIBase)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(reqBody))
	if err != nil {
		return "", &APIError{Message: fmt.Sprintf("failed to create request: %v", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", g.config.APIKey))
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return "", &APIError{Message: fmt.Sprintf("failed to send request: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", &APIError{Status: resp.StatusCode, Message: string(respBody)}
	}

	var full strings.Builder
	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				break
			}
			return "", &APIError{Message: fmt.Sprintf("failed to read stream: %v", err)}
		}

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		// SSE format: "data: {...}"
		if !bytes.HasPrefix(line, []byte("data: ")) {
			continue
		}
		data := bytes.TrimPrefix(line, []byte("data: "))
		if bytes.Equal(data, []byte("[DONE]")) {
			break
		}

		chunk, err := g.chunkParser.ParseChunk(data)
		if err != nil {
			log.Printf("Warning: Failed to parse stream chunk: %v", err)
			continue
		}

		if chunk.Content != "" {
			full.WriteString(chunk.Content)
			if callback != nil {
				if err := callback(chunk.Content); err != nil {
					return "", &APIError{Message: fmt.Sprintf("callback error: %v", err)}
				}
			}
		}
	}

	return g.validate(full.String())
}

// EmbeddingRequest represents an embedding request
type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Model string `json:"model"`
	Usage struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

// CreateEmbeddings creates embeddings for the given texts
func (g *Gateway) CreateEmbeddings(ctx context.Context, model string, texts []string) ([][]float32, error) {
	if !g.config.Enabled {
		return nil, &APIError{Message: "completion API is not enabled (missing API key)"}
	}
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	reqBody, err := json.Marshal(embeddingRequest{Model: model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/embeddings", g.config.APIBase)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", g.config.APIKey))

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Message: string(respBody)}
	}

	var result embeddingResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	embeddings := make([][]float32, len(texts))
	for _, item := range result.Data {
		if item.Index < len(embeddings) {
			embeddings[item.Index] = item.Embedding
		}
	}
	return embeddings, nil
}

// buildMessages assembles the wire messages: system prompt plus context block,
// at most the last 6 prior turns, then the current user message.
func (g *Gateway) buildMessages(req CompletionRequest) []chatMessage {
	messages := make([]chatMessage, 0, len(req.History)+2)

	system := req.SystemPrompt
	if req.Context != "" {
		system += "\n\n" + req.Context
	}
	if system != "" {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}

	history := req.History
	if len(history) > historyLimit {
		history = history[len(history)-historyLimit:]
	}
	for _, turn := range history {
		if turn.Role != "user" && turn.Role != "assistant" {
			continue
		}
		messages = append(messages, chatMessage{Role: turn.Role, Content: turn.Content})
	}

	messages = append(messages, chatMessage{Role: "user", Content: req.Message})
	return messages
}

func (g *Gateway) post(ctx context.Context, body chatCompletionRequest) (*chatCompletionResponse, error) {
	reqBody, err := json.Marshal(body)
	if err != nil {
		return nil, &APIError{Message: fmt.Sprintf("failed to marshal request: %v", err)}
	}

	url := fmt.Sprintf("%s/chat/completions", g.config.APIBase)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, &APIError{Message: fmt.Sprintf("failed to create request: %v", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", g.config.APIKey))

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, &APIError{Message: fmt.Sprintf("failed to send request: %v", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Message: fmt.Sprintf("failed to read response: %v", err)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Message: string(respBody)}
	}

	var result chatCompletionResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, &APIError{Message: fmt.Sprintf("failed to unmarshal response: %v", err)}
	}
	return &result, nil
}

// validate cleans the returned text and rejects responses that come back in
// an unexpected script. The remote service has been observed to occasionally
// do that; such a response is treated the same as a failed call.
func (g *Gateway) validate(raw string) (string, error) {
	text := utils.CleanAIText(raw)
	if text == "" {
		return "", &MalformedResponseError{Reason: "empty response"}
	}
	if utils.HasExcessiveNonEnglish(text) {
		return "", &MalformedResponseError{
			Reason: "excessive non-English content",
			Sample: utils.TruncateString(text, 80),
		}
	}
	return text, nil
}
