package service

import (
	"encoding/json"
	"log"
	"strings"
)

// StreamChunk represents a generic streaming response chunk
type StreamChunk struct {
	Content         string
	ThinkingContent string
	Role            string
	Done            bool
}

// StreamChunkParser is the interface for provider-specific chunk parsing
type StreamChunkParser interface {
	ParseChunk(data []byte) (*StreamChunk, error)
}

// detectChunkParser picks a parser based on the API base URL
func detectChunkParser(baseURL string) StreamChunkParser {
	if strings.Contains(baseURL, "integrate.api.nvidia.com") {
		log.Printf("🔧 Detected NVIDIA API provider (supports reasoning content)")
		return &nvidiaChunkParser{}
	}
	if strings.Contains(baseURL, "api.openai.com") {
		log.Printf("🔧 Detected OpenAI API provider")
		return &openAIChunkParser{}
	}
	log.Printf("🔧 Using standard OpenAI chunk format for: %s", baseURL)
	return &openAIChunkParser{}
}

// openAIChunkParser parses standard OpenAI-format streaming chunks
type openAIChunkParser struct{}

func (p *openAIChunkParser) ParseChunk(data []byte) (*StreamChunk, error) {
	var rawChunk struct {
		Choices []struct {
			Delta struct {
				Role    string `json:"role,omitempty"`
				Content string `json:"content,omitempty"`
			} `json:"delta"`
			FinishReason string `json:"finish_reason,omitempty"`
		} `json:"choices"`
	}

	if err := json.Unmarshal(data, &rawChunk); err != nil {
		return nil, err
	}

	chunk := &StreamChunk{}
	if len(rawChunk.Choices) > 0 {
		delta := rawChunk.Choices[0].Delta
		chunk.Role = delta.Role
		chunk.Content = delta.Content
		chunk.Done = rawChunk.Choices[0].FinishReason != ""
	}
	return chunk, nil
}

// nvidiaChunkParser parses NVIDIA/DeepSeek chunks, which carry an extra
// reasoning_content delta alongside the regular content.
type nvidiaChunkParser struct{}

func (p *nvidiaChunkParser) ParseChunk(data []byte) (*StreamChunk, error) {
	var rawChunk struct {
		Choices []struct {
			Delta struct {
				Role             string  `json:"role,omitempty"`
				Content          string  `json:"content,omitempty"`
				ReasoningContent *string `json:"reasoning_content,omitempty"`
			} `json:"delta"`
			FinishReason string `json:"finish_reason,omitempty"`
		} `json:"choices"`
	}

	if err := json.Unmarshal(data, &rawChunk); err != nil {
		return nil, err
	}

	chunk := &StreamChunk{}
	if len(rawChunk.Choices) > 0 {
		delta := rawChunk.Choices[0].Delta
		chunk.Role = delta.Role
		chunk.Content = delta.Content
		if delta.ReasoningContent != nil {
			chunk.ThinkingContent = *delta.ReasoningContent
		}
		chunk.Done = rawChunk.Choices[0].FinishReason != ""
	}
	return chunk, nil
}
