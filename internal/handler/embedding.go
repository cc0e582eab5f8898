package handler

import (
	"context"
	"fmt"
	"net/http"

	"core/internal/model"

	"github.com/gin-gonic/gin"
)

const embeddingDimension = 1536

// EmbeddingStore persists property embedding vectors
type EmbeddingStore interface {
	BatchUpdateEmbeddings(ctx context.Context, items []model.EmbeddingItem) (int, []string)
}

// Embedder computes embedding vectors for raw text
type Embedder interface {
	CreateEmbeddings(ctx context.Context, model string, texts []string) ([][]float32, error)
}

// EmbeddingHandler handles embedding-related HTTP requests
type EmbeddingHandler struct {
	store          EmbeddingStore
	embedder       Embedder
	embeddingModel string
}

// NewEmbeddingHandler creates a new embedding handler
func NewEmbeddingHandler(store EmbeddingStore, embedder Embedder, embeddingModel string) *EmbeddingHandler {
	return &EmbeddingHandler{
		store:          store,
		embedder:       embedder,
		embeddingModel: embeddingModel,
	}
}

// BatchUpdate handles POST /api/v1/embeddings/batch. Items may carry a
// precomputed vector or just text; text-only items are embedded here.
func (h *EmbeddingHandler) BatchUpdate(c *gin.Context) {
	var req model.EmbeddingBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if len(req.Embeddings) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No embeddings provided"})
		return
	}

	ctx := c.Request.Context()

	// Embed text-only items in a single API call
	var pendingTexts []string
	var pendingIdx []int
	for i, item := range req.Embeddings {
		if len(item.Embedding) == 0 {
			if item.Text == "" {
				c.JSON(http.StatusBadRequest, gin.H{
					"error": fmt.Sprintf("Item at index %d has neither embedding nor text", i),
				})
				return
			}
			pendingTexts = append(pendingTexts, item.Text)
			pendingIdx = append(pendingIdx, i)
		} else if len(item.Embedding) != embeddingDimension {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": fmt.Sprintf("Invalid embedding dimension at index %d, expected %d", i, embeddingDimension),
			})
			return
		}
	}

	if len(pendingTexts) > 0 {
		vectors, err := h.embedder.CreateEmbeddings(ctx, h.embeddingModel, pendingTexts)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Embedding computation failed: " + err.Error()})
			return
		}
		if len(vectors) != len(pendingTexts) {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Embedding API returned wrong vector count"})
			return
		}
		for j, idx := range pendingIdx {
			req.Embeddings[idx].Embedding = vectors[j]
		}
	}

	success, errors := h.store.BatchUpdateEmbeddings(ctx, req.Embeddings)

	response := model.EmbeddingBatchResponse{
		Success: success,
		Failed:  len(req.Embeddings) - success,
		Errors:  errors,
	}

	if len(errors) > 0 {
		c.JSON(http.StatusPartialContent, response)
	} else {
		c.JSON(http.StatusOK, response)
	}
}
