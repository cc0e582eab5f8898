package handler

import (
	"context"
	"net/http"

	"core/internal/model"

	"github.com/gin-gonic/gin"
)

// FeedbackStore records user actions on suggested properties
type FeedbackStore interface {
	LogFeedback(ctx context.Context, sessionID string, propertyID int64, action string) error
}

// FeedbackHandler handles feedback-related HTTP requests
type FeedbackHandler struct {
	store FeedbackStore
}

// NewFeedbackHandler creates a new feedback handler
func NewFeedbackHandler(store FeedbackStore) *FeedbackHandler {
	return &FeedbackHandler{
		store: store,
	}
}

// Submit handles POST /api/v1/feedback
func (h *FeedbackHandler) Submit(c *gin.Context) {
	var req model.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	validActions := map[string]bool{
		"click":        true,
		"contact":      true,
		"view_details": true,
	}

	if !validActions[req.Action] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid action. Must be one of: click, contact, view_details"})
		return
	}

	err := h.store.LogFeedback(c.Request.Context(), req.SessionID, req.PropertyID, req.Action)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log feedback: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, model.FeedbackResponse{
		Success: true,
		Message: "Feedback logged successfully",
	})
}
