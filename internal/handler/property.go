package handler

import (
	"context"
	"net/http"
	"strconv"

	"core/internal/model"

	"github.com/gin-gonic/gin"
)

// PropertyStore fetches individual properties
type PropertyStore interface {
	GetPropertyByID(ctx context.Context, id int64) (*model.Property, error)
}

// PropertyHandler handles property detail HTTP requests
type PropertyHandler struct {
	store PropertyStore
}

// NewPropertyHandler creates a new property handler
func NewPropertyHandler(store PropertyStore) *PropertyHandler {
	return &PropertyHandler{store: store}
}

// Get handles GET /api/v1/properties/:id
func (h *PropertyHandler) Get(c *gin.Context) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid property ID"})
		return
	}

	property, err := h.store.GetPropertyByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get property: " + err.Error()})
		return
	}

	if property == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		return
	}

	c.JSON(http.StatusOK, property)
}
