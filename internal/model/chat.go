package model

import "time"

// ChatRequest represents one turn submitted by the calling UI
type ChatRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Message   string `json:"message" binding:"required"`
}

// ChatResponse represents the orchestrator's reply for one turn
type ChatResponse struct {
	Response   string      `json:"response"`
	Step       Step        `json:"step"`
	Visual     *Visual     `json:"visual,omitempty"`
	SideEffect *SideEffect `json:"side_effect,omitempty"`
	Took       int64       `json:"took_ms"`
}

// VisualType is the closed set of presentation hints
type VisualType string

const (
	VisualPropertyCards VisualType = "property_cards"
	VisualStats         VisualType = "stats"
	VisualAgentCards    VisualType = "agent_cards"
	VisualInfoCard      VisualType = "info_card"
	VisualTip           VisualType = "tip"
)

// Visual is a tagged rendering hint for the presentation layer.
// Exactly one payload field is set, matching Type.
type Visual struct {
	Type       VisualType     `json:"type"`
	Properties []Property     `json:"properties,omitempty"`
	Stats      *PropertyStats `json:"stats,omitempty"`
	Agents     []Agent        `json:"agents,omitempty"`
	Info       *InfoCard      `json:"info,omitempty"`
	Tip        *string        `json:"tip,omitempty"`
}

// InfoCard is a titled block of informational text
type InfoCard struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Side effect types signaled to the caller
const (
	SideEffectNotifyAgent = "notify_agent"
)

// SideEffect describes an action the turn triggered outside the dialogue.
// Delivered reports whether emission to the downstream collaborator worked;
// a false value still means the dialogue itself completed.
type SideEffect struct {
	Type      string          `json:"type"`
	Viewing   *ViewingRequest `json:"viewing,omitempty"`
	Delivered bool            `json:"delivered"`
}

// ChatMessage is one persisted transcript entry
type ChatMessage struct {
	ID        string    `json:"id" db:"id"`
	SessionID string    `json:"session_id" db:"session_id"`
	Role      string    `json:"role" db:"role"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// EmbeddingBatchRequest represents a batch embedding update request
type EmbeddingBatchRequest struct {
	Embeddings []EmbeddingItem `json:"embeddings" binding:"required"`
}

// EmbeddingItem represents a single embedding with property info
type EmbeddingItem struct {
	PropertyID int64     `json:"property_id" binding:"required"`
	Embedding  []float32 `json:"embedding" binding:"required"`
	Text       string    `json:"text,omitempty"`
}

// EmbeddingBatchResponse represents the response for batch embedding update
type EmbeddingBatchResponse struct {
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

// FeedbackRequest records a user action on a suggested property
type FeedbackRequest struct {
	SessionID  string `json:"session_id" binding:"required"`
	PropertyID int64  `json:"property_id" binding:"required"`
	Action     string `json:"action" binding:"required"` // click, contact, view_details
}

// FeedbackResponse represents feedback response
type FeedbackResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
