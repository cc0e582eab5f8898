package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"core/internal/model"
	"core/internal/service"

	"github.com/gin-gonic/gin"
)

// ChatStore is the persistence surface the chat handler needs
type ChatStore interface {
	SaveChatMessage(ctx context.Context, msg *model.ChatMessage) error
	GetRecentMessages(ctx context.Context, sessionID string, limit int) ([]model.ChatMessage, error)
	SaveViewingRequest(ctx context.Context, vr *model.ViewingRequest) error
}

// ChatHandler handles conversation HTTP requests. It owns the session
// registry: dialogue state lives here and is passed into the orchestrator
// explicitly on every turn.
type ChatHandler struct {
	orchestrator *service.Orchestrator
	store        ChatStore
	historyLimit int

	mu       sync.Mutex
	sessions map[string]*model.DialogueState
}

// NewChatHandler creates a new chat handler
func NewChatHandler(orchestrator *service.Orchestrator, store ChatStore, historyLimit int) *ChatHandler {
	return &ChatHandler{
		orchestrator: orchestrator,
		store:        store,
		historyLimit: historyLimit,
		sessions:     make(map[string]*model.DialogueState),
	}
}

// session returns the dialogue state for a session, creating it on first use
func (h *ChatHandler) session(sessionID string) *model.DialogueState {
	h.mu.Lock()
	defer h.mu.Unlock()
	state, ok := h.sessions[sessionID]
	if !ok {
		state = model.NewDialogueState()
		h.sessions[sessionID] = state
	}
	return state
}

// history loads recent transcript entries in chronological order
func (h *ChatHandler) history(ctx context.Context, sessionID string) []service.Turn {
	messages, err := h.store.GetRecentMessages(ctx, sessionID, h.historyLimit)
	if err != nil {
		log.Printf("Warning: failed to load chat history for %s: %v", sessionID, err)
		return nil
	}

	// Stored newest first; the completion API wants chronological order
	turns := make([]service.Turn, 0, len(messages))
	for i := len(messages) - 1; i >= 0; i-- {
		turns = append(turns, service.Turn{Role: messages[i].Role, Content: messages[i].Content})
	}
	return turns
}

// persist writes the turn transcript and any confirmed booking. Persistence
// failures are logged, never surfaced: the reply already exists.
func (h *ChatHandler) persist(ctx context.Context, sessionID, userText string, result *service.TurnResult) {
	if err := h.store.SaveChatMessage(ctx, &model.ChatMessage{SessionID: sessionID, Role: "user", Content: userText}); err != nil {
		log.Printf("Warning: failed to persist user message: %v", err)
	}
	if err := h.store.SaveChatMessage(ctx, &model.ChatMessage{SessionID: sessionID, Role: "assistant", Content: result.Response}); err != nil {
		log.Printf("Warning: failed to persist assistant message: %v", err)
	}
	if result.SideEffect != nil && result.SideEffect.Viewing != nil {
		if err := h.store.SaveViewingRequest(ctx, result.SideEffect.Viewing); err != nil {
			log.Printf("Warning: failed to persist viewing request %s: %v", result.SideEffect.Viewing.ID, err)
		}
	}
}

// Chat handles POST /api/v1/chat
func (h *ChatHandler) Chat(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	start := time.Now()
	ctx := c.Request.Context()
	state := h.session(req.SessionID)
	history := h.history(ctx, req.SessionID)

	result := h.orchestrator.Handle(ctx, req.Message, state, history)
	h.persist(ctx, req.SessionID, req.Message, result)

	c.JSON(http.StatusOK, model.ChatResponse{
		Response:   result.Response,
		Step:       state.CurrentStep,
		Visual:     result.Visual,
		SideEffect: result.SideEffect,
		Took:       time.Since(start).Milliseconds(),
	})
}

// ChatStream handles POST /api/v1/chat/stream - SSE streaming chat
func (h *ChatHandler) ChatStream(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	// Set SSE headers
	c.Header("Content-Type", "text/event-stream; charset=utf-8")
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Streaming not supported"})
		return
	}

	start := time.Now()
	ctx := c.Request.Context()
	state := h.session(req.SessionID)
	history := h.history(ctx, req.SessionID)

	sendSSE(c, "start", map[string]any{"session_id": req.SessionID})
	flusher.Flush()

	streamed := false
	result := h.orchestrator.HandleStream(ctx, req.Message, state, history, func(content string) error {
		streamed = true
		sendSSE(c, "content", map[string]any{"content": content})
		flusher.Flush()
		return nil
	})
	h.persist(ctx, req.SessionID, req.Message, result)

	// Degraded and template responses never hit the stream callback, so
	// deliver them as one content event before the final frame.
	if !streamed && result.Response != "" {
		sendSSE(c, "content", map[string]any{"content": result.Response})
		flusher.Flush()
	}

	sendSSE(c, "result", model.ChatResponse{
		Response:   result.Response,
		Step:       state.CurrentStep,
		Visual:     result.Visual,
		SideEffect: result.SideEffect,
		Took:       time.Since(start).Milliseconds(),
	})
	flusher.Flush()

	sendSSE(c, "done", nil)
	flusher.Flush()
}

// sendSSE sends a Server-Sent Event
func sendSSE(c *gin.Context, event string, data any) {
	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			fmt.Fprintf(c.Writer, "event: error\ndata: {\"error\": \"JSON marshal failed\"}\n\n")
			return
		}
		fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event, string(jsonData))
	} else {
		fmt.Fprintf(c.Writer, "event: %s\ndata: {}\n\n", event)
	}
}
