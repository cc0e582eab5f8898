package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"core/internal/config"
	"core/internal/model"
	"core/internal/repository"
	"core/internal/service"

	"github.com/gin-gonic/gin"
)

type stubProvider struct {
	properties []model.Property
}

func (s *stubProvider) GetAllProperties(ctx context.Context) ([]model.Property, error) {
	return s.properties, nil
}

func (s *stubProvider) GetPropertiesByLocation(ctx context.Context, location string) ([]model.Property, error) {
	var out []model.Property
	for _, p := range s.properties {
		if p.Location == location {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubProvider) GetPropertiesByPriceRange(ctx context.Context, min, max float64) ([]model.Property, error) {
	return s.properties, nil
}

func (s *stubProvider) GetPropertiesByBedrooms(ctx context.Context, bedrooms int) ([]model.Property, error) {
	return s.properties, nil
}

func (s *stubProvider) GetPropertiesByStatus(ctx context.Context, status string) ([]model.Property, error) {
	return s.properties, nil
}

func (s *stubProvider) GetAllAgents(ctx context.Context) ([]model.Agent, error) { return nil, nil }
func (s *stubProvider) GetAllTasks(ctx context.Context) ([]model.Task, error)   { return nil, nil }

func (s *stubProvider) GetPropertyStats(ctx context.Context) (*model.PropertyStats, error) {
	return &model.PropertyStats{Total: len(s.properties)}, nil
}

func (s *stubProvider) GetAgentStats(ctx context.Context) (*model.AgentStats, error) {
	return &model.AgentStats{}, nil
}

func (s *stubProvider) GetTaskStats(ctx context.Context) (*model.TaskStats, error) {
	return &model.TaskStats{}, nil
}

func (s *stubProvider) GetPropertyAnalytics(ctx context.Context) (*model.PropertyAnalytics, error) {
	return &model.PropertyAnalytics{}, nil
}

func (s *stubProvider) GetAvailabilityReport(ctx context.Context) (*model.AvailabilityReport, error) {
	return &model.AvailabilityReport{GeneratedAt: time.Now()}, nil
}

var _ repository.Provider = (*stubProvider)(nil)

// stubCompleter always fails so responses come from local composition,
// keeping handler tests free of HTTP fixtures.
type stubCompleter struct{}

func (s *stubCompleter) Complete(ctx context.Context, req service.CompletionRequest) (string, error) {
	return "", &service.APIError{Message: "disabled in tests"}
}

func (s *stubCompleter) CompleteStream(ctx context.Context, req service.CompletionRequest, callback func(content string) error) (string, error) {
	return "", &service.APIError{Message: "disabled in tests"}
}

func (s *stubCompleter) IsEnabled() bool { return false }

type memoryStore struct {
	messages []model.ChatMessage
	viewings []*model.ViewingRequest
}

func (m *memoryStore) SaveChatMessage(ctx context.Context, msg *model.ChatMessage) error {
	m.messages = append(m.messages, *msg)
	return nil
}

func (m *memoryStore) GetRecentMessages(ctx context.Context, sessionID string, limit int) ([]model.ChatMessage, error) {
	var out []model.ChatMessage
	for i := len(m.messages) - 1; i >= 0 && len(out) < limit; i-- {
		if m.messages[i].SessionID == sessionID {
			out = append(out, m.messages[i])
		}
	}
	return out, nil
}

func (m *memoryStore) SaveViewingRequest(ctx context.Context, vr *model.ViewingRequest) error {
	m.viewings = append(m.viewings, vr)
	return nil
}

func newTestRouter(store *memoryStore) *gin.Engine {
	gin.SetMode(gin.TestMode)

	houseType := "house"
	provider := &stubProvider{properties: []model.Property{
		{ID: 1, Title: "House in Karen", Price: 30_000_000, Location: "Karen", Type: &houseType, Status: model.StatusAvailable},
	}}
	chatCfg := config.ChatConfig{HistoryLimit: 6, MatchLimit: 5, RecommendLimit: 8, ComplexMinLength: 50}
	company := config.CompanyConfig{Name: "Amani Homes", Phone: "+254 712 345 678", Email: "info@amanihomes.co.ke"}

	orchestrator := service.NewOrchestrator(
		service.NewExtractor(),
		service.NewMatcher(provider, chatCfg.MatchLimit, chatCfg.RecommendLimit),
		service.NewKnowledgeBase(),
		service.NewDialogueMachine(),
		&stubCompleter{},
		provider,
		nil,
		company,
		chatCfg,
	)

	chatHandler := NewChatHandler(orchestrator, store, chatCfg.HistoryLimit)

	router := gin.New()
	router.POST("/api/v1/chat", chatHandler.Chat)
	return router
}

func postChat(t *testing.T, router *gin.Engine, sessionID, message string) model.ChatResponse {
	t.Helper()

	body, _ := json.Marshal(model.ChatRequest{SessionID: sessionID, Message: message})
	req := httptest.NewRequest("POST", "/api/v1/chat", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp model.ChatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	return resp
}

func TestChatHandler_RejectsInvalidRequest(t *testing.T) {
	router := newTestRouter(&memoryStore{})

	req := httptest.NewRequest("POST", "/api/v1/chat", bytes.NewReader([]byte(`{"session_id":"s1"}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestChatHandler_PersistsTranscript(t *testing.T) {
	store := &memoryStore{}
	router := newTestRouter(store)

	resp := postChat(t, router, "s1", "Hello!")

	if resp.Step != model.StepGreeting {
		t.Errorf("step = %s, want %s", resp.Step, model.StepGreeting)
	}
	if len(store.messages) != 2 {
		t.Fatalf("persisted %d messages, want user+assistant", len(store.messages))
	}
	if store.messages[0].Role != "user" || store.messages[1].Role != "assistant" {
		t.Errorf("transcript roles wrong: %+v", store.messages)
	}
}

func TestChatHandler_SessionStateSurvivesTurns(t *testing.T) {
	store := &memoryStore{}
	router := newTestRouter(store)

	postChat(t, router, "s1", "house in Karen")
	resp := postChat(t, router, "s1", "I'd like to book a viewing")

	if resp.Step != model.StepCollectingDetails {
		t.Fatalf("step = %s, want %s", resp.Step, model.StepCollectingDetails)
	}

	// A second session is unaffected by the first one's flow
	other := postChat(t, router, "s2", "Hello!")
	if other.Step != model.StepGreeting {
		t.Errorf("second session step = %s, want %s", other.Step, model.StepGreeting)
	}
}

func TestChatHandler_BookingPersistsViewingRequest(t *testing.T) {
	store := &memoryStore{}
	router := newTestRouter(store)

	postChat(t, router, "s1", "house in Karen")
	postChat(t, router, "s1", "I'd like to book a viewing")
	postChat(t, router, "s1", "My name is Jane Wanjiku")
	postChat(t, router, "s1", "0712345678")
	postChat(t, router, "s1", "saturday")
	postChat(t, router, "s1", "10am")
	resp := postChat(t, router, "s1", "yes")

	if resp.SideEffect == nil || resp.SideEffect.Type != model.SideEffectNotifyAgent {
		t.Fatalf("expected notify_agent side effect, got %+v", resp.SideEffect)
	}
	if len(store.viewings) != 1 {
		t.Fatalf("persisted %d viewing requests, want 1", len(store.viewings))
	}
	if store.viewings[0].ClientName != "Jane Wanjiku" {
		t.Errorf("viewing client = %q", store.viewings[0].ClientName)
	}
}
