package service

import (
	"context"
	"strings"
	"testing"

	"core/internal/config"
	"core/internal/model"
)

// fakeCompleter returns a canned reply or a canned failure
type fakeCompleter struct {
	reply string
	err   error
	calls []CompletionRequest
}

func (f *fakeCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	f.calls = append(f.calls, req)
	return f.reply, f.err
}

func (f *fakeCompleter) CompleteStream(ctx context.Context, req CompletionRequest, callback func(content string) error) (string, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return "", f.err
	}
	if err := callback(f.reply); err != nil {
		return "", err
	}
	return f.reply, nil
}

func (f *fakeCompleter) IsEnabled() bool { return true }

// fakeNotifier records deliveries
type fakeNotifier struct {
	notified []*model.ViewingRequest
	err      error
}

func (f *fakeNotifier) NotifyAgent(ctx context.Context, vr *model.ViewingRequest) error {
	if f.err != nil {
		return f.err
	}
	f.notified = append(f.notified, vr)
	return nil
}

func testChatConfig() config.ChatConfig {
	return config.ChatConfig{
		HistoryLimit:     6,
		MatchLimit:       5,
		RecommendLimit:   8,
		ComplexMinLength: 50,
	}
}

func testCompanyConfig() config.CompanyConfig {
	return config.CompanyConfig{
		Name:  "Amani Homes",
		Phone: "+254 712 345 678",
		Email: "info@amanihomes.co.ke",
	}
}

func newTestOrchestrator(provider *fakeProvider, completer Completer, notifier Notifier) *Orchestrator {
	cfg := testChatConfig()
	return NewOrchestrator(
		NewExtractor(),
		NewMatcher(provider, cfg.MatchLimit, cfg.RecommendLimit),
		NewKnowledgeBase(),
		NewDialogueMachine(),
		completer,
		provider,
		notifier,
		testCompanyConfig(),
		cfg,
	)
}

func TestOrchestrator_Greeting(t *testing.T) {
	o := newTestOrchestrator(&fakeProvider{}, &fakeCompleter{}, nil)
	state := model.NewDialogueState()

	result := o.Handle(context.Background(), "Hello!", state, nil)

	if state.CurrentStep != model.StepGreeting {
		t.Errorf("step = %s, want %s", state.CurrentStep, model.StepGreeting)
	}
	if !strings.Contains(result.Response, "Amani Homes") {
		t.Errorf("greeting should carry the company name: %q", result.Response)
	}
	if result.Visual == nil || result.Visual.Type != model.VisualTip {
		t.Errorf("greeting should carry a tip visual, got %+v", result.Visual)
	}
}

func TestOrchestrator_PropertyInquiry(t *testing.T) {
	provider := &fakeProvider{properties: []model.Property{
		karenVilla(1, 30_000_000, 3),
		{ID: 2, Title: "Flat in Westlands", Price: 9_000_000, Location: "Westlands", Bedrooms: intPtr(2), Type: typePtr("apartment"), Status: model.StatusAvailable},
	}}
	completer := &fakeCompleter{reply: "Here are some great options in Karen."}
	o := newTestOrchestrator(provider, completer, nil)
	state := model.NewDialogueState()

	result := o.Handle(context.Background(), "3 bedroom house in Karen", state, nil)

	if state.CurrentStep != model.StepPropertyInquiry {
		t.Errorf("step = %s, want %s", state.CurrentStep, model.StepPropertyInquiry)
	}
	if result.Visual == nil || result.Visual.Type != model.VisualPropertyCards {
		t.Fatalf("expected property cards, got %+v", result.Visual)
	}
	if len(result.Visual.Properties) != 1 || result.Visual.Properties[0].ID != 1 {
		t.Errorf("cards should hold the Karen match, got %+v", result.Visual.Properties)
	}
	if state.PropertyContext == nil || state.PropertyContext.ID != 1 {
		t.Errorf("property context not set: %+v", state.PropertyContext)
	}
	if state.UserPreferences == nil || state.UserPreferences.Location == nil || *state.UserPreferences.Location != "Karen" {
		t.Errorf("preferences not remembered: %+v", state.UserPreferences)
	}

	// The gateway saw the matched property as context
	if len(completer.calls) != 1 || !strings.Contains(completer.calls[0].Context, "House in Karen") {
		t.Errorf("completion context should list the match")
	}
}

func TestOrchestrator_PropertyInquiry_ZeroMatchesRecommends(t *testing.T) {
	provider := &fakeProvider{properties: []model.Property{karenVilla(1, 30_000_000, 3)}}
	completer := &fakeCompleter{err: &APIError{Message: "down"}}
	o := newTestOrchestrator(provider, completer, nil)
	state := model.NewDialogueState()

	result := o.Handle(context.Background(), "house in Runda", state, nil)

	if result.Visual == nil || len(result.Visual.Properties) == 0 {
		t.Fatal("recommendations should still produce cards")
	}
	if !strings.Contains(result.Response, "exact match") {
		t.Errorf("recommendations must be labeled as such: %q", result.Response)
	}
	if state.PropertyContext != nil {
		t.Error("recommendations must not set the property context")
	}
}

func TestOrchestrator_PropertyOverrideBeatsComplexLength(t *testing.T) {
	provider := &fakeProvider{properties: []model.Property{karenVilla(1, 30_000_000, 4)}}
	completer := &fakeCompleter{reply: "ok"}
	o := newTestOrchestrator(provider, completer, nil)
	state := model.NewDialogueState()

	long := "I'm looking for a spacious family house in Karen with a big garden and staff quarters"
	o.Handle(context.Background(), long, state, nil)

	if state.CurrentStep != model.StepPropertyInquiry {
		t.Errorf("long property message routed to %s, want %s", state.CurrentStep, model.StepPropertyInquiry)
	}
}

func TestOrchestrator_ComplexQueryDegradesToStats(t *testing.T) {
	provider := &fakeProvider{
		properties: []model.Property{},
		stats:      &model.PropertyStats{Total: 42, Available: 30, AveragePrice: 21_000_000},
	}
	completer := &fakeCompleter{err: &APIError{Message: "down"}}
	o := newTestOrchestrator(provider, completer, nil)
	state := model.NewDialogueState()

	result := o.Handle(context.Background(), "Please give me a full breakdown of everything you currently have on offer", state, nil)

	if state.CurrentStep != model.StepGeneralChat {
		t.Errorf("step = %s, want %s", state.CurrentStep, model.StepGeneralChat)
	}
	if result.Visual == nil || result.Visual.Type != model.VisualStats {
		t.Fatalf("degraded complex reply should carry stats, got %+v", result.Visual)
	}
	if result.Response == "" {
		t.Error("degraded reply must not be empty")
	}
}

func TestOrchestrator_ShortKeywordStillComplex(t *testing.T) {
	provider := &fakeProvider{stats: &model.PropertyStats{Total: 10}}
	completer := &fakeCompleter{reply: "analysis"}
	o := newTestOrchestrator(provider, completer, nil)
	state := model.NewDialogueState()

	o.Handle(context.Background(), "why invest now?", state, nil)

	if len(completer.calls) != 1 {
		t.Fatal("expected one completion call")
	}
	if !strings.Contains(completer.calls[0].Context, "Market notes") {
		t.Errorf("keyword-triggered complex query should get full context")
	}
}

func TestOrchestrator_ComplexLengthBoundary(t *testing.T) {
	short := "tell me a bit and a little more regarding all this"
	if len(short) != 50 {
		t.Fatalf("fixture length = %d, want 50", len(short))
	}

	run := func(message string) *fakeCompleter {
		completer := &fakeCompleter{reply: "ok"}
		o := newTestOrchestrator(&fakeProvider{stats: &model.PropertyStats{Total: 10}}, completer, nil)
		o.Handle(context.Background(), message, model.NewDialogueState(), nil)
		return completer
	}

	for _, call := range run(short).calls {
		if strings.Contains(call.Context, "Market notes") {
			t.Error("a 50-character message must not take the full-context path")
		}
	}

	long := run(short + "!")
	if len(long.calls) != 1 || !strings.Contains(long.calls[0].Context, "Market notes") {
		t.Error("a 51-character message should take the full-context path")
	}
}

func TestOrchestrator_MarketInquiryDegradesLocally(t *testing.T) {
	provider := &fakeProvider{stats: &model.PropertyStats{Total: 42, Available: 30, AveragePrice: 21_000_000}}
	completer := &fakeCompleter{err: &APIError{Message: "down"}}
	o := newTestOrchestrator(provider, completer, nil)
	state := model.NewDialogueState()

	result := o.Handle(context.Background(), "any stats?", state, nil)

	if result.Visual == nil || result.Visual.Type != model.VisualStats {
		t.Fatalf("expected a stats visual, got %+v", result.Visual)
	}
	if !strings.Contains(result.Response, "42") {
		t.Errorf("degraded market reply should be composed from live stats: %q", result.Response)
	}
}

func TestOrchestrator_ContactFallbackWhenEverythingFails(t *testing.T) {
	provider := &fakeProvider{err: context.DeadlineExceeded}
	completer := &fakeCompleter{err: &APIError{Message: "down"}}
	o := newTestOrchestrator(provider, completer, nil)
	state := model.NewDialogueState()

	result := o.Handle(context.Background(), "stats please?", state, nil)

	if !strings.Contains(result.Response, "+254 712 345 678") {
		t.Errorf("last-resort reply should carry the contact details: %q", result.Response)
	}
}

func TestOrchestrator_ViewingFlowEndToEnd(t *testing.T) {
	provider := &fakeProvider{properties: []model.Property{karenVilla(1, 30_000_000, 4)}}
	completer := &fakeCompleter{err: &APIError{Message: "down"}}
	notifier := &fakeNotifier{}
	o := newTestOrchestrator(provider, completer, notifier)
	state := model.NewDialogueState()
	ctx := context.Background()

	// Find a property, then start the booking
	o.Handle(ctx, "house in Karen", state, nil)
	o.Handle(ctx, "I'd like to book a viewing", state, nil)
	if state.CurrentStep != model.StepCollectingDetails {
		t.Fatalf("step = %s, want %s", state.CurrentStep, model.StepCollectingDetails)
	}

	// Slot answers carry no routable keywords but must continue the flow
	o.Handle(ctx, "My name is Jane Wanjiku", state, nil)
	o.Handle(ctx, "0712345678", state, nil)
	o.Handle(ctx, "saturday", state, nil)
	result := o.Handle(ctx, "10am", state, nil)

	if state.CurrentStep != model.StepConfirmingBooking {
		t.Fatalf("step = %s, want %s", state.CurrentStep, model.StepConfirmingBooking)
	}
	if !strings.Contains(result.Response, "Jane Wanjiku") || !strings.Contains(result.Response, "saturday") {
		t.Errorf("summary should repeat the collected details: %q", result.Response)
	}

	// Confirm: booking emitted exactly once, side effect delivered
	result = o.Handle(ctx, "yes", state, nil)
	if result.SideEffect == nil || result.SideEffect.Type != model.SideEffectNotifyAgent {
		t.Fatalf("expected a notify_agent side effect, got %+v", result.SideEffect)
	}
	if !result.SideEffect.Delivered {
		t.Error("side effect should be marked delivered")
	}
	if len(notifier.notified) != 1 {
		t.Fatalf("notifier called %d times, want 1", len(notifier.notified))
	}
	if notifier.notified[0].PropertyID != 1 {
		t.Errorf("booking should reference the discussed property, got %d", notifier.notified[0].PropertyID)
	}
}

func TestOrchestrator_NotifierFailureStillCompletesBooking(t *testing.T) {
	provider := &fakeProvider{}
	notifier := &fakeNotifier{err: context.DeadlineExceeded}
	o := newTestOrchestrator(provider, &fakeCompleter{}, notifier)

	state := model.NewDialogueState()
	state.CurrentStep = model.StepConfirmingBooking
	state.ViewingDetails = &model.ViewingDetails{Name: "Jane", Contact: "0712345678", Date: "saturday", Time: "10am"}

	result := o.Handle(context.Background(), "yes", state, nil)

	if result.SideEffect == nil {
		t.Fatal("booking side effect missing")
	}
	if result.SideEffect.Delivered {
		t.Error("failed delivery must be reported as not delivered")
	}
	if state.CurrentStep != model.StepGeneralChat {
		t.Errorf("dialogue should complete despite delivery failure, step = %s", state.CurrentStep)
	}
}

func TestOrchestrator_GeneralFallsBackToKnowledge(t *testing.T) {
	provider := &fakeProvider{}
	completer := &fakeCompleter{err: &APIError{Message: "down"}}
	o := newTestOrchestrator(provider, completer, nil)
	state := model.NewDialogueState()

	result := o.Handle(context.Background(), "can foreigners purchase land here?", state, nil)

	if result.Visual == nil || result.Visual.Type != model.VisualInfoCard {
		t.Fatalf("knowledge fallback should produce an info card, got %+v", result.Visual)
	}
	if !strings.Contains(strings.ToLower(result.Response), "leasehold") {
		t.Errorf("expected the foreign-ownership entry, got %q", result.Response)
	}
}

func TestOrchestrator_HandleStream(t *testing.T) {
	provider := &fakeProvider{properties: []model.Property{karenVilla(1, 30_000_000, 3)}}
	completer := &fakeCompleter{reply: "Streaming reply about Karen."}
	o := newTestOrchestrator(provider, completer, nil)
	state := model.NewDialogueState()

	var streamed []string
	result := o.HandleStream(context.Background(), "house in Karen", state, nil, func(content string) error {
		streamed = append(streamed, content)
		return nil
	})

	if len(streamed) == 0 {
		t.Fatal("expected streamed content")
	}
	if result.Response != "Streaming reply about Karen." {
		t.Errorf("final response = %q", result.Response)
	}
}
