package service

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"core/internal/config"
	"core/internal/model"
	"core/internal/repository"
)

// Notifier is the downstream collaborator that alerts a human agent to a
// confirmed viewing request. Emission is attempted once; failure is surfaced
// on the side-effect descriptor, never as a failed turn.
type Notifier interface {
	NotifyAgent(ctx context.Context, vr *model.ViewingRequest) error
}

// TurnResult is what one processed turn hands back to the caller. The
// dialogue state passed into Handle is mutated in place.
type TurnResult struct {
	Response   string
	Visual     *model.Visual
	SideEffect *model.SideEffect
}

// Orchestrator is the top-level turn processor: it classifies the message,
// runs the matching handler pipeline, and guarantees a response through the
// gateway → local composition → knowledge base → static contact chain.
type Orchestrator struct {
	extractor *Extractor
	matcher   *Matcher
	knowledge *KnowledgeBase
	dialogue  *DialogueMachine
	gateway   Completer
	provider  repository.Provider
	notifier  Notifier
	company   config.CompanyConfig
	chatCfg   config.ChatConfig
}

// NewOrchestrator wires the turn processor
func NewOrchestrator(
	extractor *Extractor,
	matcher *Matcher,
	knowledge *KnowledgeBase,
	dialogue *DialogueMachine,
	gateway Completer,
	provider repository.Provider,
	notifier Notifier,
	company config.CompanyConfig,
	chatCfg config.ChatConfig,
) *Orchestrator {
	return &Orchestrator{
		extractor: extractor,
		matcher:   matcher,
		knowledge: knowledge,
		dialogue:  dialogue,
		gateway:   gateway,
		provider:  provider,
		notifier:  notifier,
		company:   company,
		chatCfg:   chatCfg,
	}
}

// turn bundles everything a handler needs for one message
type turn struct {
	ctx     context.Context
	text    string
	lower   string
	intent  *model.IntentResult
	state   *model.DialogueState
	history []Turn
	stream  func(content string) error // nil for non-streaming turns
}

// Handle processes one turn. It never returns an error: every failure path
// terminates in a user-visible message and a valid dialogue state.
func (o *Orchestrator) Handle(ctx context.Context, text string, state *model.DialogueState, history []Turn) *TurnResult {
	return o.dispatch(&turn{
		ctx:     ctx,
		text:    text,
		lower:   strings.ToLower(text),
		intent:  o.extractor.Classify(text),
		state:   state,
		history: history,
	})
}

// HandleStream processes one turn, streaming gateway content through the
// callback as it arrives. Degraded responses arrive as a single callback.
func (o *Orchestrator) HandleStream(ctx context.Context, text string, state *model.DialogueState, history []Turn, onContent func(content string) error) *TurnResult {
	result := o.dispatch(&turn{
		ctx:     ctx,
		text:    text,
		lower:   strings.ToLower(text),
		intent:  o.extractor.Classify(text),
		state:   state,
		history: history,
		stream:  onContent,
	})
	return result
}

// Complex-query trigger keywords; any hit routes to the full-context handler
var complexKeywords = []string{"recommend", "compare", "analyze", "explain", "why", "how", "market", "investment"}

// propertySearchShape matches "need/looking for/want ... in/at ..." phrasing
var propertySearchShape = regexp.MustCompile(`(?i)\b(?:need|looking for|want)\b.*\b(?:in|at)\b`)

// dispatch is the fixed-priority rule chain. Order is a policy decision:
// each earlier check wins over later, more general ones.
func (o *Orchestrator) dispatch(t *turn) *TurnResult {
	// An in-flight viewing flow always continues; a date-only or yes/no
	// reply carries no routable vocabulary of its own.
	if t.state.CurrentStep == model.StepCollectingDetails || t.state.CurrentStep == model.StepConfirmingBooking {
		return o.handleViewing(t)
	}

	// 1. Property-search override: free-text property mentions are the
	// highest-value path, so keyword recall dominates classifier precision.
	if o.isPropertyInquiry(t) {
		return o.handlePropertyInquiry(t)
	}

	// 2. Viewing-request override
	if t.intent.Type == model.IntentViewingRequest || containsAny(t.lower, "viewing", "visit") {
		return o.handleViewing(t)
	}

	// 3. Complex-query heuristic: long or analytical messages get the full
	// company+property+market context.
	if len(t.text) > o.chatCfg.ComplexMinLength || containsAny(t.lower, complexKeywords...) {
		return o.handleComplex(t)
	}

	// 4. Greeting
	if t.intent.Type == model.IntentGreeting {
		return o.handleGreeting(t)
	}

	// 5. Category inquiries, first match wins
	switch {
	case containsAny(t.lower, "company", "about you", "who are you", "your service", "contact", "office"):
		return o.handleCompany(t)
	case containsAny(t.lower, "statistic", "stats", "trend", "insight"):
		return o.handleMarket(t)
	case containsAny(t.lower, "available", "availability", "vacant", "listings"):
		return o.handleAvailability(t)
	case containsAny(t.lower, "agent", "staff", "team", "realtor", "consultant"):
		return o.handleAgents(t)
	case containsAny(t.lower, "task", "assignment", "workload"):
		return o.handleTasks(t)
	case containsAny(t.lower, "analytic", "performance", "report"):
		return o.handleAnalytics(t)
	}

	// 6. Default: generic gateway handler
	return o.handleGeneral(t)
}

func (o *Orchestrator) isPropertyInquiry(t *turn) bool {
	switch t.intent.Type {
	case model.IntentPropertySearch, model.IntentPropertyInfo, model.IntentLocationInquiry, model.IntentPriceInquiry:
		return true
	}
	if containsAny(t.lower, "house", "property", "home", "villa", "apartment", "estate") {
		return true
	}
	if t.intent.Entities.Location != nil {
		return true
	}
	return propertySearchShape.MatchString(t.text)
}

// handlePropertyInquiry matches properties against the extracted slots and
// presents them, falling back to general recommendations on zero matches.
func (o *Orchestrator) handlePropertyInquiry(t *turn) *TurnResult {
	entities := t.intent.Entities
	o.rememberPreferences(t.state, entities)

	matches, err := o.matcher.Match(t.ctx, entities)
	if err != nil {
		log.Printf("Warning: property match failed: %v", err)
		return o.contactFallback(t.state)
	}

	recommended := false
	if len(matches) == 0 {
		matches, err = o.matcher.Recommend(t.ctx)
		if err != nil {
			log.Printf("Warning: recommendation fetch failed: %v", err)
			return o.contactFallback(t.state)
		}
		recommended = true
	}

	t.state.CurrentStep = model.StepPropertyInquiry
	if !recommended && len(matches) > 0 {
		property := matches[0]
		t.state.PropertyContext = &property
	}

	visual := &model.Visual{Type: model.VisualPropertyCards, Properties: matches}

	header := "Matched properties:"
	if recommended {
		header = "No exact matches; current recommendations:"
	}
	contextBlock := formatProperties(header, matches)

	text, err := o.complete(t, contextBlock)
	if err == nil {
		return &TurnResult{Response: text, Visual: visual}
	}
	log.Printf("Warning: gateway failed for property inquiry, composing locally: %v", err)

	return &TurnResult{Response: composePropertyResponse(matches, recommended), Visual: visual}
}

// handleViewing advances the booking flow and emits the side effect on the
// confirming turn.
func (o *Orchestrator) handleViewing(t *turn) *TurnResult {
	flow := o.dialogue.Advance(t.state, t.text, t.intent.Entities)

	result := &TurnResult{Response: flow.Response}
	if flow.Booking == nil {
		return result
	}

	delivered := false
	if o.notifier != nil {
		if err := o.notifier.NotifyAgent(t.ctx, flow.Booking); err != nil {
			log.Printf("Warning: failed to notify agent of viewing request %s: %v", flow.Booking.ID, err)
		} else {
			delivered = true
		}
	}

	result.SideEffect = &model.SideEffect{
		Type:      model.SideEffectNotifyAgent,
		Viewing:   flow.Booking,
		Delivered: delivered,
	}
	return result
}

// handleComplex serves long or analytical messages with full context:
// portfolio stats, sample properties and market notes fetched in parallel.
func (o *Orchestrator) handleComplex(t *turn) *TurnResult {
	var stats *model.PropertyStats
	var properties []model.Property

	g, gctx := errgroup.WithContext(t.ctx)
	g.Go(func() error {
		var err error
		stats, err = o.provider.GetPropertyStats(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		properties, err = o.provider.GetAllProperties(gctx)
		return err
	})
	dataErr := g.Wait()

	t.state.CurrentStep = model.StepGeneralChat

	var blocks []string
	if stats != nil {
		blocks = append(blocks, formatPropertyStats(stats))
	}
	if len(properties) > 0 {
		blocks = append(blocks, formatProperties("Sample listings:", properties))
	}
	blocks = append(blocks, "Market notes:\n"+formatKnowledge(o.knowledge.Entries(), model.KnowledgeMarket))
	contextBlock := strings.Join(blocks, "\n\n")

	text, err := o.complete(t, contextBlock)
	if err == nil {
		return &TurnResult{Response: text}
	}
	log.Printf("Warning: gateway failed for complex query, degrading: %v", err)

	if dataErr == nil && stats != nil {
		response := "Here's what I can tell you from our current portfolio. " + formatPropertyStats(stats) +
			" For a deeper discussion, one of our consultants would be glad to help."
		return &TurnResult{Response: response, Visual: &model.Visual{Type: model.VisualStats, Stats: stats}}
	}
	if kb := o.knowledge.Search(t.text); len(kb) > 0 {
		return o.knowledgeResult(kb)
	}
	return o.contactFallback(t.state)
}

func (o *Orchestrator) handleGreeting(t *turn) *TurnResult {
	t.state.CurrentStep = model.StepGreeting
	tip := "Try: \"3 bedroom house in Karen\" or \"apartments under 15M in Kilimani\""
	return &TurnResult{
		Response: fmt.Sprintf("Hello! Welcome to %s. 👋 I can help you find a property, share market insights, or book a viewing. What are you looking for today?", o.company.Name),
		Visual:   &model.Visual{Type: model.VisualTip, Tip: &tip},
	}
}

func (o *Orchestrator) handleCompany(t *turn) *TurnResult {
	t.state.CurrentStep = model.StepGeneralChat

	contextBlock := "About the company:\n" + formatKnowledge(o.knowledge.Entries(), model.KnowledgeService, model.KnowledgePolicy)
	text, err := o.complete(t, contextBlock)
	if err == nil {
		return &TurnResult{Response: text}
	}
	log.Printf("Warning: gateway failed for company inquiry, searching knowledge base: %v", err)

	if kb := o.knowledge.Search(t.text); len(kb) > 0 {
		return o.knowledgeResult(kb)
	}
	return o.contactFallback(t.state)
}

func (o *Orchestrator) handleMarket(t *turn) *TurnResult {
	t.state.CurrentStep = model.StepGeneralChat

	stats, dataErr := o.provider.GetPropertyStats(t.ctx)

	var blocks []string
	if stats != nil {
		blocks = append(blocks, formatPropertyStats(stats))
	}
	blocks = append(blocks, "Market notes:\n"+formatKnowledge(o.knowledge.Entries(), model.KnowledgeMarket))

	text, err := o.complete(t, strings.Join(blocks, "\n\n"))
	if err == nil {
		return &TurnResult{Response: text}
	}
	log.Printf("Warning: gateway failed for market inquiry, degrading: %v", err)

	if dataErr == nil && stats != nil {
		return &TurnResult{
			Response: "Here's a snapshot of our market. " + formatPropertyStats(stats),
			Visual:   &model.Visual{Type: model.VisualStats, Stats: stats},
		}
	}
	if kb := o.knowledge.Search(t.text); len(kb) > 0 {
		return o.knowledgeResult(kb)
	}
	return o.contactFallback(t.state)
}

func (o *Orchestrator) handleAvailability(t *turn) *TurnResult {
	t.state.CurrentStep = model.StepGeneralChat

	report, dataErr := o.provider.GetAvailabilityReport(t.ctx)
	if dataErr != nil {
		log.Printf("Warning: availability report failed: %v", dataErr)
		return o.contactFallback(t.state)
	}

	var visual *model.Visual
	if len(report.Properties) > 0 {
		shown := report.Properties
		if len(shown) > o.chatCfg.MatchLimit {
			shown = shown[:o.chatCfg.MatchLimit]
		}
		visual = &model.Visual{Type: model.VisualPropertyCards, Properties: shown}
	}

	text, err := o.complete(t, "Availability:\n"+formatAvailability(report))
	if err == nil {
		return &TurnResult{Response: text, Visual: visual}
	}
	log.Printf("Warning: gateway failed for availability inquiry, composing locally: %v", err)

	return &TurnResult{Response: formatAvailability(report), Visual: visual}
}

func (o *Orchestrator) handleAgents(t *turn) *TurnResult {
	t.state.CurrentStep = model.StepGeneralChat

	var agents []model.Agent
	var stats *model.AgentStats

	g, gctx := errgroup.WithContext(t.ctx)
	g.Go(func() error {
		var err error
		agents, err = o.provider.GetAllAgents(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats, err = o.provider.GetAgentStats(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		log.Printf("Warning: agent data fetch failed: %v", err)
		return o.contactFallback(t.state)
	}

	visual := &model.Visual{Type: model.VisualAgentCards, Agents: agents}

	text, err := o.complete(t, "Our team:\n"+formatAgents(agents, stats))
	if err == nil {
		return &TurnResult{Response: text, Visual: visual}
	}
	log.Printf("Warning: gateway failed for agent inquiry, composing locally: %v", err)

	return &TurnResult{Response: "Here's our team. " + formatAgents(agents, stats), Visual: visual}
}

func (o *Orchestrator) handleTasks(t *turn) *TurnResult {
	t.state.CurrentStep = model.StepGeneralChat

	var tasks []model.Task
	var stats *model.TaskStats

	g, gctx := errgroup.WithContext(t.ctx)
	g.Go(func() error {
		var err error
		tasks, err = o.provider.GetAllTasks(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats, err = o.provider.GetTaskStats(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		log.Printf("Warning: task data fetch failed: %v", err)
		return o.contactFallback(t.state)
	}

	summary := formatTasks(tasks, stats)

	text, err := o.complete(t, summary)
	if err == nil {
		return &TurnResult{Response: text}
	}
	log.Printf("Warning: gateway failed for task inquiry, composing locally: %v", err)

	return &TurnResult{
		Response: formatTaskStats(stats),
		Visual:   &model.Visual{Type: model.VisualInfoCard, Info: &model.InfoCard{Title: "Task summary", Body: summary}},
	}
}

func (o *Orchestrator) handleAnalytics(t *turn) *TurnResult {
	t.state.CurrentStep = model.StepGeneralChat

	analytics, dataErr := o.provider.GetPropertyAnalytics(t.ctx)
	if dataErr != nil {
		log.Printf("Warning: analytics fetch failed: %v", dataErr)
		return o.contactFallback(t.state)
	}

	visual := &model.Visual{Type: model.VisualStats, Stats: &analytics.Stats}

	text, err := o.complete(t, "Analytics:\n"+formatAnalytics(analytics))
	if err == nil {
		return &TurnResult{Response: text, Visual: visual}
	}
	log.Printf("Warning: gateway failed for analytics inquiry, composing locally: %v", err)

	return &TurnResult{Response: formatAnalytics(analytics), Visual: visual}
}

func (o *Orchestrator) handleGeneral(t *turn) *TurnResult {
	t.state.CurrentStep = model.StepGeneralChat

	text, err := o.complete(t, "Company knowledge:\n"+formatKnowledge(o.knowledge.Entries()))
	if err == nil {
		return &TurnResult{Response: text}
	}
	log.Printf("Warning: gateway failed for general inquiry, searching knowledge base: %v", err)

	if kb := o.knowledge.Search(t.text); len(kb) > 0 {
		return o.knowledgeResult(kb)
	}
	return o.contactFallback(t.state)
}

// complete runs the gateway call for this turn, streaming when the turn has a
// content callback.
func (o *Orchestrator) complete(t *turn, contextBlock string) (string, error) {
	req := CompletionRequest{
		Message:      t.text,
		SystemPrompt: buildSystemPrompt(o.company),
		Context:      contextBlock,
		History:      t.history,
	}
	if t.stream != nil {
		return o.gateway.CompleteStream(t.ctx, req, t.stream)
	}
	return o.gateway.Complete(t.ctx, req)
}

// knowledgeResult formats the best knowledge-base hit as an info card
func (o *Orchestrator) knowledgeResult(ranked []model.RankedEntry) *TurnResult {
	top := ranked[0].Entry
	return &TurnResult{
		Response: top.Content,
		Visual:   &model.Visual{Type: model.VisualInfoCard, Info: &model.InfoCard{Title: top.Title, Body: top.Content}},
	}
}

// contactFallback is the last resort when domain data itself is unavailable
func (o *Orchestrator) contactFallback(state *model.DialogueState) *TurnResult {
	return &TurnResult{
		Response: fmt.Sprintf("I'm sorry, I can't pull up that information right now. Please call us on %s or email %s and our team will help you directly.",
			o.company.Phone, o.company.Email),
	}
}

// composePropertyResponse enumerates the top matches as formatted text, used
// when the gateway is unavailable.
func composePropertyResponse(properties []model.Property, recommended bool) string {
	if len(properties) == 0 {
		return "I couldn't find any properties matching that just now. Could you try a different location or budget?"
	}

	var b strings.Builder
	if recommended {
		b.WriteString("I couldn't find an exact match for that, but here are some properties you might like:\n")
	} else {
		b.WriteString("Here's what I found for you:\n")
	}

	shown := properties
	if len(shown) > 3 {
		shown = shown[:3]
	}
	for _, p := range shown {
		fmt.Fprintf(&b, "\n🏠 %s in %s, KSh %s", p.Title, p.Location, formatPrice(p.Price))
		if p.Bedrooms != nil {
			fmt.Fprintf(&b, ", %d bedrooms", *p.Bedrooms)
		}
	}
	b.WriteString("\n\nWould you like more details on any of these, or shall I arrange a viewing?")
	return b.String()
}

// rememberPreferences folds newly extracted slots into the session preferences
func (o *Orchestrator) rememberPreferences(state *model.DialogueState, entities model.Entities) {
	if entities.IsEmpty() {
		return
	}
	if state.UserPreferences == nil {
		state.UserPreferences = &model.UserPreferences{}
	}
	prefs := state.UserPreferences
	if entities.Location != nil {
		prefs.Location = entities.Location
	}
	if entities.Bedrooms != nil {
		prefs.Bedrooms = entities.Bedrooms
	}
	if entities.PriceRange != nil {
		prefs.PriceRange = entities.PriceRange
	}
	if entities.PropertyType != nil {
		prefs.PropertyType = entities.PropertyType
	}
}
