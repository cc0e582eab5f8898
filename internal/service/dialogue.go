package service

import (
	"fmt"
	"strings"

	"core/internal/model"
)

// FlowResult is the outcome of one viewing-flow turn
type FlowResult struct {
	Response string
	// Booking is set on the turn the user confirms; the caller owns the
	// side effect of emitting it.
	Booking   *model.ViewingRequest
	Cancelled bool
}

// DialogueMachine advances the viewing-booking sub-flow. It mutates the
// dialogue state at most once per turn and defines no transitions beyond
// collecting details, confirming, and completing or cancelling a booking.
type DialogueMachine struct{}

// NewDialogueMachine creates a new dialogue machine
func NewDialogueMachine() *DialogueMachine {
	return &DialogueMachine{}
}

// slotLabels is the fixed prompt order: name, contact, date, time
var slotLabels = map[string]string{
	"name":    "your name",
	"contact": "a phone number or email to reach you on",
	"date":    "your preferred viewing date",
	"time":    "your preferred time",
}

// Advance processes one turn of the viewing flow
func (d *DialogueMachine) Advance(state *model.DialogueState, text string, entities model.Entities) *FlowResult {
	if state.CurrentStep == model.StepConfirmingBooking {
		return d.resolveConfirmation(state, text)
	}
	return d.collectDetails(state, entities)
}

// collectDetails merges any supplied slots and either asks for what is still
// missing or moves to confirmation once all four slots are filled.
func (d *DialogueMachine) collectDetails(state *model.DialogueState, entities model.Entities) *FlowResult {
	if state.ViewingDetails == nil {
		state.ViewingDetails = &model.ViewingDetails{}
	}
	details := state.ViewingDetails

	if entities.Name != nil && details.Name == "" {
		details.Name = *entities.Name
	}
	if entities.Contact != nil && details.Contact == "" {
		details.Contact = *entities.Contact
	}
	if entities.Date != nil && details.Date == "" {
		details.Date = *entities.Date
	}
	if entities.Time != nil && details.Time == "" {
		details.Time = *entities.Time
	}

	if details.Complete() {
		state.CurrentStep = model.StepConfirmingBooking
		return &FlowResult{Response: d.confirmationSummary(state)}
	}

	state.CurrentStep = model.StepCollectingDetails
	return &FlowResult{Response: d.missingSlotsPrompt(state)}
}

// resolveConfirmation interprets the reply on a pending booking summary.
// Anything that is neither clearly yes nor clearly no re-prompts without
// advancing the state.
func (d *DialogueMachine) resolveConfirmation(state *model.DialogueState, text string) *FlowResult {
	switch {
	case isAffirmative(text):
		booking := model.NewViewingRequest(state.PropertyContext, state.ViewingDetails,
			fmt.Sprintf("Viewing requested via chat for %s at %s", state.ViewingDetails.Date, state.ViewingDetails.Time))
		state.CurrentStep = model.StepGeneralChat
		state.ViewingDetails = nil
		return &FlowResult{
			Response: fmt.Sprintf("Perfect, your viewing is booked! %s One of our agents will contact you shortly on %s to confirm the appointment.",
				propertyMention(booking.PropertyTitle), booking.ClientContact),
			Booking: booking,
		}

	case isNegative(text):
		state.CurrentStep = model.StepGeneralChat
		state.ViewingDetails = nil
		return &FlowResult{
			Response:  "No problem, I've cancelled that viewing request. Let me know if you'd like to look at other properties or book a different time.",
			Cancelled: true,
		}

	default:
		return &FlowResult{Response: "Just to be sure, should I go ahead and book this viewing? Please reply yes to confirm or no to cancel."}
	}
}

// confirmationSummary lists every collected slot verbatim and asks for an
// explicit yes/no.
func (d *DialogueMachine) confirmationSummary(state *model.DialogueState) string {
	details := state.ViewingDetails

	var b strings.Builder
	b.WriteString("Great, I have everything I need. Please confirm your viewing request:\n")
	if state.PropertyContext != nil {
		fmt.Fprintf(&b, "🏠 Property: %s\n", state.PropertyContext.Title)
	} else {
		b.WriteString("🏠 Property: to be confirmed with your agent\n")
	}
	fmt.Fprintf(&b, "👤 Name: %s\n", details.Name)
	fmt.Fprintf(&b, "📞 Contact: %s\n", details.Contact)
	fmt.Fprintf(&b, "📅 Date: %s\n", details.Date)
	fmt.Fprintf(&b, "🕐 Time: %s\n", details.Time)
	b.WriteString("\nShall I book it? (yes/no)")
	return b.String()
}

// missingSlotsPrompt names the still-missing slots in fixed order
func (d *DialogueMachine) missingSlotsPrompt(state *model.DialogueState) string {
	missing := state.ViewingDetails.Missing()

	asks := make([]string, 0, len(missing))
	for _, slot := range missing {
		asks = append(asks, slotLabels[slot])
	}

	intro := "I'd be happy to arrange a viewing"
	if state.PropertyContext != nil {
		intro = fmt.Sprintf("I'd be happy to arrange a viewing of %s", state.PropertyContext.Title)
	}
	return fmt.Sprintf("%s. To book it I still need: %s.", intro, strings.Join(asks, ", "))
}

func propertyMention(title string) string {
	if title == "" {
		return "Our team will confirm the property details with you."
	}
	return fmt.Sprintf("You're viewing %s.", title)
}

var affirmativeWords = []string{"yes", "yeah", "yep", "sure", "confirm", "confirmed", "ok", "okay", "correct", "proceed", "go ahead", "book it", "y"}
var negativeWords = []string{"no", "nope", "cancel", "don't", "dont", "not now", "wrong", "n"}

func isAffirmative(text string) bool {
	return matchesReply(text, affirmativeWords)
}

func isNegative(text string) bool {
	return matchesReply(text, negativeWords)
}

// matchesReply checks short confirmation-style replies: single-word answers
// match exactly, phrases match by containment over the cleaned text.
func matchesReply(text string, words []string) bool {
	cleaned := strings.Trim(strings.ToLower(strings.TrimSpace(text)), ".,!? ")
	if cleaned == "" {
		return false
	}
	tokens := strings.Fields(cleaned)
	for _, w := range words {
		if cleaned == w {
			return true
		}
		if strings.Contains(w, " ") && strings.Contains(cleaned, w) {
			return true
		}
		// Single keyword inside a short reply ("yes please", "ok thanks")
		if len(tokens) <= 4 {
			for _, tok := range tokens {
				if tok == w {
					return true
				}
			}
		}
	}
	return false
}
