package model

import (
	"time"

	"github.com/google/uuid"
)

// Step identifies where a session is in the conversation flow
type Step string

const (
	// StepInitial is the pre-first-turn sentinel; it is distinct from
	// StepGreeting so the first message still goes through intent detection.
	StepInitial           Step = "initial"
	StepGreeting          Step = "greeting"
	StepPropertyInquiry   Step = "property_inquiry"
	StepCollectingDetails Step = "collecting_details"
	StepConfirmingBooking Step = "confirming_booking"
	StepGeneralChat       Step = "general_chat"
)

// DialogueState is the per-session conversation state. It is owned by the
// caller, threaded through every turn, and mutated at most once per turn.
type DialogueState struct {
	CurrentStep     Step             `json:"current_step"`
	PropertyContext *Property        `json:"property_context,omitempty"`
	ViewingDetails  *ViewingDetails  `json:"viewing_details,omitempty"`
	UserPreferences *UserPreferences `json:"user_preferences,omitempty"`
}

// NewDialogueState creates the state for a fresh session
func NewDialogueState() *DialogueState {
	return &DialogueState{CurrentStep: StepInitial}
}

// ViewingDetails holds the booking slots collected so far
type ViewingDetails struct {
	Name    string `json:"name,omitempty"`
	Contact string `json:"contact,omitempty"`
	Date    string `json:"date,omitempty"`
	Time    string `json:"time,omitempty"`
}

// Missing returns the unfilled slot names in fixed order: name, contact, date, time
func (v *ViewingDetails) Missing() []string {
	if v == nil {
		return []string{"name", "contact", "date", "time"}
	}
	var missing []string
	if v.Name == "" {
		missing = append(missing, "name")
	}
	if v.Contact == "" {
		missing = append(missing, "contact")
	}
	if v.Date == "" {
		missing = append(missing, "date")
	}
	if v.Time == "" {
		missing = append(missing, "time")
	}
	return missing
}

// Complete reports whether all four booking slots are filled
func (v *ViewingDetails) Complete() bool {
	return v != nil && len(v.Missing()) == 0
}

// UserPreferences accumulates search criteria observed across turns
type UserPreferences struct {
	Location     *string     `json:"location,omitempty"`
	Bedrooms     *int        `json:"bedrooms,omitempty"`
	PriceRange   *PriceRange `json:"price_range,omitempty"`
	PropertyType *string     `json:"property_type,omitempty"`
}

// ViewingRequest is the terminal booking artifact. It is constructed only
// once all four slots are non-empty and the user has explicitly confirmed.
type ViewingRequest struct {
	ID            string    `json:"id" db:"id"`
	PropertyID    int64     `json:"property_id" db:"property_id"`
	PropertyTitle string    `json:"property_title" db:"property_title"`
	ClientName    string    `json:"client_name" db:"client_name"`
	ClientContact string    `json:"client_contact" db:"client_contact"`
	PreferredDate string    `json:"preferred_date" db:"preferred_date"`
	PreferredTime string    `json:"preferred_time" db:"preferred_time"`
	Message       string    `json:"message" db:"message"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// NewViewingRequest builds a viewing request from confirmed details
func NewViewingRequest(property *Property, details *ViewingDetails, message string) *ViewingRequest {
	vr := &ViewingRequest{
		ID:            uuid.New().String(),
		ClientName:    details.Name,
		ClientContact: details.Contact,
		PreferredDate: details.Date,
		PreferredTime: details.Time,
		Message:       message,
		CreatedAt:     time.Now(),
	}
	if property != nil {
		vr.PropertyID = property.ID
		vr.PropertyTitle = property.Title
	}
	return vr
}
