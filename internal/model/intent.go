package model

// IntentTag is the closed set of intents the extractor can produce
type IntentTag string

const (
	IntentGreeting        IntentTag = "greeting"
	IntentPropertySearch  IntentTag = "property_search"
	IntentPropertyInfo    IntentTag = "property_info"
	IntentLocationInquiry IntentTag = "location_inquiry"
	IntentPriceInquiry    IntentTag = "price_inquiry"
	IntentViewingRequest  IntentTag = "viewing_request"
	IntentGeneralInquiry  IntentTag = "general_inquiry"
)

// IntentResult represents the parsed intent from a user message
type IntentResult struct {
	Type     IntentTag `json:"type"`
	Entities Entities  `json:"entities"`
}

// Entities represents slot values extracted from a message.
// Every field is optional; extraction is heuristic and may find nothing.
type Entities struct {
	Location     *string     `json:"location,omitempty"`
	Bedrooms     *int        `json:"bedrooms,omitempty"`
	PriceRange   *PriceRange `json:"price_range,omitempty"`
	Date         *string     `json:"date,omitempty"`
	Time         *string     `json:"time,omitempty"`
	Name         *string     `json:"name,omitempty"`
	Contact      *string     `json:"contact,omitempty"`
	PropertyType *string     `json:"property_type,omitempty"`
}

// PriceRange is a budget window; either bound may be open
type PriceRange struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// IsEmpty reports whether no entity was extracted
func (e Entities) IsEmpty() bool {
	return e.Location == nil && e.Bedrooms == nil && e.PriceRange == nil &&
		e.Date == nil && e.Time == nil && e.Name == nil && e.Contact == nil &&
		e.PropertyType == nil
}
