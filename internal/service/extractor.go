package service

import (
	"regexp"
	"strconv"
	"strings"

	"core/internal/model"
	"core/internal/utils"
)

var (
	bedroomsRe = regexp.MustCompile(`(?i)\b(\d+)\s*(?:bed(?:room)?s?|br)\b`)

	// Price figures: "KSh 25M", "25 million", "800k", "ksh 45,000,000"
	priceRe = regexp.MustCompile(`(?i)(?:ksh|kes|sh)?\.?\s*([\d,]+(?:\.\d+)?)\s*(million|mil|m|thousand|k)\b|(?i)(?:ksh|kes|sh)\.?\s*([\d,]+(?:\.\d+)?)`)

	dateRe = regexp.MustCompile(`(?i)\b(today|tomorrow|monday|tuesday|wednesday|thursday|friday|saturday|sunday|next week|this weekend|\d{1,2}[/-]\d{1,2}(?:[/-]\d{2,4})?)\b`)
	timeRe = regexp.MustCompile(`(?i)\b(\d{1,2}(?::\d{2})?\s*(?:am|pm)|morning|afternoon|evening|noon|midday)\b`)

	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phoneRe = regexp.MustCompile(`(?:\+?254|0)7\d{8}\b`)

	// Name capture keys off an introduction phrase followed by a capitalized
	// word, so "I'm looking for..." does not produce a name.
	nameRe = regexp.MustCompile(`(?:(?i:my name is|i am|i'm|this is))\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)`)
)

var propertyTypes = []string{
	"apartment", "house", "villa", "townhouse", "maisonette", "bungalow",
	"studio", "penthouse", "office", "land", "plot",
}

var greetingWords = []string{
	"hi", "hello", "hey", "good morning", "good afternoon", "good evening",
	"habari", "jambo", "greetings",
}

// Extractor turns raw text into a typed intent plus extracted slot values.
// It is a pure function of its input: no state, no I/O, never panics.
type Extractor struct{}

// NewExtractor creates a new extractor
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Classify returns one best-guess intent and whatever entities the message
// yields. Unrecognized input maps to a general inquiry with empty entities;
// ties and overrides are the router's job, not ours.
func (e *Extractor) Classify(text string) *model.IntentResult {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return &model.IntentResult{Type: model.IntentGeneralInquiry}
	}

	lower := strings.ToLower(trimmed)
	entities := e.extractEntities(trimmed, lower)

	return &model.IntentResult{
		Type:     e.classifyIntent(lower, entities),
		Entities: entities,
	}
}

func (e *Extractor) classifyIntent(lower string, entities model.Entities) model.IntentTag {
	if isPureGreeting(lower) {
		return model.IntentGreeting
	}

	if containsAny(lower, "viewing", "view the", "visit", "tour", "appointment", "book a") {
		return model.IntentViewingRequest
	}

	if containsAny(lower, "house", "home", "apartment", "villa", "property", "bedroom", "estate",
		"buy", "rent", "maisonette", "bungalow", "townhouse", "looking for", "searching for") {
		return model.IntentPropertySearch
	}

	if containsAny(lower, "price", "cost", "how much", "budget", "afford", "expensive", "cheap") {
		return model.IntentPriceInquiry
	}

	if containsAny(lower, "where", "located", "location", "area", "address", "directions", "neighborhood", "neighbourhood") {
		return model.IntentLocationInquiry
	}

	if containsAny(lower, "tell me about", "details", "features", "describe", "more about") {
		return model.IntentPropertyInfo
	}

	return model.IntentGeneralInquiry
}

func (e *Extractor) extractEntities(original, lower string) model.Entities {
	var entities model.Entities

	if location, ok := utils.ExtractLocation(lower); ok {
		entities.Location = &location
	}

	if m := bedroomsRe.FindStringSubmatch(lower); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 && n <= 20 {
			entities.Bedrooms = &n
		}
	}

	entities.PriceRange = extractPriceRange(lower)

	if m := dateRe.FindStringSubmatch(lower); m != nil {
		date := m[1]
		entities.Date = &date
	}

	if m := timeRe.FindStringSubmatch(lower); m != nil {
		t := m[1]
		entities.Time = &t
	}

	if m := emailRe.FindString(original); m != "" {
		entities.Contact = &m
	} else if m := phoneRe.FindString(original); m != "" {
		entities.Contact = &m
	}

	if m := nameRe.FindStringSubmatch(original); m != nil {
		name := m[1]
		entities.Name = &name
	}

	for _, pt := range propertyTypes {
		if strings.Contains(lower, pt) {
			t := pt
			entities.PropertyType = &t
			break
		}
	}

	return entities
}

// extractPriceRange reads a price figure and its qualifier. "under X" caps the
// range, "over X" floors it, a bare figure becomes a ±20% band around X.
func extractPriceRange(lower string) *model.PriceRange {
	m := priceRe.FindStringSubmatch(lower)
	if m == nil {
		return nil
	}

	numStr, unit := m[1], m[2]
	if numStr == "" {
		numStr = m[3]
	}
	value, err := strconv.ParseFloat(strings.ReplaceAll(numStr, ",", ""), 64)
	if err != nil || value <= 0 {
		return nil
	}

	switch unit {
	case "million", "mil", "m":
		value *= 1_000_000
	case "thousand", "k":
		value *= 1_000
	}

	switch {
	case containsAny(lower, "under", "below", "less than", "at most", "max", "up to", "within"):
		return &model.PriceRange{Max: &value}
	case containsAny(lower, "over", "above", "more than", "at least", "from", "starting"):
		return &model.PriceRange{Min: &value}
	default:
		min := value * 0.8
		max := value * 1.2
		return &model.PriceRange{Min: &min, Max: &max}
	}
}

func isPureGreeting(lower string) bool {
	cleaned := strings.Trim(lower, " .,!?")
	for _, g := range greetingWords {
		if cleaned == g || cleaned == g+" there" {
			return true
		}
	}
	// Short messages that open with a greeting and carry nothing else
	for _, g := range greetingWords {
		if strings.HasPrefix(cleaned, g) && len(cleaned) < 25 &&
			!containsAny(cleaned, "house", "property", "apartment", "villa", "viewing", "price", "bedroom", "rent", "buy") {
			return true
		}
	}
	return false
}

func containsAny(text string, keywords ...string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
