package utils

import (
	"strings"
)

// knownLocations maps canonical Nairobi area names to the spellings and
// shorthand users actually type.
var knownLocations = map[string][]string{
	"Karen":         {"karen"},
	"Westlands":     {"westlands", "westy"},
	"Kilimani":      {"kilimani"},
	"Lavington":     {"lavington"},
	"Runda":         {"runda"},
	"Kileleshwa":    {"kileleshwa"},
	"Muthaiga":      {"muthaiga"},
	"Spring Valley": {"spring valley", "springvalley"},
	"Riverside":     {"riverside"},
	"Kitisuru":      {"kitisuru"},
	"Loresho":       {"loresho"},
	"Parklands":     {"parklands"},
	"South B":       {"south b"},
	"South C":       {"south c"},
	"Langata":       {"langata", "lang'ata"},
	"Rongai":        {"rongai", "ongata rongai"},
	"Ruaka":         {"ruaka"},
	"Syokimau":      {"syokimau"},
	"Athi River":    {"athi river"},
	"Thika Road":    {"thika road", "thika rd"},
	"Ngong Road":    {"ngong road", "ngong rd"},
}

// ExtractLocation scans a message for a known area name and returns its
// canonical form. The longest alias wins so "spring valley" beats "valley".
func ExtractLocation(message string) (string, bool) {
	lower := strings.ToLower(message)

	best := ""
	bestLen := 0
	for canonical, aliases := range knownLocations {
		for _, alias := range aliases {
			if containsWord(lower, alias) && len(alias) > bestLen {
				best = canonical
				bestLen = len(alias)
			}
		}
	}

	if best == "" {
		return "", false
	}
	return best, true
}

// MatchLocation reports whether a property's location matches the requested
// one, case-insensitively and in either containment direction.
func MatchLocation(requested, propertyLocation string) bool {
	req := strings.ToLower(strings.TrimSpace(requested))
	loc := strings.ToLower(strings.TrimSpace(propertyLocation))
	if req == "" || loc == "" {
		return false
	}
	return strings.Contains(loc, req) || strings.Contains(req, loc)
}

// KnownLocationNames returns the canonical area names, for prompts and reports
func KnownLocationNames() []string {
	names := make([]string, 0, len(knownLocations))
	for name := range knownLocations {
		names = append(names, name)
	}
	return names
}

// containsWord checks for the phrase at word boundaries, so "karen" does not
// fire inside "karenina".
func containsWord(text, phrase string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], phrase)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(phrase)
		beforeOK := start == 0 || !isWordChar(text[start-1])
		afterOK := end == len(text) || !isWordChar(text[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
		if idx >= len(text) {
			return false
		}
	}
}

func isWordChar(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
