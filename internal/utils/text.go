package utils

import (
	"strings"
	"unicode"
)

// CleanAIText normalizes text returned by a completion API: strips markdown
// code fences and surrounding whitespace so raw prose is left.
func CleanAIText(input string) string {
	text := strings.TrimSpace(input)

	if strings.HasPrefix(text, "```") {
		// Drop the opening fence line (possibly "```markdown" etc.)
		if idx := strings.Index(text, "\n"); idx >= 0 {
			text = text[idx+1:]
		} else {
			text = strings.TrimPrefix(text, "```")
		}
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}

	return strings.TrimSpace(text)
}

// HasExcessiveNonEnglish reports whether a response looks like it came back
// in an unexpected script. True when the text contains no Latin letters at
// all, or when more than half of the characters of a 50+ character response
// fall outside the basic ASCII-printable range.
func HasExcessiveNonEnglish(text string) bool {
	if strings.TrimSpace(text) == "" {
		return true
	}

	hasLatin := false
	total := 0
	nonASCII := 0
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			hasLatin = true
		}
		if r < 0x20 || r > 0x7e {
			nonASCII++
		}
	}

	if !hasLatin {
		return true
	}
	if total > 50 && nonASCII*2 > total {
		return true
	}
	return false
}

// TruncateString shortens a string for log output
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
