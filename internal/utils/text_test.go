package utils

import (
	"strings"
	"testing"
)

func TestCleanAIText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain text untouched",
			input: "Hello, how can I help?",
			want:  "Hello, how can I help?",
		},
		{
			name:  "surrounding whitespace trimmed",
			input: "  some reply \n",
			want:  "some reply",
		},
		{
			name:  "code fence stripped",
			input: "```\nfenced content\n```",
			want:  "fenced content",
		},
		{
			name:  "fence with language tag",
			input: "```markdown\n# Title\nbody\n```",
			want:  "# Title\nbody",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanAIText(tt.input); got != tt.want {
				t.Errorf("CleanAIText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestHasExcessiveNonEnglish(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{
			name: "normal english",
			text: "Here are three properties in Karen you might like.",
			want: false,
		},
		{
			name: "no latin letters at all",
			text: "你好你好",
			want: true,
		},
		{
			name: "blank",
			text: "   ",
			want: true,
		},
		{
			name: "long mostly non-ascii response",
			text: "ok " + strings.Repeat("好", 60),
			want: true,
		},
		{
			name: "short mixed text allowed",
			text: "KSh 25M 好",
			want: false,
		},
		{
			name: "long english with light punctuation",
			text: strings.Repeat("The market in Westlands remains strong. ", 3),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasExcessiveNonEnglish(tt.text); got != tt.want {
				t.Errorf("HasExcessiveNonEnglish(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestTruncateString(t *testing.T) {
	if got := TruncateString("abcdef", 4); got != "abcd..." {
		t.Errorf("TruncateString = %q, want %q", got, "abcd...")
	}
	if got := TruncateString("abc", 10); got != "abc" {
		t.Errorf("TruncateString = %q, want %q", got, "abc")
	}
}
