package utils

import "testing"

func TestExtractLocation(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
		wantOK  bool
	}{
		{
			name:    "simple area mention",
			message: "I want a house in karen",
			want:    "Karen",
			wantOK:  true,
		},
		{
			name:    "canonical form from alias",
			message: "anything in westy?",
			want:    "Westlands",
			wantOK:  true,
		},
		{
			name:    "two-word area",
			message: "how about spring valley",
			want:    "Spring Valley",
			wantOK:  true,
		},
		{
			name:    "apostrophe spelling",
			message: "apartments in lang'ata",
			want:    "Langata",
			wantOK:  true,
		},
		{
			name:    "area followed by punctuation",
			message: "Kilimani?",
			want:    "Kilimani",
			wantOK:  true,
		},
		{
			name:    "no substring false positive",
			message: "reading anna karenina",
			wantOK:  false,
		},
		{
			name:    "no location at all",
			message: "show me something nice",
			wantOK:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractLocation(tt.message)
			if ok != tt.wantOK {
				t.Fatalf("ExtractLocation(%q) ok = %v, want %v", tt.message, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ExtractLocation(%q) = %q, want %q", tt.message, got, tt.want)
			}
		})
	}
}

func TestMatchLocation(t *testing.T) {
	tests := []struct {
		name      string
		requested string
		property  string
		want      bool
	}{
		{"exact", "Karen", "Karen", true},
		{"case insensitive", "karen", "KAREN", true},
		{"property more specific", "Karen", "Karen, Nairobi", true},
		{"request more specific", "Karen, Nairobi", "Karen", true},
		{"different areas", "Karen", "Westlands", false},
		{"empty request", "", "Karen", false},
		{"empty property", "Karen", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchLocation(tt.requested, tt.property); got != tt.want {
				t.Errorf("MatchLocation(%q, %q) = %v, want %v", tt.requested, tt.property, got, tt.want)
			}
		})
	}
}
