package utils

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple title", "Hello World", "hello-world"},
		{"already lowercase", "quiet", "quiet"},
		{"punctuation collapses", "What, Me? Worry!", "what-me-worry"},
		{"numbers kept", "Chapter 12, Part 3", "chapter-12-part-3"},
		{"leading punctuation trimmed", "...and then", "and-then"},
		{"trailing punctuation trimmed", "the end!!!", "the-end"},
		{"consecutive separators", "a -- b", "a-b"},
		{"unicode dropped", "café au lait", "caf-au-lait"},
		{"empty", "", ""},
		{"only punctuation", "?!?!", ""},
		{"apostrophes", "Don't Look Back", "don-t-look-back"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.input); got != tt.expected {
				t.Errorf("Slugify(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
