package clipboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"https url", "https://archiveofourown.org/works/1", "https://archiveofourown.org/works/1"},
		{"http url", "http://archiveofourown.org/works/1", "http://archiveofourown.org/works/1"},
		{"surrounding whitespace", "  https://archiveofourown.org/works/1  ", "https://archiveofourown.org/works/1"},
		{"not a url", "hello world", ""},
		{"missing scheme", "archiveofourown.org/works/1", ""},
		{"scheme only", "https://", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, validURL(tt.input))
		})
	}
}
