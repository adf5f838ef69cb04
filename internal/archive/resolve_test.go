package archive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkID(t *testing.T) {
	tests := []struct {
		name  string
		url   string
		id    int64
		valid bool
	}{
		{"plain work url", "https://archiveofourown.org/works/12345", 12345, true},
		{"chapter url", "https://archiveofourown.org/works/12345/chapters/67", 12345, true},
		{"query string", "https://archiveofourown.org/works/12345?view_adult=true", 12345, true},
		{"series url", "https://archiveofourown.org/series/77", 0, false},
		{"non-numeric id", "https://archiveofourown.org/works/abc", 0, false},
		{"trailing works segment", "https://archiveofourown.org/users/ada/works", 0, false},
		{"not a url", "hello there", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := WorkID(tt.url)
			assert.Equal(t, tt.valid, ok)
			assert.Equal(t, tt.id, id)
		})
	}
}

func TestSeriesID(t *testing.T) {
	id, ok := SeriesID("https://archiveofourown.org/series/77")
	require.True(t, ok)
	assert.Equal(t, int64(77), id)

	_, ok = SeriesID("https://archiveofourown.org/works/12345")
	assert.False(t, ok)
}

func TestListingURL(t *testing.T) {
	got, err := ListingURL("https://archiveofourown.org/tags/x/works?page=5", 0)
	require.NoError(t, err)
	assert.Equal(t, "https://archiveofourown.org/tags/x/works", got)

	got, err = ListingURL("https://archiveofourown.org/tags/x/works", 3)
	require.NoError(t, err)
	assert.Equal(t, "https://archiveofourown.org/tags/x/works?page=3", got)

	_, err = ListingURL("https://example.com/tags/x/works", 1)
	assert.Error(t, err)
}
