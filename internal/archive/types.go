package archive

import "time"

// Filetypes the archive can render a work into.
var Filetypes = []string{"AZW3", "EPUB", "HTML", "MOBI", "PDF"}

// ValidFiletype reports whether ft names a downloadable format.
func ValidFiletype(ft string) bool {
	for _, v := range Filetypes {
		if v == ft {
			return true
		}
	}
	return false
}

// Work is the metadata scraped from a work page.
type Work struct {
	ID      int64
	Title   string
	Authors []string

	// ChaptersExpected is 0 when the archive reports "?" for an unfinished
	// work with no planned chapter count.
	ChaptersPublished int
	ChaptersExpected  int

	Words   int
	Updated time.Time
}

// Complete reports whether all planned chapters have been posted.
func (w *Work) Complete() bool {
	return w.ChaptersExpected > 0 && w.ChaptersPublished >= w.ChaptersExpected
}

// WorkStub is the minimal reference to a work found on series, user, and
// listing pages.
type WorkStub struct {
	ID    int64
	Title string
}

// Series is a series page: its title plus the works it contains, in archive
// order.
type Series struct {
	ID    int64
	Title string
	Works []WorkStub
}
