package archive

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Host is the archive's hostname. All requests are scoped to it.
const Host = "archiveofourown.org"

// WorkID extracts a work ID from an archive work URL, for example
// https://archiveofourown.org/works/12345 or /works/12345/chapters/67.
// The second return value is false when the URL does not reference a work.
func WorkID(rawurl string) (int64, bool) {
	return idAfterSegment(rawurl, "works")
}

// SeriesID extracts a series ID from an archive series URL.
func SeriesID(rawurl string) (int64, bool) {
	return idAfterSegment(rawurl, "series")
}

// idAfterSegment finds the path segment following name and returns it if it
// is purely digits.
func idAfterSegment(rawurl, name string) (int64, bool) {
	parts := strings.Split(rawurl, "/")
	for i, part := range parts {
		if part != name || i+1 >= len(parts) {
			continue
		}
		candidate, _, _ := strings.Cut(parts[i+1], "?")
		id, err := strconv.ParseInt(candidate, 10, 64)
		if err != nil || id <= 0 {
			return 0, false
		}
		return id, true
	}
	return 0, false
}

// ListingURL normalizes a listing URL (tag pages, search results, user
// pages) for the archive host. When page > 0 the page query parameter is set
// to it; otherwise any existing page parameter is stripped. URLs on other
// hosts are rejected so credentials and requests can't leak elsewhere.
func ListingURL(rawurl string, page int) (string, error) {
	u, err := url.Parse(rawurl)
	if err != nil {
		return "", fmt.Errorf("parsing listing url: %w", err)
	}
	if u.Host != Host {
		return "", fmt.Errorf("%q is not an %s url", rawurl, Host)
	}

	q := u.Query()
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	} else {
		q.Del("page")
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
