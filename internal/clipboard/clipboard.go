// Package clipboard extracts archive URLs from the system clipboard.
package clipboard

import (
	"net/url"
	"strings"

	"github.com/atotto/clipboard"
)

// ReadURLs reads the clipboard and returns every line that parses as an
// http(s) URL. Blank lines and anything else are skipped.
func ReadURLs() ([]string, error) {
	text, err := clipboard.ReadAll()
	if err != nil {
		return nil, err
	}

	var urls []string
	for _, line := range strings.FieldsFunc(text, func(r rune) bool { return r == '\n' || r == '\r' }) {
		if u := validURL(line); u != "" {
			urls = append(urls, u)
		}
	}
	return urls, nil
}

func validURL(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "http://") && !strings.HasPrefix(text, "https://") {
		return ""
	}
	parsed, err := url.Parse(text)
	if err != nil || parsed.Host == "" {
		return ""
	}
	return parsed.String()
}
