package archive

import (
	"strconv"
	"strings"
	"time"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// The archive occasionally serves an otherwise-parseable page with the
// expected root element missing. The observed cause is silent throttling
// returning an empty document, so parsers report it as a rate limit.

// parseWork extracts work metadata from a work page.
func parseWork(doc *html.Node, id int64) (*Work, error) {
	if htmlquery.FindOne(doc, "//div[@id='workskin']") == nil {
		if htmlquery.FindOne(doc, "//form[@id='new_user_session'] | //form[@id='new_user_session_small']") != nil {
			return nil, ErrAuthRequired
		}
		return nil, &RateLimitError{}
	}

	work := &Work{ID: id}

	if n := htmlquery.FindOne(doc, "//h2[contains(@class,'title')]"); n != nil {
		work.Title = strings.TrimSpace(htmlquery.InnerText(n))
	}
	for _, n := range htmlquery.Find(doc, "//h3[contains(@class,'byline')]//a[@rel='author']") {
		work.Authors = append(work.Authors, strings.TrimSpace(htmlquery.InnerText(n)))
	}

	if n := htmlquery.FindOne(doc, "//dd[contains(@class,'chapters')]"); n != nil {
		work.ChaptersPublished, work.ChaptersExpected = parseChapters(htmlquery.InnerText(n))
	}
	if n := htmlquery.FindOne(doc, "//dd[contains(@class,'words')]"); n != nil {
		work.Words = parseCount(htmlquery.InnerText(n))
	}
	// Updated works carry a status date; single-chapter works only the
	// published date.
	for _, sel := range []string{"//dd[contains(@class,'status')]", "//dd[contains(@class,'published')]"} {
		n := htmlquery.FindOne(doc, sel)
		if n == nil {
			continue
		}
		if ts, err := time.Parse("2006-01-02", strings.TrimSpace(htmlquery.InnerText(n))); err == nil {
			work.Updated = ts
			break
		}
	}

	return work, nil
}

// parseChapters splits the archive's "3/3" (or "2/?") chapter counter.
func parseChapters(text string) (published, expected int) {
	got, want, _ := strings.Cut(strings.TrimSpace(text), "/")
	published = parseCount(got)
	expected = parseCount(want) // "?" parses to 0
	return published, expected
}

// parseCount parses an integer that may use thousands separators.
func parseCount(text string) int {
	text = strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	n, _ := strconv.Atoi(text)
	return n
}

// parseWorkStubs collects the work blurbs on series, user, and bookmark
// pages. Blurbs are li elements with id="work_<n>"; entries whose heading is
// missing (deleted or mystery works) are skipped.
func parseWorkStubs(doc *html.Node) []WorkStub {
	var stubs []WorkStub
	for _, li := range htmlquery.Find(doc, "//li[starts-with(@id,'work_')]") {
		if htmlquery.FindOne(li, ".//h4") == nil {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimPrefix(htmlquery.SelectAttr(li, "id"), "work_"), 10, 64)
		if err != nil {
			continue
		}
		stub := WorkStub{ID: id}
		if a := htmlquery.FindOne(li, ".//h4//a[1]"); a != nil {
			stub.Title = strings.TrimSpace(htmlquery.InnerText(a))
		}
		stubs = append(stubs, stub)
	}
	return stubs
}

// parseSeries extracts the series title and work list from a series page.
func parseSeries(doc *html.Node, id int64) (*Series, error) {
	if htmlquery.FindOne(doc, "//div[@id='main']") == nil {
		return nil, &RateLimitError{}
	}

	series := &Series{ID: id}
	if n := htmlquery.FindOne(doc, "//h2[contains(@class,'heading')]"); n != nil {
		series.Title = strings.TrimSpace(htmlquery.InnerText(n))
	}
	series.Works = parseWorkStubs(doc)
	return series, nil
}

// parsePageCount reads the total page count from the pagination bar at the
// bottom of a listing page. The last item is the "Next" arrow, so the count
// sits second from the end. Listings short enough to have no bar are a
// single page.
func parsePageCount(doc *html.Node) int {
	items := htmlquery.Find(doc, "//ol[@role='navigation']/li")
	if len(items) < 2 {
		return 1
	}
	pages := parseCount(htmlquery.InnerText(items[len(items)-2]))
	if pages < 1 {
		return 1
	}
	return pages
}

// parseListingWorkIDs extracts every work ID from the article elements of a
// listing page.
func parseListingWorkIDs(doc *html.Node) ([]int64, error) {
	group := htmlquery.FindOne(doc, "//ol[contains(@class,'work') and contains(@class,'index') and contains(@class,'group')]")
	if group == nil {
		return nil, &RateLimitError{}
	}

	var ids []int64
	for _, li := range htmlquery.Find(group, "./li[@role='article']") {
		if htmlquery.FindOne(li, ".//h4") == nil {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimPrefix(htmlquery.SelectAttr(li, "id"), "work_"), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// parseAuthToken scrapes the CSRF token from the login form.
func parseAuthToken(doc *html.Node) (string, error) {
	n := htmlquery.FindOne(doc, "//input[@name='authenticity_token']")
	if n == nil {
		return "", &RateLimitError{}
	}
	return htmlquery.SelectAttr(n, "value"), nil
}
