// Package archive is the HTTP client for the fan-fiction archive: typed
// fetches for works, series, user pages and listing pages, guest and
// authenticated sessions, and rate-limit detection. It never retries by
// itself; callers decide what to do with ErrRateLimited.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/antchfx/htmlquery"
	"github.com/charmbracelet/log"
	"github.com/vfaronov/httpheader"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://" + Host
	userAgent      = "froyo (https://github.com/froyo-dl/froyo)"

	// requestsPerMinute is the archive's documented courtesy budget when
	// request pacing is enabled.
	requestsPerMinute = 12

	// userPageFetchLimit bounds how many listing pages we fetch at once
	// when walking a user's works or bookmarks concurrently.
	userPageFetchLimit = 5
)

var errEmptyDownload = errors.New("Downloaded 0 bytes")

// Options configures a Client.
type Options struct {
	// BaseURL overrides the archive endpoint, mainly for tests.
	BaseURL string

	// RateLimit enables the process-wide 12 requests/minute token bucket.
	RateLimit bool

	Logger *log.Logger
}

// Client talks to the archive on behalf of the current session. Methods are
// safe for concurrent use; the session reference is swapped atomically on
// login/logout, and an in-flight request simply completes with the session
// it started with.
type Client struct {
	base      *url.URL
	transport http.RoundTripper
	log       *log.Logger

	session atomic.Pointer[Session]
}

// NewClient builds a client with a guest session.
func NewClient(opts Options) (*Client, error) {
	rawurl := opts.BaseURL
	if rawurl == "" {
		rawurl = defaultBaseURL
	}
	base, err := url.Parse(rawurl)
	if err != nil {
		return nil, fmt.Errorf("parsing archive url: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	var transport http.RoundTripper = http.DefaultTransport
	transport = &headerTransport{key: "User-Agent", value: userAgent, next: transport}
	if opts.RateLimit {
		transport = &pacedTransport{
			limiter: rate.NewLimiter(rate.Every(time.Minute/requestsPerMinute), 1),
			next:    transport,
		}
		logger.Info("request pacing enabled", "requestsPerMinute", requestsPerMinute)
	}

	c := &Client{base: base, transport: transport, log: logger}
	c.session.Store(newSession(GuestUsername, false, transport))
	return c, nil
}

// Session returns the current session.
func (c *Client) Session() *Session { return c.session.Load() }

// Logout discards the current session and reverts to a guest.
func (c *Client) Logout() {
	c.session.Store(newSession(GuestUsername, false, c.transport))
}

// Login authenticates against the archive and installs the new session on
// success. The previous session is discarded either way.
func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	sess := newSession(username, true, c.transport)
	loginURL := c.abs("/users/login")

	doc, err := c.getDoc(ctx, sess, loginURL)
	if err != nil {
		return nil, fmt.Errorf("fetching login form: %w", err)
	}
	token, err := parseAuthToken(doc)
	if err != nil {
		return nil, fmt.Errorf("scraping login token: %w", err)
	}

	form := url.Values{
		"user[login]":        {username},
		"user[password]":     {password},
		"user[remember_me]":  {"1"},
		"authenticity_token": {token},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, loginURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := sess.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, rateLimitError(resp)
	}

	doc, err = htmlquery.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing login response: %w", err)
	}
	if htmlquery.FindOne(doc, "//a[contains(@href,'/users/logout')]") == nil {
		return nil, ErrInvalidCredentials
	}

	c.session.Store(sess)
	c.log.Info("authenticated", "user", username)
	return sess, nil
}

// GetWork fetches and parses the metadata page of a work. Restricted works
// seen from a guest session return ErrAuthRequired.
func (c *Client) GetWork(ctx context.Context, id int64) (*Work, error) {
	doc, err := c.getDoc(ctx, c.Session(), c.abs(fmt.Sprintf("/works/%d?view_adult=true", id)))
	if err != nil {
		return nil, err
	}
	return parseWork(doc, id)
}

// DownloadWork fetches the rendered e-book bytes for a work. The body must
// be non-empty; a zero-byte response is an error so callers never write
// empty files.
func (c *Client) DownloadWork(ctx context.Context, id int64, filetype string) ([]byte, error) {
	rawurl := c.abs(fmt.Sprintf("/downloads/%d/work.%s", id, strings.ToLower(filetype)))
	resp, err := c.get(ctx, c.Session(), rawurl)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading download body: %w", err)
	}
	if len(data) == 0 {
		return nil, errEmptyDownload
	}
	return data, nil
}

// GetSeries fetches a series page and the work stubs it lists.
func (c *Client) GetSeries(ctx context.Context, id int64) (*Series, error) {
	doc, err := c.getDoc(ctx, c.Session(), c.abs(fmt.Sprintf("/series/%d", id)))
	if err != nil {
		return nil, err
	}
	return parseSeries(doc, id)
}

// GetUserWorks returns stubs for every work the user has posted, walking
// all pages. With concurrent set, pages after the first are fetched in
// parallel (bounded).
func (c *Client) GetUserWorks(ctx context.Context, username string, concurrent bool) ([]WorkStub, error) {
	return c.userStubs(ctx, username, "works", concurrent)
}

// GetUserBookmarks returns stubs for every work the user has bookmarked.
// For the authenticated session user this includes private bookmarks, since
// the session cookies ride along.
func (c *Client) GetUserBookmarks(ctx context.Context, username string, concurrent bool) ([]WorkStub, error) {
	return c.userStubs(ctx, username, "bookmarks", concurrent)
}

func (c *Client) userStubs(ctx context.Context, username, kind string, concurrent bool) ([]WorkStub, error) {
	sess := c.Session()
	pageURL := func(page int) string {
		u := c.abs(fmt.Sprintf("/users/%s/%s", url.PathEscape(username), kind))
		if page > 1 {
			u += fmt.Sprintf("?page=%d", page)
		}
		return u
	}

	doc, err := c.getDoc(ctx, sess, pageURL(1))
	if err != nil {
		return nil, err
	}
	if htmlquery.FindOne(doc, "//div[@id='main']") == nil {
		return nil, &RateLimitError{}
	}

	pages := parsePageCount(doc)
	perPage := make([][]WorkStub, pages)
	perPage[0] = parseWorkStubs(doc)

	if pages > 1 {
		g, gctx := errgroup.WithContext(ctx)
		if concurrent {
			g.SetLimit(userPageFetchLimit)
		} else {
			g.SetLimit(1)
		}
		for page := 2; page <= pages; page++ {
			page := page
			g.Go(func() error {
				doc, err := c.getDoc(gctx, sess, pageURL(page))
				if err != nil {
					return err
				}
				perPage[page-1] = parseWorkStubs(doc)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	var stubs []WorkStub
	for _, page := range perPage {
		stubs = append(stubs, page...)
	}
	return stubs, nil
}

// UserExists probes a user's profile with a HEAD request. The archive
// redirects unknown profiles to the homepage, so a 200 means the user
// exists and a redirect means they don't.
func (c *Client) UserExists(ctx context.Context, username string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead,
		c.abs(fmt.Sprintf("/users/%s/profile", url.PathEscape(username))), nil)
	if err != nil {
		return false, err
	}
	resp, err := c.Session().http.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return false, rateLimitError(resp)
	case resp.StatusCode == http.StatusOK:
		return true, nil
	default:
		return false, nil
	}
}

// GetListing probes a listing URL and returns its total page count.
func (c *Client) GetListing(ctx context.Context, rawurl string) (int, error) {
	norm, err := c.NormalizeListingURL(rawurl, 0)
	if err != nil {
		return 0, err
	}
	doc, err := c.getDoc(ctx, c.Session(), norm)
	if err != nil {
		return 0, err
	}
	if htmlquery.FindOne(doc, "//div[@id='main']") == nil {
		return 0, &RateLimitError{}
	}
	return parsePageCount(doc), nil
}

// GetListingPage fetches one page of a listing and returns the work IDs it
// lists.
func (c *Client) GetListingPage(ctx context.Context, rawurl string, page int) ([]int64, error) {
	norm, err := c.NormalizeListingURL(rawurl, page)
	if err != nil {
		return nil, err
	}
	doc, err := c.getDoc(ctx, c.Session(), norm)
	if err != nil {
		return nil, err
	}
	return parseListingWorkIDs(doc)
}

// NormalizeListingURL validates that rawurl points at the archive (or at
// this client's endpoint) and rewrites it against the client's base. A
// page > 0 sets the page parameter; otherwise any page parameter is
// stripped.
func (c *Client) NormalizeListingURL(rawurl string, page int) (string, error) {
	u, err := url.Parse(rawurl)
	if err != nil {
		return "", fmt.Errorf("parsing listing url: %w", err)
	}
	if u.Host != Host && u.Host != c.base.Host {
		return "", fmt.Errorf("%q is not an %s url", rawurl, Host)
	}

	q := u.Query()
	if page > 0 {
		q.Set("page", fmt.Sprint(page))
	} else {
		q.Del("page")
	}
	u.RawQuery = q.Encode()
	u.Scheme = c.base.Scheme
	u.Host = c.base.Host
	return u.String(), nil
}

// abs joins a path onto the client's base URL.
func (c *Client) abs(path string) string {
	u := *c.base
	u.Path, u.RawQuery = path, ""
	if q := strings.IndexByte(path, '?'); q >= 0 {
		u.Path, u.RawQuery = path[:q], path[q+1:]
	}
	return u.String()
}

// get issues a GET with the given session and maps 429 to a rate-limit
// error carrying any Retry-After hint.
func (c *Client) get(ctx context.Context, sess *Session, rawurl string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawurl, nil)
	if err != nil {
		return nil, err
	}
	resp, err := sess.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		resp.Body.Close()
		return nil, rateLimitError(resp)
	}
	return resp, nil
}

// getDoc GETs rawurl and parses the body as HTML.
func (c *Client) getDoc(ctx context.Context, sess *Session, rawurl string) (*html.Node, error) {
	resp, err := c.get(ctx, sess, rawurl)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, statusError(resp.StatusCode)
	}

	doc, err := htmlquery.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", rawurl, err)
	}
	return doc, nil
}

func rateLimitError(resp *http.Response) error {
	rl := &RateLimitError{}
	if t := httpheader.RetryAfter(resp.Header); !t.IsZero() {
		if d := time.Until(t); d > 0 {
			rl.RetryAfter = d
		}
	}
	return rl
}
