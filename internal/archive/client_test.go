package archive

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Options{BaseURL: srv.URL})
	require.NoError(t, err)
	return c, srv
}

func TestGetWork(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/works/12345", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("view_adult"))
		fmt.Fprint(w, `<html><body><div id="workskin">
			<h2 class="title">Alpha</h2>
			<h3 class="byline"><a rel="author">ada</a></h3>
			</div>
			<dd class="chapters">3/3</dd>
			<dd class="words">100</dd></body></html>`)
	}))

	work, err := c.GetWork(context.Background(), 12345)
	require.NoError(t, err)
	assert.Equal(t, "Alpha", work.Title)
	assert.True(t, work.Complete())
}

func TestGetWorkRateLimited(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	_, err := c.GetWork(context.Background(), 1)
	require.ErrorIs(t, err, ErrRateLimited)

	var rl *RateLimitError
	require.ErrorAs(t, err, &rl)
	assert.InDelta(t, 30*time.Second, rl.RetryAfter, float64(2*time.Second))
}

func TestGetWorkNotFound(t *testing.T) {
	c, _ := newTestClient(t, http.NotFoundHandler())

	_, err := c.GetWork(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDownloadWork(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/downloads/5/work.epub", r.URL.Path)
		fmt.Fprint(w, "ebook bytes")
	}))

	data, err := c.DownloadWork(context.Background(), 5, "EPUB")
	require.NoError(t, err)
	assert.Equal(t, []byte("ebook bytes"), data)
}

func TestDownloadWorkEmptyBody(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	_, err := c.DownloadWork(context.Background(), 5, "PDF")
	require.Error(t, err)
	assert.Equal(t, "Downloaded 0 bytes", err.Error())
}

func TestLogin(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			fmt.Fprint(w, `<html><body><form id="new_user_session">
				<input name="authenticity_token" value="tok"/></form></body></html>`)
		case http.MethodPost:
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "ada", r.PostForm.Get("user[login]"))
			assert.Equal(t, "tok", r.PostForm.Get("authenticity_token"))
			if r.PostForm.Get("user[password]") != "s3cret" {
				fmt.Fprint(w, `<html><body><p>The password or user name you entered doesn't match our records.</p></body></html>`)
				return
			}
			fmt.Fprint(w, `<html><body><a href="/users/logout">Log Out</a></body></html>`)
		}
	}))

	require.False(t, c.Session().Authed())
	assert.Equal(t, GuestUsername, c.Session().Username())

	_, err := c.Login(context.Background(), "ada", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.False(t, c.Session().Authed())

	sess, err := c.Login(context.Background(), "ada", "s3cret")
	require.NoError(t, err)
	assert.True(t, sess.Authed())
	assert.Equal(t, "ada", c.Session().Username())

	c.Logout()
	assert.False(t, c.Session().Authed())
	assert.Equal(t, GuestUsername, c.Session().Username())
}

func TestUserExists(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodHead, r.Method)
		switch r.URL.Path {
		case "/users/ada/profile":
			w.WriteHeader(http.StatusOK)
		default:
			// Unknown profiles redirect to the homepage.
			w.Header().Set("Location", "/")
			w.WriteHeader(http.StatusFound)
		}
	}))

	exists, err := c.UserExists(context.Background(), "ada")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = c.UserExists(context.Background(), "ghost")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestGetUserWorksWalksAllPages(t *testing.T) {
	var mu sync.Mutex
	pagesSeen := make(map[int]bool)

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/ada/works", r.URL.Path)
		page := 1
		fmt.Sscanf(r.URL.Query().Get("page"), "%d", &page)
		mu.Lock()
		pagesSeen[page] = true
		mu.Unlock()

		stub := fmt.Sprintf(`<li id="work_%d" role="article"><h4><a>W%d</a></h4></li>`, page*10, page*10)
		fmt.Fprintf(w, `<html><body><div id="main">
			<ol class="index group">%s</ol>
			<ol role="navigation"><li>1</li><li>2</li><li>3</li><li class="next">Next</li></ol>
			</div></body></html>`, stub)
	}))

	stubs, err := c.GetUserWorks(context.Background(), "ada", true)
	require.NoError(t, err)

	// Pages are concatenated in order regardless of fetch order.
	require.Len(t, stubs, 3)
	assert.Equal(t, []WorkStub{{ID: 10, Title: "W10"}, {ID: 20, Title: "W20"}, {ID: 30, Title: "W30"}}, stubs)
	assert.Equal(t, map[int]bool{1: true, 2: true, 3: true}, pagesSeen)
}

func TestGetUserWorksDegeneratePage(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><p>one moment</p></body></html>`)
	}))

	_, err := c.GetUserWorks(context.Background(), "ada", false)
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestGetListing(t *testing.T) {
	c, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tags/x/works", r.URL.Path)
		assert.Empty(t, r.URL.Query().Get("page"))
		fmt.Fprint(w, `<html><body><div id="main">
			<ol class="work index group"></ol>
			<ol role="navigation"><li>1</li><li>4</li><li class="next">Next</li></ol>
			</div></body></html>`)
	}))

	// Archive-host URLs are rewritten onto the client's endpoint.
	total, err := c.GetListing(context.Background(), "https://archiveofourown.org/tags/x/works?page=9")
	require.NoError(t, err)
	assert.Equal(t, 4, total)

	// URLs already on the client's endpoint are accepted as-is.
	total, err = c.GetListing(context.Background(), srv.URL+"/tags/x/works")
	require.NoError(t, err)
	assert.Equal(t, 4, total)

	_, err = c.GetListing(context.Background(), "https://example.com/tags/x/works")
	assert.Error(t, err)
}

func TestGetListingPage(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		fmt.Fprint(w, `<html><body><div id="main">
			<ol class="work index group">
			<li id="work_7" role="article"><h4><a>Seven</a></h4></li>
			</ol></div></body></html>`)
	}))

	ids, err := c.GetListingPage(context.Background(), "https://archiveofourown.org/tags/x/works", 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{7}, ids)
}
