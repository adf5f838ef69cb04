package archive

import (
	"net/http"
	"net/http/cookiejar"
)

// GuestUsername is the fixed identity of an unauthenticated session. It is
// also the per-user directory name guests download into.
const GuestUsername = "guest"

// Session is either a guest session or one authenticated as an archive
// user. Exactly one session is active on a Client at a time. Each session
// owns its cookie jar; the transport underneath (and with it the pacing
// budget) is shared by all sessions of the client.
type Session struct {
	username string
	authed   bool
	http     *http.Client
}

func newSession(username string, authed bool, transport http.RoundTripper) *Session {
	jar, _ := cookiejar.New(nil)
	return &Session{
		username: username,
		authed:   authed,
		http: &http.Client{
			Jar:       jar,
			Transport: transport,
			CheckRedirect: func(req *http.Request, _ []*http.Request) error {
				// HEAD requests must not follow redirects: the user-exists
				// probe relies on seeing the redirect status itself.
				if req.Method == http.MethodHead {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// Username returns the session's user, or GuestUsername.
func (s *Session) Username() string { return s.username }

// Authed reports whether the session is logged in.
func (s *Session) Authed() bool { return s.authed }
