package web

import (
	"context"
	"crypto/rand"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/xsrftoken"

	"github.com/devraulu/alisopan/pkg/config"
)

const (
	csrfField    = "csrf_token"
	searchAction = "search"
)

type ctxKey int

const sessionKey ctxKey = iota

// csrfGuard issues and checks anti-forgery tokens bound to a per-browser
// session ID. The session ID travels in a cookie and, for the lifetime of a
// request, in the request context.
type csrfGuard struct {
	key        string
	cookieName string
	secure     bool
	ttl        time.Duration
}

func newCSRFGuard(cfg config.SecurityConfig) *csrfGuard {
	key := cfg.CSRFKey
	if key == "" {
		key = rand.Text()
		slog.Warn("no csrf_key configured, using a per-process key; tokens will not survive restarts")
	}
	return &csrfGuard{
		key:        key,
		cookieName: cfg.CookieName,
		secure:     cfg.CookieSecure,
		ttl:        cfg.GetTokenTTL(),
	}
}

// withSession makes sure every request carries a session ID, issuing a new
// cookie when the browser has none or sent something that is not ours.
func (g *csrfGuard) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := g.sessionID(r)
		if id == "" {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     g.cookieName,
				Value:    id,
				Path:     "/",
				MaxAge:   int(g.ttl.Seconds()),
				HttpOnly: true,
				Secure:   g.secure,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, id)))
	})
}

func (g *csrfGuard) sessionID(r *http.Request) string {
	c, err := r.Cookie(g.cookieName)
	if err != nil {
		return ""
	}
	if _, err := uuid.Parse(c.Value); err != nil {
		return ""
	}
	return c.Value
}

func sessionFrom(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey).(string)
	return id
}

// token returns the anti-forgery token for the request's session.
func (g *csrfGuard) token(r *http.Request) string {
	return xsrftoken.Generate(g.key, sessionFrom(r.Context()), searchAction)
}

// verify checks the submitted form token against the request's session. The
// form must already be parsed.
func (g *csrfGuard) verify(r *http.Request) bool {
	session := sessionFrom(r.Context())
	if session == "" {
		return false
	}
	submitted := r.PostForm.Get(csrfField)
	if submitted == "" {
		return false
	}
	return xsrftoken.ValidFor(submitted, g.key, session, searchAction, g.ttl)
}
