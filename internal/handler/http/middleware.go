package http

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/AlexMobiCraft/freesport-storefront/internal/session"
	"github.com/AlexMobiCraft/freesport-storefront/pkg/logger"
)

type contextKey string

const sessionIDKey contextKey = "session_id"

// SessionID returns the session ID placed in the context by SessionCookie.
func SessionID(ctx context.Context) string {
	if id, ok := ctx.Value(sessionIDKey).(string); ok {
		return id
	}
	return ""
}

// SessionCookie ensures every request carries a session ID. A request
// without the cookie gets a fresh one; the ID also lands in the context and
// in the request-scoped logger.
func SessionCookie(name string, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var sid string
			if c, err := r.Cookie(name); err == nil && c.Value != "" {
				sid = c.Value
			} else {
				sid = uuid.New().String()
				http.SetCookie(w, &http.Cookie{
					Name:     name,
					Value:    sid,
					Path:     "/",
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := context.WithValue(r.Context(), sessionIDKey, sid)
			ctx = logger.WithSessionID(ctx, sid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Guard applies the route-class rules to page navigation. Only GET and HEAD
// are guarded; mutation endpoints answer with JSON errors instead of
// redirects.
func Guard(guard *session.Guard, sessions *session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			sid := SessionID(r.Context())
			decision := guard.Evaluate(r.URL.Path, sessions.HasSession(r.Context(), sid))
			if !decision.Allow {
				http.Redirect(w, r, decision.Target, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
