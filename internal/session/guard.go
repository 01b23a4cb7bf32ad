package session

import (
	"net/url"
	"strings"
)

// Decision is the guard's verdict for a path. When Allow is false the
// request must be redirected to Target instead of rendered.
type Decision struct {
	Allow  bool
	Target string
}

func allow() Decision { return Decision{Allow: true} }

func redirectTo(target string) Decision { return Decision{Target: target} }

// Guard classifies request paths into public, auth-only, and protected
// classes and decides, from the path and the session's authentication state
// alone, whether to let the request through. Evaluation is pure: it never
// touches tokens or performs I/O, so the same inputs always yield the same
// decision.
type Guard struct {
	authOnly  []string
	protected []string
}

// NewGuard returns a guard with the storefront's route classes. Any path not
// listed as auth-only or protected is public; the cart page stays public
// because carts are session-scoped and anonymous sessions build them too.
func NewGuard() *Guard {
	return &Guard{
		authOnly:  []string{"/login", "/register", "/password-reset"},
		protected: []string{"/profile", "/orders", "/checkout"},
	}
}

// Evaluate decides what to do with a request for path given the session's
// authentication state.
//
// Protected path without authentication redirects to the login page with the
// original path carried in the next query parameter. Auth-only paths (login,
// registration) redirect authenticated users to the home page. Everything
// else is allowed through regardless of state.
func (g *Guard) Evaluate(path string, authenticated bool) Decision {
	switch {
	case g.isProtected(path) && !authenticated:
		return redirectTo("/login?next=" + url.QueryEscape(path))
	case g.isAuthOnly(path) && authenticated:
		return redirectTo("/")
	default:
		return allow()
	}
}

func (g *Guard) isProtected(path string) bool {
	return matchAny(g.protected, path)
}

func (g *Guard) isAuthOnly(path string) bool {
	return matchAny(g.authOnly, path)
}

// matchAny reports whether path equals a prefix or sits beneath it. A prefix
// of /orders matches /orders and /orders/42 but not /orders-export.
func matchAny(prefixes []string, path string) bool {
	for _, p := range prefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}
