package http

import (
	"log/slog"
	"net/http"

	"github.com/AlexMobiCraft/freesport-storefront/internal/backend"
	"github.com/AlexMobiCraft/freesport-storefront/internal/cart"
	"github.com/AlexMobiCraft/freesport-storefront/internal/domain"
	"github.com/AlexMobiCraft/freesport-storefront/internal/session"
	apperrors "github.com/AlexMobiCraft/freesport-storefront/pkg/errors"
	"github.com/AlexMobiCraft/freesport-storefront/pkg/httputil"
	"github.com/AlexMobiCraft/freesport-storefront/pkg/validator"
)

// AuthHandler serves login, registration, logout, and the session view.
type AuthHandler struct {
	api      *backend.Client
	sessions *session.Store
	carts    *cart.Service
	logger   *slog.Logger
}

// NewAuthHandler creates the auth handler.
func NewAuthHandler(api *backend.Client, sessions *session.Store, carts *cart.Service, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{api: api, sessions: sessions, carts: carts, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Next     string `json:"next,omitempty"`
}

type authResponse struct {
	User     *domain.User `json:"user"`
	Redirect string       `json:"redirect"`
}

// Login exchanges credentials for tokens, binds them to the session, and
// pulls the profile and server cart in.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	ctx := r.Context()
	sid := SessionID(ctx)

	pair, err := h.api.Login(ctx, backend.LoginRequest{Email: req.Email, Password: req.Password})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if err := h.sessions.SetTokens(ctx, sid, pair.AccessToken, pair.RefreshToken); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	user, err := h.api.Me(ctx, sid)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	h.sessions.SetUser(sid, user)

	// Pull the account's server-side cart over the anonymous one.
	if _, err := h.carts.Reconcile(ctx, sid); err != nil {
		h.logger.WarnContext(ctx, "cart reconciliation after login failed", slog.Any("error", err))
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: authResponse{
		User:     user,
		Redirect: safeNext(req.Next),
	}})
}

// Register creates an account and signs the session in with its tokens.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req backend.RegisterRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	ctx := r.Context()
	sid := SessionID(ctx)

	pair, err := h.api.Register(ctx, req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if err := h.sessions.SetTokens(ctx, sid, pair.AccessToken, pair.RefreshToken); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	user, err := h.api.Me(ctx, sid)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	h.sessions.SetUser(sid, user)

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: authResponse{
		User:     user,
		Redirect: "/",
	}})
}

// Logout clears the session's credentials. Always succeeds from the
// client's point of view.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.sessions.Logout(ctx, SessionID(ctx)); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"redirect": "/"}})
}

// Profile returns the signed-in account's profile, from cache when warm.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := SessionID(ctx)

	if user, ok := h.sessions.User(sid); ok {
		httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: user})
		return
	}

	user, err := h.api.Me(ctx, sid)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	h.sessions.SetUser(sid, user)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: user})
}

// Orders returns the signed-in account's order history.
func (h *AuthHandler) Orders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orders, err := h.api.ListOrders(ctx, SessionID(ctx))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{"orders": orders}})
}

type sessionView struct {
	Authenticated bool         `json:"authenticated"`
	User          *domain.User `json:"user,omitempty"`
}

// Session reports the session's authentication state for the frontend shell.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	sid := SessionID(r.Context())
	view := sessionView{Authenticated: h.sessions.HasSession(r.Context(), sid)}
	if user, ok := h.sessions.User(sid); ok {
		view.User = user
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: view})
}

// requireAuth rejects unauthenticated mutation requests with a JSON error.
func requireAuth(sessions *session.Store, w http.ResponseWriter, r *http.Request, logger *slog.Logger) (string, bool) {
	sid := SessionID(r.Context())
	if !sessions.HasSession(r.Context(), sid) {
		httputil.WriteError(w, r, apperrors.Unauthorized("authentication required"), logger)
		return "", false
	}
	return sid, true
}

// safeNext keeps post-login redirects on-site. Anything that is not a
// local absolute path falls back to the home page.
func safeNext(next string) string {
	if next == "" || next[0] != '/' {
		return "/"
	}
	if len(next) > 1 && (next[1] == '/' || next[1] == '\\') {
		// Protocol-relative URLs escape the site; browsers treat a
		// backslash after the slash the same way.
		return "/"
	}
	return next
}
