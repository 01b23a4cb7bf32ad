package http

import (
	"net/http"

	"github.com/AlexMobiCraft/freesport-storefront/internal/domain"
	"github.com/AlexMobiCraft/freesport-storefront/internal/session"
	"github.com/AlexMobiCraft/freesport-storefront/pkg/httputil"
)

// PageHandler serves the shell view model for pages whose content lives in
// the frontend. The storefront contributes the part the frontend cannot
// know: the session's state for the requested path.
type PageHandler struct {
	sessions *session.Store
}

// NewPageHandler creates the page shell handler.
func NewPageHandler(sessions *session.Store) *PageHandler {
	return &PageHandler{sessions: sessions}
}

type shellView struct {
	Path          string       `json:"path"`
	Authenticated bool         `json:"authenticated"`
	User          *domain.User `json:"user,omitempty"`
}

// Shell returns the session context for a public or auth-only page. The
// guard has already run; reaching this handler means the page may render.
func (h *PageHandler) Shell(w http.ResponseWriter, r *http.Request) {
	sid := SessionID(r.Context())
	view := shellView{
		Path:          r.URL.Path,
		Authenticated: h.sessions.HasSession(r.Context(), sid),
	}
	if user, ok := h.sessions.User(sid); ok {
		view.User = user
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: view})
}
