package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/AlexMobiCraft/freesport-storefront/internal/backend"
	"github.com/AlexMobiCraft/freesport-storefront/internal/cart"
	"github.com/AlexMobiCraft/freesport-storefront/internal/session"
	apperrors "github.com/AlexMobiCraft/freesport-storefront/pkg/errors"
	"github.com/AlexMobiCraft/freesport-storefront/pkg/httputil"
	"github.com/AlexMobiCraft/freesport-storefront/pkg/validator"
)

// OrderPublisher emits checkout events. Best-effort, like cart events.
type OrderPublisher interface {
	OrderPlaced(ctx context.Context, sessionID string, conf *backend.OrderConfirmation) error
}

// CheckoutHandler turns the session's cart into an order.
type CheckoutHandler struct {
	api      *backend.Client
	carts    *cart.Service
	sessions *session.Store
	events   OrderPublisher
	logger   *slog.Logger
}

// NewCheckoutHandler creates the checkout handler. events may be nil.
func NewCheckoutHandler(api *backend.Client, carts *cart.Service, sessions *session.Store, events OrderPublisher, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{api: api, carts: carts, sessions: sessions, events: events, logger: logger}
}

// Summary returns what the checkout page renders: the cart with totals.
func (h *CheckoutHandler) Summary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	c, err := h.carts.Get(ctx, SessionID(ctx))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if len(c.Items) == 0 {
		httputil.WriteError(w, r, apperrors.InvalidInput("cart is empty"), h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: viewOf(c)})
}

// Place submits the order and clears the cart on success.
func (h *CheckoutHandler) Place(w http.ResponseWriter, r *http.Request) {
	sid, ok := requireAuth(h.sessions, w, r, h.logger)
	if !ok {
		return
	}

	var req backend.OrderRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	ctx := r.Context()

	c, err := h.carts.Get(ctx, sid)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if len(c.Items) == 0 {
		httputil.WriteError(w, r, apperrors.InvalidInput("cart is empty"), h.logger)
		return
	}

	conf, err := h.api.PlaceOrder(ctx, sid, req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	// The order now owns the items; the cart starts over.
	if err := h.carts.Clear(ctx, sid); err != nil {
		h.logger.ErrorContext(ctx, "failed to clear cart after checkout",
			slog.String("order_id", conf.OrderID),
			slog.Any("error", err),
		)
	}

	if h.events != nil {
		if err := h.events.OrderPlaced(ctx, sid, conf); err != nil {
			h.logger.WarnContext(ctx, "failed to publish order event", slog.Any("error", err))
		}
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: conf})
}
