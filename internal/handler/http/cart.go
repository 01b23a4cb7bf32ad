package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AlexMobiCraft/freesport-storefront/internal/cart"
	"github.com/AlexMobiCraft/freesport-storefront/internal/domain"
	"github.com/AlexMobiCraft/freesport-storefront/internal/session"
	"github.com/AlexMobiCraft/freesport-storefront/pkg/httputil"
	"github.com/AlexMobiCraft/freesport-storefront/pkg/validator"
)

// CartHandler serves the session cart endpoints.
type CartHandler struct {
	carts    *cart.Service
	sessions *session.Store
	logger   *slog.Logger
}

// NewCartHandler creates the cart handler.
func NewCartHandler(carts *cart.Service, sessions *session.Store, logger *slog.Logger) *CartHandler {
	return &CartHandler{carts: carts, sessions: sessions, logger: logger}
}

// cartView is the cart as the frontend renders it: lines plus the derived
// totals, recomputed on every read.
type cartView struct {
	ID        string            `json:"id"`
	Items     []domain.CartItem `json:"items"`
	Promo     *domain.Promo     `json:"promo,omitempty"`
	Currency  string            `json:"currency"`
	ItemCount int               `json:"item_count"`
	Subtotal  int64             `json:"subtotal"`
	Discount  int64             `json:"discount"`
	Total     int64             `json:"total_amount"`
	Version   int               `json:"version"`
}

func viewOf(c *domain.Cart) cartView {
	return cartView{
		ID:        c.ID,
		Items:     c.Items,
		Promo:     c.Promo,
		Currency:  c.Currency,
		ItemCount: c.ItemCount(),
		Subtotal:  c.Subtotal(),
		Discount:  c.Discount(),
		Total:     c.TotalAmount(),
		Version:   c.Version,
	}
}

// Get returns the session's cart.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Get(r.Context(), SessionID(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: viewOf(c)})
}

type addItemRequest struct {
	domain.Product
	VariantID string `json:"variant_id,omitempty"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// AddItem puts a product into the cart. The unit price is resolved from the
// product's price columns by the session's pricing tier; anonymous sessions
// pay retail.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	sid := SessionID(r.Context())

	role := domain.RoleRetail
	if user, ok := h.sessions.User(sid); ok {
		role = user.Role
	}

	c, err := h.carts.AddItem(r.Context(), sid, domain.CartItem{
		ProductID: req.ID,
		VariantID: req.VariantID,
		Name:      req.Name,
		SKU:       req.SKU,
		UnitPrice: req.PriceFor(role),
		Quantity:  req.Quantity,
		ImageURL:  req.ImageURL,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: viewOf(c)})
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

// UpdateItem sets the quantity of a cart line. Quantity zero removes it.
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req updateQuantityRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	c, err := h.carts.UpdateQuantity(r.Context(), SessionID(r.Context()), chi.URLParam(r, "lineID"), req.Quantity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: viewOf(c)})
}

// RemoveItem deletes a cart line.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.RemoveItem(r.Context(), SessionID(r.Context()), chi.URLParam(r, "lineID"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: viewOf(c)})
}

// Clear empties the cart.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.carts.Clear(ctx, SessionID(ctx)); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type applyPromoRequest struct {
	Code  string `json:"code" validate:"required"`
	Kind  string `json:"kind" validate:"required,oneof=percent fixed"`
	Value int64  `json:"value" validate:"required,gt=0"`
}

// ApplyPromo attaches a promo code to the cart.
func (h *CartHandler) ApplyPromo(w http.ResponseWriter, r *http.Request) {
	var req applyPromoRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	c, err := h.carts.ApplyPromo(r.Context(), SessionID(r.Context()), domain.Promo{
		Code:  req.Code,
		Kind:  domain.PromoKind(req.Kind),
		Value: req.Value,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: viewOf(c)})
}

// RemovePromo detaches the promo code from the cart.
func (h *CartHandler) RemovePromo(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.RemovePromo(r.Context(), SessionID(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: viewOf(c)})
}

// Reconcile pulls the server's cart over the local copy. Requires a
// signed-in session since the server cart is account-scoped.
func (h *CartHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	sid, ok := requireAuth(h.sessions, w, r, h.logger)
	if !ok {
		return
	}

	c, err := h.carts.Reconcile(r.Context(), sid)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: viewOf(c)})
}
