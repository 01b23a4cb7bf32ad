package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/AlexMobiCraft/freesport-storefront/internal/domain"
	"github.com/AlexMobiCraft/freesport-storefront/internal/session"
	apperrors "github.com/AlexMobiCraft/freesport-storefront/pkg/errors"
)

// API is the slice of the marketplace client the cart service needs. The
// server copy is authoritative: local mutations are forwarded best-effort
// and Reconcile pulls the server's lines back over local ones.
type API interface {
	FetchCart(ctx context.Context, sessionID string) ([]domain.CartItem, string, error)
	AddCartItem(ctx context.Context, sessionID string, productID int64, variantID string, quantity int) error
	UpdateCartItem(ctx context.Context, sessionID, lineID string, quantity int) error
	RemoveCartItem(ctx context.Context, sessionID, lineID string) error
	ClearCart(ctx context.Context, sessionID string) error
}

// Publisher emits cart lifecycle events. Publishing is best-effort; a broker
// outage never fails a cart operation.
type Publisher interface {
	CartUpdated(ctx context.Context, cart *domain.Cart) error
}

// Service implements the session cart: local Redis copy for rendering,
// forwarded writes for authenticated sessions, and server-wins
// reconciliation.
type Service struct {
	repo      *Repository
	api       API
	sessions  *session.Store
	events    Publisher
	logger    *slog.Logger
	reconcile singleflight.Group
}

// NewService creates the cart service. events may be nil when no broker is
// configured.
func NewService(repo *Repository, api API, sessions *session.Store, events Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		api:      api,
		sessions: sessions,
		events:   events,
		logger:   logger,
	}
}

// Get returns the session's cart. A session without a cart gets an empty
// one; it is not persisted until the first mutation.
func (s *Service) Get(ctx context.Context, sessionID string) (*domain.Cart, error) {
	cart, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return s.emptyCart(sessionID), nil
		}
		return nil, err
	}
	return cart, nil
}

// AddItem puts a product into the cart. A line already holding the same
// product and variant absorbs the quantity instead of duplicating.
func (s *Service) AddItem(ctx context.Context, sessionID string, item domain.CartItem) (*domain.Cart, error) {
	if item.ProductID <= 0 {
		return nil, apperrors.InvalidInput("product id is required")
	}
	if item.Quantity <= 0 {
		return nil, apperrors.InvalidInput("quantity must be positive")
	}
	if item.UnitPrice < 0 {
		return nil, apperrors.InvalidInput("unit price must not be negative")
	}

	cart, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if i := cart.FindItem(item.ProductID, item.VariantID); i >= 0 {
		cart.Items[i].Quantity += item.Quantity
	} else {
		item.ID = uuid.New().String()
		cart.Items = append(cart.Items, item)
	}

	if err := s.persist(ctx, cart); err != nil {
		return nil, err
	}
	s.forward(ctx, sessionID, func(fctx context.Context) error {
		return s.api.AddCartItem(fctx, sessionID, item.ProductID, item.VariantID, item.Quantity)
	})
	return cart, nil
}

// UpdateQuantity sets the quantity of an existing line. Zero removes the
// line; a negative quantity is rejected.
func (s *Service) UpdateQuantity(ctx context.Context, sessionID, lineID string, quantity int) (*domain.Cart, error) {
	if quantity < 0 {
		return nil, apperrors.InvalidInput("quantity must not be negative")
	}

	cart, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	i := cart.FindLine(lineID)
	if i < 0 {
		return nil, apperrors.NotFound("cart item", lineID)
	}

	if quantity == 0 {
		cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
		if err := s.persist(ctx, cart); err != nil {
			return nil, err
		}
		s.forward(ctx, sessionID, func(fctx context.Context) error {
			return s.api.RemoveCartItem(fctx, sessionID, lineID)
		})
		return cart, nil
	}

	cart.Items[i].Quantity = quantity
	if err := s.persist(ctx, cart); err != nil {
		return nil, err
	}
	s.forward(ctx, sessionID, func(fctx context.Context) error {
		return s.api.UpdateCartItem(fctx, sessionID, lineID, quantity)
	})
	return cart, nil
}

// RemoveItem deletes a line from the cart.
func (s *Service) RemoveItem(ctx context.Context, sessionID, lineID string) (*domain.Cart, error) {
	cart, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	i := cart.FindLine(lineID)
	if i < 0 {
		return nil, apperrors.NotFound("cart item", lineID)
	}
	cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)

	if err := s.persist(ctx, cart); err != nil {
		return nil, err
	}
	s.forward(ctx, sessionID, func(fctx context.Context) error {
		return s.api.RemoveCartItem(fctx, sessionID, lineID)
	})
	return cart, nil
}

// ApplyPromo attaches a promo code to the cart. The discount itself is
// computed at read time against the current subtotal and clamped there, so
// an oversized code can never push the total negative.
func (s *Service) ApplyPromo(ctx context.Context, sessionID string, promo domain.Promo) (*domain.Cart, error) {
	if promo.Code == "" {
		return nil, apperrors.InvalidInput("promo code is required")
	}
	if promo.Kind != domain.PromoPercent && promo.Kind != domain.PromoFixed {
		return nil, apperrors.InvalidInput("unknown promo kind")
	}
	if promo.Value <= 0 {
		return nil, apperrors.InvalidInput("promo value must be positive")
	}

	cart, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	cart.Promo = &promo

	if err := s.persist(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// RemovePromo detaches any promo from the cart.
func (s *Service) RemovePromo(ctx context.Context, sessionID string) (*domain.Cart, error) {
	cart, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	cart.Promo = nil

	if err := s.persist(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// Clear drops the session's cart entirely.
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	if err := s.repo.Delete(ctx, sessionID); err != nil {
		return err
	}
	s.forward(ctx, sessionID, func(fctx context.Context) error {
		return s.api.ClearCart(fctx, sessionID)
	})
	return nil
}

// Reconcile replaces the local lines with the server's copy. The server
// wins on every line; the promo stays local because the API knows nothing
// about it. Concurrent reconciles for one session collapse into a single
// fetch.
func (s *Service) Reconcile(ctx context.Context, sessionID string) (*domain.Cart, error) {
	v, err, _ := s.reconcile.Do(sessionID, func() (any, error) {
		items, currency, err := s.api.FetchCart(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("fetch server cart: %w", err)
		}

		cart, err := s.Get(ctx, sessionID)
		if err != nil {
			return nil, err
		}

		cart.Items = items
		if currency != "" {
			cart.Currency = currency
		}
		if err := s.persist(ctx, cart); err != nil {
			return nil, err
		}
		return cart, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Cart), nil
}

func (s *Service) emptyCart(sessionID string) *domain.Cart {
	now := time.Now().UTC()
	return &domain.Cart{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Items:     []domain.CartItem{},
		Currency:  "RUB",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Service) persist(ctx context.Context, cart *domain.Cart) error {
	cart.Version++
	cart.UpdatedAt = time.Now().UTC()
	if err := s.repo.Save(ctx, cart); err != nil {
		return err
	}

	if s.events != nil {
		if err := s.events.CartUpdated(ctx, cart); err != nil {
			s.logger.WarnContext(ctx, "failed to publish cart update",
				slog.String("cart_id", cart.ID),
				slog.Any("error", err),
			)
		}
	}
	return nil
}

// forward pushes a local mutation to the API-side cart for authenticated
// sessions. Failures are logged, not surfaced: the next reconcile restores
// consistency from the server's copy.
func (s *Service) forward(ctx context.Context, sessionID string, fn func(context.Context) error) {
	if !s.sessions.HasSession(ctx, sessionID) {
		return
	}
	if err := fn(ctx); err != nil {
		s.logger.WarnContext(ctx, "failed to forward cart mutation",
			slog.String("session_id", sessionID),
			slog.Any("error", err),
		)
	}
}
