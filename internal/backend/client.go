package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/AlexMobiCraft/freesport-storefront/internal/domain"
	"github.com/AlexMobiCraft/freesport-storefront/internal/session"
	apperrors "github.com/AlexMobiCraft/freesport-storefront/pkg/errors"
	"github.com/AlexMobiCraft/freesport-storefront/pkg/httpclient"
)

// Client is the typed client for the marketplace REST API. Authorized calls
// inject the session's bearer token; on a 401 the client refreshes the
// access token through the gate and replays the request exactly once. When
// the refresh itself fails the session is logged out and the caller gets
// ErrSessionExpired.
type Client struct {
	baseURL  string
	http     *httpclient.CircuitBreakerClient
	sessions *session.Store
	gate     *Gate
	logger   *slog.Logger
}

// NewClient creates an API client rooted at baseURL.
func NewClient(baseURL string, http *httpclient.CircuitBreakerClient, sessions *session.Store, logger *slog.Logger) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     http,
		sessions: sessions,
		gate:     NewGate(),
		logger:   logger,
	}
}

// LoginRequest carries credentials for the password login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// RegisterRequest carries the fields of a new marketplace account. Role
// selects the pricing tier the account applies for; wholesale tiers require
// company details, which the API validates.
type RegisterRequest struct {
	Email       string      `json:"email" validate:"required,email"`
	Password    string      `json:"password" validate:"required,min=8"`
	FirstName   string      `json:"first_name" validate:"required"`
	LastName    string      `json:"last_name" validate:"required"`
	Phone       string      `json:"phone,omitempty"`
	Role        domain.Role `json:"role" validate:"required"`
	CompanyName string      `json:"company_name,omitempty"`
	TaxID       string      `json:"tax_id,omitempty"`
}

// OrderRequest carries checkout data for order placement.
type OrderRequest struct {
	DeliveryAddress string `json:"delivery_address" validate:"required"`
	DeliveryMethod  string `json:"delivery_method" validate:"required"`
	PaymentMethod   string `json:"payment_method" validate:"required"`
	Comment         string `json:"comment,omitempty"`
}

// OrderConfirmation is the API's response to a placed order.
type OrderConfirmation struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	TotalAmount int64  `json:"total_amount"`
	Status      string `json:"status"`
}

// OrderSummary is one row of the account's order history.
type OrderSummary struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	TotalAmount int64  `json:"total_amount"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
}

// serverCartItem is a line of the API-side cart. Prices arrive in minor
// units, already resolved for the account's pricing tier.
type serverCartItem struct {
	ID        string `json:"id"`
	ProductID int64  `json:"product_id"`
	VariantID string `json:"variant_id,omitempty"`
	Name      string `json:"name"`
	SKU       string `json:"sku"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	ImageURL  string `json:"image_url,omitempty"`
}

type serverCart struct {
	Items    []serverCartItem `json:"items"`
	Currency string           `json:"currency"`
}

// Login exchanges credentials for a token pair. It does not touch the
// session store; the caller decides which session the tokens belong to.
func (c *Client) Login(ctx context.Context, req LoginRequest) (domain.TokenPair, error) {
	var pair domain.TokenPair
	if err := c.doPublic(ctx, http.MethodPost, "/api/v1/auth/login/", req, &pair); err != nil {
		return domain.TokenPair{}, err
	}
	return pair, nil
}

// Register creates a marketplace account and returns its initial token pair.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (domain.TokenPair, error) {
	var pair domain.TokenPair
	if err := c.doPublic(ctx, http.MethodPost, "/api/v1/auth/register/", req, &pair); err != nil {
		return domain.TokenPair{}, err
	}
	return pair, nil
}

// Me fetches the authenticated account's profile.
func (c *Client) Me(ctx context.Context, sessionID string) (*domain.User, error) {
	var user domain.User
	if err := c.doAuthorized(ctx, sessionID, http.MethodGet, "/api/v1/auth/me/", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// FetchCart returns the API-side cart lines for the session's account. The
// server copy is authoritative during reconciliation.
func (c *Client) FetchCart(ctx context.Context, sessionID string) ([]domain.CartItem, string, error) {
	var sc serverCart
	if err := c.doAuthorized(ctx, sessionID, http.MethodGet, "/api/v1/cart/", nil, &sc); err != nil {
		return nil, "", err
	}

	items := make([]domain.CartItem, 0, len(sc.Items))
	for _, it := range sc.Items {
		items = append(items, domain.CartItem{
			ID:        it.ID,
			ProductID: it.ProductID,
			VariantID: it.VariantID,
			Name:      it.Name,
			SKU:       it.SKU,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			ImageURL:  it.ImageURL,
		})
	}
	return items, sc.Currency, nil
}

// AddCartItem adds a product to the API-side cart.
func (c *Client) AddCartItem(ctx context.Context, sessionID string, productID int64, variantID string, quantity int) error {
	body := map[string]any{
		"product_id": productID,
		"quantity":   quantity,
	}
	if variantID != "" {
		body["variant_id"] = variantID
	}
	return c.doAuthorized(ctx, sessionID, http.MethodPost, "/api/v1/cart/items/", body, nil)
}

// UpdateCartItem changes the quantity of an API-side cart line.
func (c *Client) UpdateCartItem(ctx context.Context, sessionID, lineID string, quantity int) error {
	body := map[string]any{"quantity": quantity}
	return c.doAuthorized(ctx, sessionID, http.MethodPatch, "/api/v1/cart/items/"+lineID+"/", body, nil)
}

// RemoveCartItem deletes an API-side cart line.
func (c *Client) RemoveCartItem(ctx context.Context, sessionID, lineID string) error {
	return c.doAuthorized(ctx, sessionID, http.MethodDelete, "/api/v1/cart/items/"+lineID+"/", nil, nil)
}

// ClearCart removes every line from the API-side cart.
func (c *Client) ClearCart(ctx context.Context, sessionID string) error {
	return c.doAuthorized(ctx, sessionID, http.MethodDelete, "/api/v1/cart/", nil, nil)
}

// ListOrders returns the account's order history.
func (c *Client) ListOrders(ctx context.Context, sessionID string) ([]OrderSummary, error) {
	var result struct {
		Orders []OrderSummary `json:"orders"`
	}
	if err := c.doAuthorized(ctx, sessionID, http.MethodGet, "/api/v1/orders/", nil, &result); err != nil {
		return nil, err
	}
	return result.Orders, nil
}

// PlaceOrder submits the account's cart as an order.
func (c *Client) PlaceOrder(ctx context.Context, sessionID string, req OrderRequest) (*OrderConfirmation, error) {
	var conf OrderConfirmation
	if err := c.doAuthorized(ctx, sessionID, http.MethodPost, "/api/v1/orders/", req, &conf); err != nil {
		return nil, err
	}
	return &conf, nil
}

// doPublic sends an unauthenticated request and decodes the data envelope.
func (c *Client) doPublic(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return apperrors.Wrap(err, "marketplace api unreachable")
	}
	return decodeResponse(resp, out)
}

// doAuthorized sends a bearer-authorized request for the session. On a 401
// it refreshes through the gate and replays once with the new token; a
// second 401 or a failed refresh ends the session.
func (c *Client) doAuthorized(ctx context.Context, sessionID, method, path string, body, out any) error {
	access, ok := c.sessions.AccessToken(sessionID)
	if !ok || tokenExpired(access) {
		// No usable access token in memory: mint one from the durable
		// refresh token and send with it.
		return c.gate.Do(ctx, sessionID, c.refreshFunc(ctx, sessionID), func(token string) error {
			return c.sendAuthorized(ctx, method, path, body, out, token, false, sessionID)
		})
	}

	return c.sendAuthorized(ctx, method, path, body, out, access, true, sessionID)
}

// expiryLeeway treats tokens about to expire as already expired so the
// refreshed token survives the upstream call it is minted for.
const expiryLeeway = 30 * time.Second

// tokenExpired reports whether the access token's exp claim has passed. The
// claim is read without signature verification: the marketplace API remains
// the authority on token validity, this check only skips a round trip that
// would certainly come back 401. Tokens that are not JWTs, or carry no exp
// claim, are sent as-is and handled reactively.
func tokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return time.Until(exp.Time) < expiryLeeway
}

func (c *Client) sendAuthorized(ctx context.Context, method, path string, body, out any, access string, mayRefresh bool, sessionID string) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+access)

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return apperrors.Wrap(err, "marketplace api unreachable")
	}

	if resp.StatusCode == http.StatusUnauthorized && mayRefresh {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()

		// Park behind the in-flight refresh, or lead it, and replay exactly
		// once with the fresh token; a 401 on the replay surfaces as-is.
		return c.gate.Do(ctx, sessionID, c.refreshFunc(ctx, sessionID), func(token string) error {
			return c.sendAuthorized(ctx, method, path, body, out, token, false, sessionID)
		})
	}

	return decodeResponse(resp, out)
}

// refreshFunc builds the refresh exchange the gate runs once per burst: it
// trades the session's durable refresh token for a new access token. Any
// failure tears the session down and comes back as ErrSessionExpired, so
// every caller queued behind the refresh sees the same terminal signal. With
// no refresh token stored, the session ends without an upstream call.
func (c *Client) refreshFunc(ctx context.Context, sessionID string) func() (string, error) {
	return func() (string, error) {
		refresh, err := c.sessions.RefreshToken(ctx, sessionID)
		if err != nil {
			c.endSession(ctx, sessionID, err)
			return "", apperrors.SessionExpired("no valid credentials for session")
		}

		var result struct {
			Access string `json:"access"`
		}
		if err := c.doPublic(ctx, http.MethodPost, "/api/v1/auth/refresh/", map[string]string{"refresh": refresh}, &result); err != nil {
			c.endSession(ctx, sessionID, err)
			return "", apperrors.SessionExpired("refresh token rejected")
		}

		c.sessions.SetAccessToken(sessionID, result.Access)
		return result.Access, nil
	}
}

// endSession tears the session down after a failed refresh so the guard
// sends the user back to login.
func (c *Client) endSession(ctx context.Context, sessionID string, cause error) {
	c.logger.WarnContext(ctx, "token refresh failed, ending session", slog.Any("error", cause))
	if err := c.sessions.Logout(ctx, sessionID); err != nil {
		c.logger.ErrorContext(ctx, "failed to clear session after refresh failure", slog.Any("error", err))
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create %s %s request: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// decodeResponse maps error statuses through the shared envelope parser and
// decodes successful bodies into out. The body is always closed.
func decodeResponse(resp *http.Response, out any) error {
	if resp.StatusCode >= 400 {
		return httpclient.ParseResponseError(resp)
	}

	defer func() { _ = resp.Body.Close() }()
	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response body: %w", err)
	}
	return nil
}
