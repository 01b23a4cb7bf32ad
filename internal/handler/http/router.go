package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AlexMobiCraft/freesport-storefront/internal/config"
	"github.com/AlexMobiCraft/freesport-storefront/internal/session"
	"github.com/AlexMobiCraft/freesport-storefront/pkg/health"
	"github.com/AlexMobiCraft/freesport-storefront/pkg/middleware"
)

const serviceName = "storefront"

// Deps bundles everything the router mounts.
type Deps struct {
	Config   *config.Config
	Logger   *slog.Logger
	Sessions *session.Store
	Guard    *session.Guard
	Auth     *AuthHandler
	Cart     *CartHandler
	Checkout *CheckoutHandler
	Pages    *PageHandler
	Health   *health.Handler
}

// NewRouter builds the storefront's HTTP router.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(d.Logger))
	r.Use(chimw.RealIP)
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(middleware.RequestLogging(d.Logger))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogger(d.Logger))
	r.Use(middleware.RateLimit(int(d.Config.RateLimitRPS), d.Config.RateLimitBurst, d.Logger))

	// Probes and metrics sit outside the session machinery.
	r.Get("/healthz", d.Health.LivenessHandler())
	r.Get("/readyz", d.Health.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(SessionCookie(d.Config.Session.CookieName, d.Config.Session.CookieSecure))
		r.Use(Guard(d.Guard, d.Sessions))

		// Public and auth-only pages render in the frontend; the storefront
		// hands them the session context.
		r.Get("/", d.Pages.Shell)
		r.Get("/catalog", d.Pages.Shell)
		r.Get("/products/{productID}", d.Pages.Shell)
		r.Get("/login", d.Pages.Shell)
		r.Get("/register", d.Pages.Shell)
		r.Get("/password-reset", d.Pages.Shell)

		r.Get("/session", d.Auth.Session)
		r.Post("/login", d.Auth.Login)
		r.Post("/register", d.Auth.Register)
		r.Post("/logout", d.Auth.Logout)

		r.Get("/profile", d.Auth.Profile)
		r.Get("/orders", d.Auth.Orders)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", d.Cart.Get)
			r.Delete("/", d.Cart.Clear)
			r.Post("/items", d.Cart.AddItem)
			r.Patch("/items/{lineID}", d.Cart.UpdateItem)
			r.Delete("/items/{lineID}", d.Cart.RemoveItem)
			r.Post("/promo", d.Cart.ApplyPromo)
			r.Delete("/promo", d.Cart.RemovePromo)
			r.Post("/reconcile", d.Cart.Reconcile)
		})

		r.Get("/checkout", d.Checkout.Summary)
		r.Post("/checkout", d.Checkout.Place)
	})

	return r
}
