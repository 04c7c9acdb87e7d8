package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marketloop/storefront-backend/api/controllers"
	"github.com/marketloop/storefront-backend/api/middleware"
	authsvc "github.com/marketloop/storefront-backend/internal/auth"
	cartsvc "github.com/marketloop/storefront-backend/internal/cart"
	checkoutsvc "github.com/marketloop/storefront-backend/internal/checkout"
	ordersvc "github.com/marketloop/storefront-backend/internal/orders"
	productsvc "github.com/marketloop/storefront-backend/internal/products"
	"github.com/marketloop/storefront-backend/pkg/config"
	"github.com/marketloop/storefront-backend/pkg/db"
	"github.com/marketloop/storefront-backend/pkg/enums"
	"github.com/marketloop/storefront-backend/pkg/logger"
	"github.com/marketloop/storefront-backend/pkg/redis"
)

// RouterParams bundles everything the HTTP surface needs.
type RouterParams struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          *db.Client
	Redis       *redis.Client
	Registry    *prometheus.Registry
	AuthService authsvc.Service
	Products    productsvc.Service
	Cart        cartsvc.Service
	Orders      ordersvc.Service
	Checkout    checkoutsvc.Service
}

// NewRouter wires the full route tree: public catalog and auth endpoints,
// cookie-authenticated cart and order routes, and admin-only management.
func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	var limiter redis.RateLimiter
	if p.Redis != nil {
		limiter = p.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, p.DB, p.Redis, logg))
	})

	if p.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, limiter, logg)).
			Post("/register", controllers.AuthRegister(p.AuthService, cfg.JWT, cfg.App, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, limiter, logg)).
			Post("/login", controllers.AuthLogin(p.AuthService, cfg.JWT, cfg.App, logg))
		r.Post("/logout", controllers.AuthLogout(cfg.JWT, cfg.App))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg), middleware.RequireRole(enums.UserRoleAdmin, logg))
			r.Get("/users", controllers.AuthListUsers(p.AuthService, logg))
		})
	})

	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", controllers.ProductsList(p.Products, logg))
		r.Get("/{productID}", controllers.ProductsGet(p.Products, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg), middleware.RequireRole(enums.UserRoleAdmin, logg))
			r.Post("/", controllers.ProductsCreate(p.Products, logg))
			r.Put("/{productID}", controllers.ProductsUpdate(p.Products, logg))
			r.Delete("/{productID}", controllers.ProductsDelete(p.Products, logg))
		})
	})

	r.Route("/api/cart", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Get("/", controllers.CartGet(p.Cart, logg))
		r.Post("/add", controllers.CartAddItem(p.Cart, logg))
		r.Put("/update/{itemID}", controllers.CartUpdateQuantity(p.Cart, logg))
		r.Delete("/remove/{itemID}", controllers.CartRemoveItem(p.Cart, logg))
		r.Delete("/clear", controllers.CartClear(p.Cart, logg))
	})

	r.Route("/api/orders", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Post("/", controllers.OrdersCheckout(p.Checkout, logg))
		r.Get("/my", controllers.OrdersMine(p.Orders, logg))
		r.Get("/{orderID}", controllers.OrdersGet(p.Orders, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.UserRoleAdmin, logg))
			r.Get("/", controllers.OrdersAll(p.Orders, logg))
			r.Put("/{orderID}/status", controllers.OrdersUpdateStatus(p.Orders, logg))
		})
	})

	return r
}
