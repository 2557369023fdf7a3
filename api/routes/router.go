package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/julianreyes-dev/storefront-backend/api/controllers"
	webhookcontrollers "github.com/julianreyes-dev/storefront-backend/api/controllers/webhooks"
	"github.com/julianreyes-dev/storefront-backend/api/middleware"
	cartsvc "github.com/julianreyes-dev/storefront-backend/internal/cart"
	checkoutsvc "github.com/julianreyes-dev/storefront-backend/internal/checkout"
	ordersvc "github.com/julianreyes-dev/storefront-backend/internal/orders"
	productsvc "github.com/julianreyes-dev/storefront-backend/internal/products"
	stripewebhook "github.com/julianreyes-dev/storefront-backend/internal/webhooks/stripe"
	"github.com/julianreyes-dev/storefront-backend/pkg/config"
	"github.com/julianreyes-dev/storefront-backend/pkg/db"
	"github.com/julianreyes-dev/storefront-backend/pkg/logger"
	"github.com/julianreyes-dev/storefront-backend/pkg/metrics"
	pkgredis "github.com/julianreyes-dev/storefront-backend/pkg/redis"
	pkgstripe "github.com/julianreyes-dev/storefront-backend/pkg/stripe"
)

type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          db.Pinger
	Redis       pkgredis.Pinger
	Metrics     http.Handler
	HTTPMetrics *metrics.HTTPMetrics

	ProductService  productsvc.Service
	CartService     cartsvc.Service
	CheckoutService checkoutsvc.Service
	OrdersService   ordersvc.Service

	StripeClient         *pkgstripe.Client
	StripeWebhookService *stripewebhook.Service
	StripeWebhookGuard   *stripewebhook.IdempotencyGuard
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(deps.StripeWebhookService, deps.StripeClient, deps.StripeWebhookGuard, logg))
	})

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ProductList(deps.ProductService, logg))
		r.Get("/{productId}", controllers.ProductDetail(deps.ProductService, logg))
	})

	// Cart and checkout serve both anonymous and signed-in shoppers.
	r.Group(func(r chi.Router) {
		r.Use(middleware.OptionalAuth(cfg.JWT, logg))

		r.Route("/api/v1/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(deps.CartService, cfg.Checkout, logg))
			r.Post("/items", controllers.CartAddItem(deps.CartService, cfg.Checkout, logg))
			r.Post("/items/{itemId}/increment", controllers.CartItemIncrement(deps.CartService, cfg.Checkout, logg))
			r.Post("/items/{itemId}/decrement", controllers.CartItemDecrement(deps.CartService, cfg.Checkout, logg))
			r.Delete("/items/{itemId}", controllers.CartItemRemove(deps.CartService, cfg.Checkout, logg))
		})

		r.Post("/api/v1/checkout", controllers.Checkout(deps.CheckoutService, cfg.Checkout, logg))
	})

	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Get("/", controllers.OrderList(deps.OrdersService, logg))
		r.Get("/{orderId}", controllers.OrderDetail(deps.OrdersService, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireAdmin(logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.AdminProductList(deps.ProductService, logg))
			r.Post("/", controllers.AdminProductCreate(deps.ProductService, logg))
			r.Patch("/{productId}", controllers.AdminProductUpdate(deps.ProductService, logg))
			r.Delete("/{productId}", controllers.AdminProductDelete(deps.ProductService, logg))
		})
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminOrderList(deps.OrdersService, logg))
			r.Get("/{orderId}", controllers.AdminOrderDetail(deps.OrdersService, logg))
			r.Patch("/{orderId}/status", controllers.AdminOrderSetStatus(deps.OrdersService, logg))
		})
	})

	return r
}
