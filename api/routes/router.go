package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tienda-mx/storefront-backend/api/controllers"
	webhookcontrollers "github.com/tienda-mx/storefront-backend/api/controllers/webhooks"
	"github.com/tienda-mx/storefront-backend/api/middleware"
	internalorders "github.com/tienda-mx/storefront-backend/internal/orders"
	"github.com/tienda-mx/storefront-backend/internal/payments"
	internalshipping "github.com/tienda-mx/storefront-backend/internal/shipping"
	paymentwebhook "github.com/tienda-mx/storefront-backend/internal/webhooks/payment"
	"github.com/tienda-mx/storefront-backend/pkg/config"
	"github.com/tienda-mx/storefront-backend/pkg/db"
	"github.com/tienda-mx/storefront-backend/pkg/logger"
	"github.com/tienda-mx/storefront-backend/pkg/mercadopago"
	"github.com/tienda-mx/storefront-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	gatherer prometheus.Gatherer,
	ordersService internalorders.Service,
	paymentsService payments.Service,
	shippingService internalshipping.Service,
	webhookService *paymentwebhook.Service,
	webhookGuard *paymentwebhook.IdempotencyGuard,
	mpClient *mercadopago.Client,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	webhookHandler := webhookcontrollers.PaymentWebhook(webhookService, mpClient, webhookGuard, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/orders", func(r chi.Router) {
			r.With(middleware.OptionalAuth(cfg.JWT, logg)).Post("/", controllers.CreateOrder(ordersService, logg))
			r.With(middleware.Auth(cfg.JWT, logg)).Get("/mine", controllers.MyOrders(ordersService, logg))
			r.With(middleware.Auth(cfg.JWT, logg), middleware.RequireAdmin(logg)).Get("/", controllers.ListOrders(ordersService, logg))
			r.Get("/{orderId}", controllers.OrderDetail(ordersService, logg))
		})

		r.Route("/payment", func(r chi.Router) {
			r.With(middleware.OptionalAuth(cfg.JWT, logg)).Post("/create-preference", controllers.CreatePreference(paymentsService, logg))
			r.Post("/webhook", webhookHandler)
		})

		// Canonical notification-URL mount; /payment/webhook is kept for
		// storefronts configured against the older path.
		r.Post("/webhooks/payment", webhookHandler)

		r.Route("/shipping", func(r chi.Router) {
			r.Post("/quote", controllers.ShippingQuote(shippingService, logg))
			r.Get("/by-order/{orderId}", controllers.ShipmentByOrder(shippingService, logg))
			r.Post("/", controllers.ShippingUpsert(shippingService, logg))
			r.Put("/{shippingId}", controllers.ShippingUpdate(shippingService, logg))
		})
	})

	return r
}
