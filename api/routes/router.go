package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/officinarestomod/marketplace-backend/api/controllers"
	webhookcontrollers "github.com/officinarestomod/marketplace-backend/api/controllers/webhooks"
	"github.com/officinarestomod/marketplace-backend/api/middleware"
	"github.com/officinarestomod/marketplace-backend/internal/catalog"
	checkoutsvc "github.com/officinarestomod/marketplace-backend/internal/checkout"
	"github.com/officinarestomod/marketplace-backend/internal/orders"
	"github.com/officinarestomod/marketplace-backend/internal/reconciler"
	"github.com/officinarestomod/marketplace-backend/pkg/config"
	"github.com/officinarestomod/marketplace-backend/pkg/enums"
	"github.com/officinarestomod/marketplace-backend/pkg/logger"
	"github.com/officinarestomod/marketplace-backend/pkg/payment"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	cacheP controllers.Pinger,
	catalogService catalog.Service,
	ordersService orders.Service,
	checkoutService checkoutsvc.Service,
	provider payment.Provider,
	reconcilerService *reconciler.Service,
	webhookGuard *reconciler.IdempotencyGuard,
	metricsRegistry prometheus.Gatherer,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.Payments.FrontendURL),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbP, cacheP, logg))
	})

	if metricsRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metricsRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.PaymentWebhook(reconcilerService, provider, webhookGuard, logg))
	})

	r.Route("/api/v1/restomods", func(r chi.Router) {
		r.Get("/", controllers.ListRestomods(catalogService, logg))
		r.Get("/{restomodId}", controllers.RestomodDetail(catalogService, logg))
		r.Get("/{restomodId}/availability", controllers.RestomodAvailability(catalogService, logg))
	})

	r.Get("/api/v1/packages", controllers.ListPackages(catalogService, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Post("/checkout/sessions", controllers.Checkout(checkoutService, logg))
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(ordersService, logg))
			r.Get("/{orderId}", controllers.OrderDetail(ordersService, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(
			middleware.Auth(cfg.JWT, logg),
			middleware.RequireRole(enums.UserRoleAdmin.String(), logg),
		)

		r.Get("/orders", controllers.AdminListOrders(ordersService, logg))
		r.Post("/orders/{orderId}/refund", controllers.AdminRefundOrder(ordersService, logg))
		r.Post("/restomods/{restomodId}/availability", controllers.SetRestomodAvailability(catalogService, logg))
	})

	return r
}
