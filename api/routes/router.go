package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yutosugimura/saltbreeze-backend/api/controllers"
	webhookcontrollers "github.com/yutosugimura/saltbreeze-backend/api/controllers/webhooks"
	"github.com/yutosugimura/saltbreeze-backend/api/middleware"
	checkoutsvc "github.com/yutosugimura/saltbreeze-backend/internal/checkout"
	fulfillmentsvc "github.com/yutosugimura/saltbreeze-backend/internal/fulfillment"
	orderssvc "github.com/yutosugimura/saltbreeze-backend/internal/orders"
	"github.com/yutosugimura/saltbreeze-backend/internal/reconcile"
	"github.com/yutosugimura/saltbreeze-backend/pkg/config"
	"github.com/yutosugimura/saltbreeze-backend/pkg/gateway"
	"github.com/yutosugimura/saltbreeze-backend/pkg/logger"
	"github.com/yutosugimura/saltbreeze-backend/pkg/metrics"
	"github.com/yutosugimura/saltbreeze-backend/pkg/redis"
)

// RouterParams collects everything the HTTP surface needs.
type RouterParams struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          Pinger
	Redis       *redis.Client
	Gateway     *gateway.Client
	Checkout    checkoutsvc.Service
	Orders      orderssvc.Service
	Fulfillment fulfillmentsvc.Service
	Reconcile   reconcile.Service
	Metrics     *metrics.EngineMetrics
	Registry    *prometheus.Registry
}

// Pinger is the health-check surface shared by the datastores.
type Pinger = controllers.Pinger

func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.Checkout.StorefrontURL),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": params.DB,
			"redis":    params.Redis,
		}))
	})

	if params.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(params.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/checkout", controllers.Checkout(params.Checkout, logg))

		r.Route("/payments", func(r chi.Router) {
			guardTTL := cfg.Gateway.EventGuardTTL
			if guardTTL <= 0 {
				guardTTL = 30 * 24 * time.Hour
			}
			r.Post("/webhook", webhookcontrollers.GatewayWebhook(
				params.Reconcile, params.Gateway, params.Redis, guardTTL, params.Metrics, logg))
			r.Get("/callback", webhookcontrollers.GatewayCallback(params.Reconcile, cfg.Checkout, logg))
		})

		r.Route("/staff", func(r chi.Router) {
			r.Post("/login", controllers.StaffLogin(cfg.JWT, cfg.Staff, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.StaffAuth(cfg.JWT, logg))

				r.Route("/orders", func(r chi.Router) {
					r.Get("/", controllers.StaffListOrders(params.Orders, logg))
					r.Get("/{orderID}", controllers.StaffGetOrder(params.Orders, logg))
					r.Patch("/{orderID}/status", controllers.StaffSetOrderStatus(params.Orders, logg))
					r.Get("/{orderID}/fulfillments", controllers.StaffListOrderFulfillments(params.Fulfillment, logg))
				})

				r.Route("/fulfillments", func(r chi.Router) {
					r.Get("/", controllers.StaffListFulfillments(params.Fulfillment, logg))
					r.Post("/{unitID}/ship", controllers.StaffMarkShipped(params.Fulfillment, logg))
				})
			})
		})
	})

	return r
}
