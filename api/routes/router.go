package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mensahub/canteen-backend/api/controllers"
	ordercontrollers "github.com/mensahub/canteen-backend/api/controllers/orders"
	reportcontrollers "github.com/mensahub/canteen-backend/api/controllers/reports"
	webhookcontrollers "github.com/mensahub/canteen-backend/api/controllers/webhooks"
	"github.com/mensahub/canteen-backend/api/middleware"
	"github.com/mensahub/canteen-backend/internal/orders"
	"github.com/mensahub/canteen-backend/internal/reports"
	"github.com/mensahub/canteen-backend/pkg/config"
	"github.com/mensahub/canteen-backend/pkg/enums"
	"github.com/mensahub/canteen-backend/pkg/logger"
	"github.com/mensahub/canteen-backend/pkg/redis"
)

// Deps carries everything the HTTP surface needs.
type Deps struct {
	Config       *config.Config
	Logger       *logger.Logger
	DB           controllers.Pinger
	Redis        *redis.Client
	Orders       orders.Service
	Reports      reports.Service
	PromGatherer prometheus.Gatherer
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	probes := map[string]controllers.Pinger{"postgres": deps.DB}
	if deps.Redis != nil {
		probes["redis"] = deps.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, probes))
	})

	if deps.PromGatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.PromGatherer, promhttp.HandlerOpts{}))
	}

	var webhookGuard webhookcontrollers.IdempotencyGuard
	if deps.Redis != nil {
		webhookGuard = deps.Redis
	}
	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/payments", webhookcontrollers.PaymentWebhook(deps.Orders, webhookGuard, cfg.Payments.WebhookSecret, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/orders", func(r chi.Router) {
			r.With(middleware.RequireRole(enums.ActorRoleCustomer.String(), logg)).
				Post("/", ordercontrollers.Create(deps.Orders, logg))
			r.Get("/", ordercontrollers.List(deps.Orders, logg))
			r.Get("/{orderId}", ordercontrollers.Detail(deps.Orders, logg))
			r.Post("/{orderId}/transition", ordercontrollers.Transition(deps.Orders, logg))
		})

		r.Route("/reports", func(r chi.Router) {
			r.With(middleware.RequireAnyRole(logg, enums.ActorRoleVendor.String(), enums.ActorRoleAdmin.String())).
				Get("/vendors/{vendorId}/revenue", reportcontrollers.VendorRevenue(deps.Reports, logg))
			r.With(middleware.RequireRole(enums.ActorRoleAdmin.String(), logg)).
				Get("/platform/revenue", reportcontrollers.PlatformRevenue(deps.Reports, logg))
		})
	})

	return r
}
