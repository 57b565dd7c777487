package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/serviplace/serviplace-backend/api/controllers"
	"github.com/serviplace/serviplace-backend/api/middleware"
	"github.com/serviplace/serviplace-backend/internal/history"
	"github.com/serviplace/serviplace-backend/internal/ledger"
	"github.com/serviplace/serviplace-backend/internal/orders"
	"github.com/serviplace/serviplace-backend/pkg/config"
	"github.com/serviplace/serviplace-backend/pkg/db"
	"github.com/serviplace/serviplace-backend/pkg/logger"
	"github.com/serviplace/serviplace-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	gatherer prometheus.Gatherer,
	ordersSvc orders.Service,
	ledgerSvc ledger.Service,
	historySvc history.Service,
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
		readiness := map[string]controllers.Pinger{"database": dbP}
		if redisClient != nil {
			readiness["redis"] = redisClient
		}
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.ActorContext(logg))
		if cfg.FeatureFlags.IdempotencyEnabled && redisClient != nil {
			r.Use(middleware.Idempotency(redisClient, logg))
		}

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.CreateOrder(ordersSvc, logg))
			r.Get("/", controllers.ListOrders(ordersSvc, logg))
			r.Get("/number/{orderNumber}", controllers.GetOrderByNumber(ordersSvc, logg))
			r.Route("/{orderId}", func(r chi.Router) {
				r.Get("/", controllers.GetOrder(ordersSvc, logg))
				r.Post("/transition", controllers.TransitionOrder(ordersSvc, logg))
				r.Post("/cancel", controllers.CancelOrder(ordersSvc, logg))
				r.Post("/refund/confirm", controllers.ConfirmOrderRefund(ordersSvc, logg))
				r.Get("/transactions", controllers.ListOrderTransactions(ledgerSvc, logg))
			})
		})

		r.Get("/transactions", controllers.ListTransactions(ledgerSvc, logg))

		r.Route("/customers/{customerId}", func(r chi.Router) {
			r.Get("/orders", controllers.ListCustomerOrders(ordersSvc, logg))
			r.Get("/history", controllers.ListCustomerHistory(historySvc, logg))
		})
	})

	return r
}
