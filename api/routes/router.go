package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/OneKeyCoder/batdongscam-backend/api/controllers"
	"github.com/OneKeyCoder/batdongscam-backend/api/middleware"
	"github.com/OneKeyCoder/batdongscam-backend/internal/contracts"
	"github.com/OneKeyCoder/batdongscam-backend/internal/payments"
	"github.com/OneKeyCoder/batdongscam-backend/pkg/config"
	"github.com/OneKeyCoder/batdongscam-backend/pkg/db"
	"github.com/OneKeyCoder/batdongscam-backend/pkg/enums"
	"github.com/OneKeyCoder/batdongscam-backend/pkg/logger"
	"github.com/OneKeyCoder/batdongscam-backend/pkg/redis"
)

// NewRouter assembles the HTTP surface: health probes, the Prometheus
// endpoint, and the authenticated contract and payment APIs.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	registry *prometheus.Registry,
	contractsSvc *contracts.Service,
	paymentsSvc *payments.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(
			middleware.Auth(cfg.JWT, logg),
			middleware.Idempotency(redisClient, logg),
		)

		staffOnly := middleware.RequireAnyRole(logg, enums.MemberRoleAdmin.String(), enums.MemberRoleAgent.String())

		r.Route("/deposit-contracts", func(r chi.Router) {
			r.Get("/", controllers.ListDepositContracts(contractsSvc, logg))
			r.With(staffOnly).Post("/", controllers.CreateDepositContract(contractsSvc, logg))
			r.Get("/{contractId}", controllers.GetDepositContract(contractsSvc, logg))
			r.With(staffOnly).Post("/{contractId}/void", controllers.VoidDepositContract(contractsSvc, logg))
			r.Post("/{contractId}/cancel", controllers.CancelDepositContract(contractsSvc, logg))
		})

		r.Route("/purchase-contracts", func(r chi.Router) {
			r.Get("/", controllers.ListPurchaseContracts(contractsSvc, logg))
			r.With(staffOnly).Post("/", controllers.CreatePurchaseContract(contractsSvc, logg))
			r.Get("/{contractId}", controllers.GetPurchaseContract(contractsSvc, logg))
			r.With(staffOnly).Patch("/{contractId}", controllers.UpdatePurchaseContract(contractsSvc, logg))
			r.With(staffOnly).Post("/{contractId}/approve", controllers.ApprovePurchaseContract(contractsSvc, logg))
			r.With(staffOnly).Post("/{contractId}/complete-paperwork", controllers.CompletePurchasePaperwork(contractsSvc, logg))
			r.With(staffOnly).Post("/{contractId}/void", controllers.VoidPurchaseContract(contractsSvc, logg))
			r.Post("/{contractId}/cancel", controllers.CancelPurchaseContract(contractsSvc, logg))
		})

		r.Route("/payments", func(r chi.Router) {
			r.Get("/", controllers.ListPayments(paymentsSvc, logg))
			r.With(staffOnly).Post("/", controllers.RecordPayment(paymentsSvc, logg))
			r.Get("/{paymentId}", controllers.GetPayment(paymentsSvc, logg))
			r.With(staffOnly).Post("/{paymentId}/settle", controllers.SettlePayment(paymentsSvc, logg))
		})
	})

	return r
}
