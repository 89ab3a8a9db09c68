package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"commerce-payload-bridge/internal/infra/redis"
	"commerce-payload-bridge/internal/usecase"
)

type Server struct {
	checkoutUC usecase.CheckoutUseCase
	renewalUC  usecase.RenewalUseCase
	auth       *AuthManager
	locker     redis.Locker
	lockTTL    time.Duration
	log        *zerolog.Logger
}

func NewServer(
	checkoutUC usecase.CheckoutUseCase,
	renewalUC usecase.RenewalUseCase,
	auth *AuthManager,
	locker redis.Locker,
	lockTTL time.Duration,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "web").Logger()
	return &Server{
		checkoutUC: checkoutUC,
		renewalUC:  renewalUC,
		auth:       auth,
		locker:     locker,
		lockTTL:    lockTTL,
		log:        &l,
	}
}

// Router assembles the HTTP surface. Checkout and payment-method routes are
// customer-authenticated; the renewal hook is called host-to-host and reuses
// the same bearer scheme with the scheduler's own token.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Post("/api/v1/orders/{orderID}/payment", s.handleCheckout)
		r.Post("/api/v1/payment-methods", s.handleAddPaymentMethod)
		r.Post("/api/v1/renewals", s.handleRenewal)
	})

	return Chain(r,
		TraceID(),
		RequestLog(s.log),
		Recover(s.log),
		Timeout(60*time.Second),
	)
}

// authMiddleware validates the bearer token and rejects before any handler
// work happens; claims are re-parsed in handlers that need the customer id.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.auth.ParseFromRequest(r); err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
