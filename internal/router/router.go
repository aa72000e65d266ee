package router

import (
	"net/http"

	"voucher-service/internal/handler"
	"voucher-service/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// New creates a new HTTP router with all routes and middleware configured.
func New(
	voucherHandler *handler.VoucherHandler,
	cardHandler *handler.CardHandler,
	apiKey string,
	logger zerolog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Middleware in order: Recovery -> Logging -> CORS -> APIKeyAuth
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS)
	r.Use(middleware.APIKeyAuth(apiKey, logger))

	// Health check endpoint (no authentication required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	r.Route("/api/vouchers", func(r chi.Router) {
		r.Post("/", voucherHandler.Create)
		r.Get("/", voucherHandler.List)
		r.Get("/{id}/cards", voucherHandler.GetCards)
		r.Delete("/{id}", voucherHandler.Delete)
	})

	r.Route("/api/cards", func(r chi.Router) {
		r.Post("/redeem", cardHandler.Redeem)
		r.Get("/{value}", cardHandler.Lookup)
	})

	return r
}
