package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Bbachelard/Option/internal/service"
	"github.com/Bbachelard/Option/pkg/health"
	"github.com/Bbachelard/Option/pkg/middleware"
)

// NewRouter creates a chi router with all options service routes registered.
func NewRouter(
	optionService *service.OptionService,
	cartOptionService *service.CartOptionService,
	healthHandler *health.Handler,
	logger *slog.Logger,
	corsConfig middleware.CORSConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(corsConfig))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("options"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	optionHandler := NewOptionHandler(optionService, logger)

	// Option catalog endpoints
	r.Route("/api/v1/options", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Get("/", optionHandler.ListOptions)
		r.Get("/columns", optionHandler.ListColumns)
		r.Get("/category", optionHandler.GetOptionCategory)
		r.Post("/", optionHandler.CreateOption)
		r.Put("/{id}", optionHandler.UpdateOption)
		r.Delete("/{id}", optionHandler.DeleteOption)
	})

	// Product association endpoints (nested under products)
	r.Route("/api/v1/products/{productId}/options", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Get("/", optionHandler.ListAvailableOptions)
		r.Post("/", optionHandler.AttachOption)
		r.Delete("/{associationId}", optionHandler.DetachOption)
		r.Put("/{optionId}/price", optionHandler.UpsertOptionPrice)
	})

	// Cart item option endpoints
	cartOptionHandler := NewCartOptionHandler(cartOptionService, logger)

	r.Route("/api/v1/cart-items/{cartItemId}/options", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/apply", cartOptionHandler.ApplyOptionPrices)
		r.Post("/remove", cartOptionHandler.RemoveOptionPrices)
		r.Post("/select", cartOptionHandler.PersistSelection)
	})

	return r
}
