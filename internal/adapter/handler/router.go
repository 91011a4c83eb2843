package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

func NewRouter(api *HTTPHandler, pages *PageHandler, logger *zap.Logger, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(AccessLog(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/health", api.HealthCheck)

	r.Get("/", pages.Landing)
	r.Get("/order", pages.OrderForm)
	r.Post("/order", pages.PlaceOrder)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/product", api.GetProduct)
		r.Route("/checkouts", func(r chi.Router) {
			r.Post("/", api.StartCheckout)
			r.Get("/{id}", api.GetCheckout)
			r.Patch("/{id}/fields", api.SetField)
			r.Post("/{id}/submit", api.Submit)
		})
	})

	return otelhttp.NewHandler(r, "hoodie-drop.http")
}
