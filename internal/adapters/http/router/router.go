// Package router monta o roteador chi com middlewares e handlers.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/draff227/bslc/internal/adapters/http/handlers"
	"github.com/draff227/bslc/internal/adapters/http/middleware"
	"github.com/draff227/bslc/internal/core/ports"
)

type Dependencies struct {
	Limiter    ports.RateLimiter
	Calculator ports.PriceCalculator
	Gate       middleware.GateConfig
	Logger     *zap.Logger
}

func New(deps Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	priceHandler := handlers.NewPriceHandler(deps.Calculator, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.NewRequestGate(deps.Limiter, deps.Gate, logger))

	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	r.Get("/healthz", handlers.Health)
	r.Post("/api/calculate-price", priceHandler.CalculatePrice)
	r.Route("/api/public", func(r chi.Router) {
		r.Post("/calculate", priceHandler.PublicCalculate)
		r.Get("/stations", priceHandler.PublicStations)
	})

	return r
}
