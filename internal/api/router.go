package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/ndewijer/Crypto-Wallet-Backend/internal/api/handlers"
	custommiddleware "github.com/ndewijer/Crypto-Wallet-Backend/internal/api/middleware"
	"github.com/ndewijer/Crypto-Wallet-Backend/internal/config"
	"github.com/ndewijer/Crypto-Wallet-Backend/internal/service"
)

// Services groups the services the router exposes.
type Services struct {
	System       *service.SystemService
	Wallet       *service.WalletService
	Evaluation   *service.EvaluationService
	PriceRefresh *service.PriceRefreshService
}

// NewRouter creates and configures the HTTP router
func NewRouter(svc Services, cfg *config.Config, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger(log))
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(svc.System)
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
		})

		r.Route("/wallet", func(r chi.Router) {
			walletHandler := handlers.NewWalletHandler(svc.Wallet)
			r.Post("/", walletHandler.CreateWallet)
			r.Get("/", walletHandler.GetWallet)
			r.Post("/assets", walletHandler.AddAsset)
		})

		r.Route("/evaluation", func(r chi.Router) {
			evaluationHandler := handlers.NewEvaluationHandler(svc.Evaluation)
			r.Get("/", evaluationHandler.Evaluate)
		})

		r.Route("/prices", func(r chi.Router) {
			priceHandler := handlers.NewPriceHandler(svc.PriceRefresh)
			r.Get("/", priceHandler.Prices)
			r.Post("/refresh", priceHandler.Refresh)
		})
	})

	return r
}
