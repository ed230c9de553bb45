package api

import (
	"log/slog"
	"lora-lending/internal/api/handler"
	mw "lora-lending/internal/api/middleware"
	"lora-lending/internal/config"
	"lora-lending/internal/domain/lender"
	"lora-lending/internal/domain/loan"
	"lora-lending/internal/domain/wallet"
	"net/http"
	"time"

	_ "lora-lending/docs"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/traceid"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// Services are the domain services the API exposes.
type Services struct {
	Lenders lender.LenderService
	Loans   loan.LoanService
	Wallets wallet.WalletService
}

// SetupRouter wires middleware and routes. The caller owns limiter and closes
// it on shutdown.
func SetupRouter(svcs Services, limiter *mw.RateLimiterMiddleware, cfg *config.Config, logger *slog.Logger) *chi.Mux {
	router := chi.NewRouter()

	setupMiddleware(router, limiter, logger)
	setupMetricsEndpoint(router, cfg, logger)
	setupAuthRoutes(router, cfg, logger)
	setupLenderRoutes(router, svcs, cfg, logger)
	setupBorrowerRoutes(router, svcs, cfg, logger)
	setupLoanRoutes(router, svcs.Loans, cfg, logger)
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	setupSwaggerEndpoint(router, logger)

	return router
}

func setupMiddleware(router *chi.Mux, limiter *mw.RateLimiterMiddleware, logger *slog.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(traceid.Middleware)
	router.Use(mw.StructuredLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(middleware.Timeout(60 * time.Second))
	if limiter != nil {
		router.Use(limiter.Middleware)
	}
	router.Use(mw.MetricsMiddleware())
}

func setupMetricsEndpoint(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	metricsPath := cfg.Metrics.Path
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	logger.Info("Setting up Prometheus metrics endpoint", "path", metricsPath)
	router.Handle(metricsPath, promhttp.Handler())
}

func setupSwaggerEndpoint(router *chi.Mux, logger *slog.Logger) {
	logger.Info("Setting up Swagger UI endpoint", "path", "/swagger/")
	router.Get("/swagger/*", httpSwagger.WrapHandler)
	router.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger/index.html", http.StatusMovedPermanently)
	})
}

func setupAuthRoutes(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	authHandler := handler.NewAuthHandler(cfg.Server.Auth, logger)
	router.Route("/auth", func(r chi.Router) {
		r.Post("/token", authHandler.GenerateBearerToken)
	})
}

func setupLenderRoutes(router *chi.Mux, svcs Services, cfg *config.Config, logger *slog.Logger) {
	lenderHandler := handler.NewLenderHandler(svcs.Lenders, logger)
	quoteHandler := handler.NewQuoteHandler(svcs.Loans, logger)

	router.Route("/lenders", func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))
		r.Get("/", lenderHandler.ListLenders)
		r.Get("/{lenderID}", lenderHandler.GetLender)
		r.Post("/{lenderID}/quote", quoteHandler.QuoteLender)
	})
	router.With(mw.AuthMiddleware(cfg.Server.Auth, logger)).Post("/quotes", quoteHandler.QuoteAll)
}

func setupBorrowerRoutes(router *chi.Mux, svcs Services, cfg *config.Config, logger *slog.Logger) {
	loanHandler := handler.NewLoanHandler(svcs.Loans, logger)
	walletHandler := handler.NewWalletHandler(svcs.Wallets, logger)

	router.Route("/borrowers/{borrowerID}", func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))
		r.Use(mw.BorrowerScope("borrowerID", logger))
		r.Post("/loans", loanHandler.SubmitLoan)
		r.Get("/loans", loanHandler.ListBorrowerLoans)
		r.Route("/wallet", func(r chi.Router) {
			r.Get("/", walletHandler.GetWallet)
			r.Post("/cash-in", walletHandler.CashIn)
			r.Post("/transfers", walletHandler.Transfer)
			r.Get("/transactions", walletHandler.ListTransactions)
		})
	})
}

func setupLoanRoutes(router *chi.Mux, loanService loan.LoanService, cfg *config.Config, logger *slog.Logger) {
	loanHandler := handler.NewLoanHandler(loanService, logger)

	router.Route("/loans/{loanID}", func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))
		r.Get("/", loanHandler.GetLoan)
		r.Get("/billing", loanHandler.GetBilling)
		r.Get("/schedule", loanHandler.GetSchedule)
		r.Post("/approve", loanHandler.ApproveLoan)
		r.Post("/payments", loanHandler.PayLoan)
	})
}
