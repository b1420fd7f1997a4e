package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
	"github.com/moyuu-az/attendance-system/internal/handler/http/middleware"
	"github.com/moyuu-az/attendance-system/internal/pkg/jwt"
)

// RouterConfig carries everything the router mounts.
type RouterConfig struct {
	JWTService         jwt.Service
	Logger             *slog.Logger
	CORSAllowedOrigins []string
	RateLimiter        *middleware.RateLimiter
	Metrics            http.Handler
	Database           Pinger

	AttendanceHandler AttendanceHandler
	BreakHandler      BreakHandler
	ReportHandler     ReportHandler
	UserHandler       UserHandler
	EventHandler      EventHandler
}

func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition", "Retry-After"},
		MaxAge:           300,
	}))

	r.Use(chiMiddleware.RequestID)
	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)

	r.Get("/health", HealthHandler(cfg.Database))
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", HealthHandler(cfg.Database))

		// Authenticated by a short-lived token in the query string
		r.Get("/events", cfg.EventHandler.Stream)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(cfg.JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(cfg.JWTService.JWTAuth()))
			if cfg.RateLimiter != nil {
				r.Use(cfg.RateLimiter.Middleware)
			}

			r.Post("/events/token", cfg.EventHandler.GetSSEToken)

			r.Route("/attendance", func(r chi.Router) {
				r.Post("/clock-in", cfg.AttendanceHandler.ClockIn)
				r.Post("/clock-out", cfg.AttendanceHandler.ClockOut)
				r.Get("/today", cfg.AttendanceHandler.Today)
				r.Get("/calendar", cfg.ReportHandler.MonthlyCalendar)

				r.Get("/", cfg.AttendanceHandler.List)
				r.Post("/", cfg.AttendanceHandler.Create)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", cfg.AttendanceHandler.Get)
					r.Put("/", cfg.AttendanceHandler.Update)
					r.Delete("/", cfg.AttendanceHandler.Delete)
				})
			})

			r.Route("/breaks", func(r chi.Router) {
				r.Post("/start", cfg.BreakHandler.Start)
				r.Post("/end", cfg.BreakHandler.End)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", cfg.BreakHandler.List)
					r.Put("/", cfg.BreakHandler.Update)
					r.Delete("/", cfg.BreakHandler.Delete)
				})
			})

			r.Route("/reports", func(r chi.Router) {
				r.Get("/monthly", cfg.ReportHandler.MonthlyReport)
				r.Get("/monthly/export", cfg.ReportHandler.ExportMonthly)
				r.Get("/yearly", cfg.ReportHandler.YearlyReport)
			})

			r.Route("/users", func(r chi.Router) {
				r.Route("/me", func(r chi.Router) {
					r.Get("/", cfg.UserHandler.Me)
					r.Put("/", cfg.UserHandler.UpdateMe)
					r.Put("/hourly-rate", cfg.UserHandler.UpdateHourlyRate)
					r.Get("/hourly-rates", cfg.UserHandler.ListHourlyRates)
				})

				// Admin only
				r.Group(func(r chi.Router) {
					r.Use(middleware.AdminOnly)
					r.Get("/", cfg.UserHandler.List)
					r.Post("/", cfg.UserHandler.Create)
				})
			})
		})
	})
	return r
}
