package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hackgods/saree-booking/internal/appointment"
	"github.com/hackgods/saree-booking/internal/auth"
)

type RouterConfig struct {
	Bookings       *appointment.BookingService
	Catalog        *appointment.Catalog
	Auth           *auth.Issuer
	HealthChecks   []HealthCheck
	Logger         *slog.Logger
	RequestTimeout time.Duration
	Env            string
	Version        string
}

func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	h := &handlers{
		bookings: cfg.Bookings,
		catalog:  cfg.Catalog,
		logger:   logger,
	}

	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))
	r.Use(middleware.Recoverer)

	// Health endpoints
	health := NewHealthHandler(cfg.HealthChecks, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Group(func(r chi.Router) {
		r.Use(TimeoutMiddleware(cfg.RequestTimeout))

		// Storefront endpoints
		r.Get("/services", h.listServices)
		r.Get("/services/{id}/availability", h.availability)
		r.Post("/bookings", h.createBooking)

		// Admin endpoints
		r.Group(func(r chi.Router) {
			r.Use(RequireAdmin(cfg.Auth))

			r.Post("/services", h.createService)
			r.Put("/services/{id}", h.updateService)
			r.Delete("/services/{id}", h.deleteService)

			r.Get("/appointments", h.listAppointments)
			r.Patch("/appointments/{id}", h.updateAppointment)
			r.Delete("/appointments/{id}", h.deleteAppointment)

			r.Get("/admin/summary", h.summary)
		})
	})

	return r
}
