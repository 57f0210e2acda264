package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/clinicboard/appointment-registry/internal/appointment"
	"github.com/clinicboard/appointment-registry/internal/layout"
)

type RouterConfig struct {
	Store   appointment.Store
	Layout  layout.Config
	PgPool  *pgxpool.Pool // nil when running on the in-memory store
	Redis   *redis.Client // nil when no locker is configured
	Env     string
	Version string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Get("/appointments", listAppointmentsHandler(cfg.Store))
	r.Post("/appointments", createAppointmentHandler(cfg.Store))
	r.Post("/appointments/{id}/status", updateStatusHandler(cfg.Store))
	r.Delete("/appointments/{id}", deleteAppointmentHandler(cfg.Store))

	r.Get("/calendar/day", dayLayoutHandler(cfg.Store, cfg.Layout))

	return r
}
