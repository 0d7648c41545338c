package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/NICOLA-200/pms-restful/api/controllers"
	"github.com/NICOLA-200/pms-restful/api/middleware"
	"github.com/NICOLA-200/pms-restful/internal/auth"
	"github.com/NICOLA-200/pms-restful/internal/reservations"
	"github.com/NICOLA-200/pms-restful/internal/slots"
	"github.com/NICOLA-200/pms-restful/internal/vehicles"
	"github.com/NICOLA-200/pms-restful/pkg/auth/session"
	"github.com/NICOLA-200/pms-restful/pkg/config"
	"github.com/NICOLA-200/pms-restful/pkg/logger"
	"github.com/NICOLA-200/pms-restful/pkg/redis"
)

// Pinger matches the health check surface exposed by backing stores.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps bundles everything the router needs to wire the API surface.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             Pinger
	Redis          *redis.Client
	SessionManager session.AccessSessionChecker

	AuthService        auth.Service
	VehicleService     vehicles.Service
	SlotService        slots.Service
	ReservationService reservations.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", healthReady(deps))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, deps.Redis, logg)).Post("/register", controllers.AuthRegister(deps.AuthService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.AuthLogin(deps.AuthService, logg))
		r.Post("/logout", controllers.AuthLogout(deps.AuthService, cfg.JWT, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.SessionManager, logg))

		r.Route("/vehicles", func(r chi.Router) {
			r.Get("/", controllers.VehicleList(deps.VehicleService, logg))
			r.Post("/", controllers.VehicleCreate(deps.VehicleService, logg))
			r.Put("/{vehicleId}", controllers.VehicleUpdate(deps.VehicleService, logg))
			r.Delete("/{vehicleId}", controllers.VehicleDelete(deps.VehicleService, logg))
		})

		r.Route("/reservations", func(r chi.Router) {
			r.Get("/", controllers.ReservationList(deps.ReservationService, logg))
			r.Post("/", controllers.ReservationCreate(deps.ReservationService, logg))
			r.Put("/{reservationId}", controllers.ReservationUpdate(deps.ReservationService, logg))
			r.Delete("/{reservationId}", controllers.ReservationCancel(deps.ReservationService, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin(logg))
				r.Put("/{reservationId}/approve", controllers.ReservationApprove(deps.ReservationService, logg))
				r.Put("/{reservationId}/reject", controllers.ReservationReject(deps.ReservationService, logg))
			})
		})

		r.Route("/slots", func(r chi.Router) {
			r.Get("/", controllers.SlotList(deps.SlotService, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin(logg))
				r.Post("/", controllers.SlotCreate(deps.SlotService, logg))
				r.Put("/{slotId}", controllers.SlotUpdate(deps.SlotService, logg))
				r.Delete("/{slotId}", controllers.SlotDelete(deps.SlotService, logg))
				r.Put("/{slotId}/available", controllers.SlotMarkAvailable(deps.SlotService, logg))
				r.Put("/{slotId}/unavailable", controllers.SlotMarkUnavailable(deps.SlotService, logg))
			})
		})
	})

	return r
}

func healthReady(deps Deps) http.HandlerFunc {
	checks := map[string]controllers.Pinger{}
	if deps.DB != nil {
		checks["database"] = deps.DB
	}
	if deps.Redis != nil {
		checks["redis"] = deps.Redis
	}
	return controllers.HealthReady(deps.Config, deps.Logger, checks)
}
