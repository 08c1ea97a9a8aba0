package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"yardgate/internal/actor"
	"yardgate/internal/api"
	"yardgate/internal/audit"
	"yardgate/internal/booking"
	"yardgate/internal/events"
	"yardgate/pkg/config"
	pkgredis "yardgate/pkg/redis"
)

type Dependencies struct {
	Cfg   config.Config
	DB    *pgxpool.Pool
	Log   zerolog.Logger
	Redis pkgredis.IdempotencyStore
}

func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	actorsRepo := actor.NewRepository(deps.DB)
	eventsRepo := events.NewRepository(deps.DB)
	auditRepo := audit.NewRepository(deps.DB)
	bookingsRepo := booking.NewPostgresRepository(deps.DB)
	engine := booking.NewEngine(bookingsRepo, booking.MultiSink{eventsRepo, auditRepo}, deps.Log)

	bookingHandlers := BookingHandlers{Engine: engine, Events: eventsRepo}
	authHandlers := AuthHandlers{Cfg: deps.Cfg}

	r.Route("/v1", func(r chi.Router) {
		r.Use(api.CORSMiddleware(api.CORSOptions{
			AllowedOrigins: deps.Cfg.AllowedOrigins,
		}))

		r.Post("/auth/token", authHandlers.IssueToken)

		r.Group(func(r chi.Router) {
			r.Use(api.ActorAuth(deps.Cfg, actorsRepo))
			r.Use(api.Idempotency(deps.Redis))

			r.Post("/bookings", bookingHandlers.Create)
			r.Get("/bookings", bookingHandlers.List)
			r.Get("/bookings/{id}", bookingHandlers.Get)
			r.Patch("/bookings/{id}", bookingHandlers.Edit)
			r.Delete("/bookings/{id}", bookingHandlers.Delete)

			r.Post("/bookings/{id}/receive", bookingHandlers.Receive)
			r.Post("/bookings/{id}/unreceive", bookingHandlers.Unreceive)
			r.Post("/bookings/{id}/reject", bookingHandlers.Reject)
			r.Post("/bookings/{id}/start-offloading", bookingHandlers.StartOffloading)
			r.Post("/bookings/{id}/complete-offloading", bookingHandlers.CompleteOffloading)
			r.Post("/bookings/{id}/exit", bookingHandlers.Exit)

			r.Post("/bookings/{id}/approve", bookingHandlers.Approve)
			r.Post("/bookings/{id}/reject-approval", bookingHandlers.RejectApproval)

			r.Get("/bookings/{id}/events", bookingHandlers.ListEvents)
		})
	})

	return r
}
