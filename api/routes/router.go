package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/servicedesk-backend/api/controllers"
	"github.com/angelmondragon/servicedesk-backend/api/middleware"
	"github.com/angelmondragon/servicedesk-backend/internal/accomplishments"
	"github.com/angelmondragon/servicedesk-backend/internal/assignments"
	"github.com/angelmondragon/servicedesk-backend/internal/auth"
	"github.com/angelmondragon/servicedesk-backend/internal/bookings"
	"github.com/angelmondragon/servicedesk-backend/internal/catalog"
	"github.com/angelmondragon/servicedesk-backend/internal/notifications"
	"github.com/angelmondragon/servicedesk-backend/internal/requests"
	"github.com/angelmondragon/servicedesk-backend/pkg/auth/session"
	"github.com/angelmondragon/servicedesk-backend/pkg/config"
	"github.com/angelmondragon/servicedesk-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/servicedesk-backend/pkg/redis"
)

// RedisStore is the slice of the Redis client the HTTP layer needs.
type RedisStore interface {
	pkgredis.IdempotencyStore
	controllers.Pinger
	middleware.WindowLimiter
}

// Deps carries everything NewRouter mounts. Nil services answer 503.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       controllers.Pinger
	Redis    RedisStore
	Sessions session.Checker
	Gatherer prometheus.Gatherer

	Auth            auth.Service
	Catalog         catalog.Service
	Staff           controllers.StaffLister
	Requests        requests.Service
	Assignments     assignments.Service
	Bookings        bookings.Service
	Accomplishments accomplishments.Service
	Notifications   notifications.Service
}

func NewRouter(d Deps) http.Handler {
	cfg, logg := d.Config, d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	loginPolicy := middleware.NewLoginRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	idempotent := middleware.Idempotency(d.Redis, cfg.Idempotency.TTL, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.DB, d.Redis))
	})
	if cfg.FeatureFlags.Metrics && d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.With(idempotent).Post("/requests", controllers.PublicSubmitRequest(d.Requests, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.With(middleware.LoginRateLimit(loginPolicy, d.Redis, logg)).Post("/auth/login", controllers.AuthLogin(d.Auth, logg))
		r.Post("/auth/refresh", controllers.AuthRefresh(d.Auth, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, d.Sessions, logg))
			admin := middleware.RequireAdmin(logg)

			r.Post("/auth/logout", controllers.AuthLogout(d.Auth, logg))

			r.Route("/catalog", func(r chi.Router) {
				r.Get("/offices", controllers.ListOffices(d.Catalog, logg))
				r.Get("/categories", controllers.ListCategories(d.Catalog, logg))
				r.Get("/services", controllers.ListServices(d.Catalog, logg))
				r.Get("/staff", controllers.ListStaff(d.Staff, logg))
			})

			r.Route("/requests", func(r chi.Router) {
				r.Get("/", controllers.ListRequests(d.Requests, logg))
				r.Post("/", controllers.CreateRequest(d.Requests, logg))
				r.Route("/{requestId}", func(r chi.Router) {
					r.Get("/", controllers.GetRequest(d.Requests, logg))
					r.Patch("/classification", controllers.UpdateClassification(d.Requests, logg))
					r.Get("/status", controllers.GetRequestStatus(d.Requests, logg))
					r.Get("/service-times", controllers.GetServiceTimes(d.Requests, logg))

					r.With(admin).Put("/assignees", controllers.AssignUsers(d.Requests, logg))
					r.With(admin).Put("/return-by", controllers.SetReturnBy(d.Requests, logg))
					r.With(admin).Delete("/", controllers.DeleteRequest(d.Requests, logg))
					r.With(admin).Post("/restore", controllers.RestoreRequest(d.Requests, logg))
				})
			})

			r.Route("/assignments", func(r chi.Router) {
				r.Get("/mine", controllers.ListMyAssignments(d.Assignments, logg))
				r.Route("/{assignmentId}", func(r chi.Router) {
					r.Post("/proceed", controllers.ProceedToWork(d.Assignments, logg))
					r.Post("/time", controllers.SaveTime(d.Assignments, logg))
					r.With(idempotent).Post("/complete", controllers.CompleteWork(d.Assignments, logg))
					r.With(idempotent).Post("/accomplishment", controllers.LinkAssignmentAccomplishment(d.Assignments, logg))
				})
			})

			r.Get("/accomplishments/outputs", controllers.ListOutputs(d.Accomplishments, logg))

			r.Route("/bookings", func(r chi.Router) {
				r.Get("/", controllers.ListBookings(d.Bookings, logg))
				r.With(idempotent).Post("/", controllers.CreateBooking(d.Bookings, logg))
				r.Route("/{bookingId}", func(r chi.Router) {
					r.Get("/", controllers.GetBooking(d.Bookings, logg))
					r.Patch("/", controllers.UpdateBooking(d.Bookings, logg))
					r.Put("/released", controllers.SetBookingReleased(d.Bookings, logg))
					r.Put("/returned", controllers.SetBookingReturned(d.Bookings, logg))
					r.With(idempotent).Post("/accomplishment", controllers.LinkBookingAccomplishment(d.Bookings, logg))
				})
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", controllers.ListNotifications(d.Notifications, logg))
				r.Post("/read-all", controllers.MarkAllNotificationsRead(d.Notifications, logg))
				r.Post("/{notificationId}/read", controllers.MarkNotificationRead(d.Notifications, logg))
			})
		})
	})

	return r
}
