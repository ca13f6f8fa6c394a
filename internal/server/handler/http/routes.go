package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/atinyakov/GymKeeper/internal/middleware"
	"github.com/atinyakov/GymKeeper/internal/service"
)

// Handlers groups the route handlers mounted by NewRouter.
type Handlers struct {
	Auth      *AuthHandler
	History   *HistoryHandler
	Exercises *ExerciseHandler
}

// NewRouter builds the mobile API.
//
// Public routes:
//
//	POST /users                  sign up
//	POST /sessions               sign in
//	POST /sessions/refresh-token rotate tokens
//	GET  /healthz, GET /metrics
//
// Everything else requires a bearer access token and answers 401 with
// {"message":"token.expired"} or {"message":"token.invalid"}.
func NewRouter(
	h Handlers,
	verifier middleware.TokenVerifier,
	gatherer prometheus.Gatherer,
	metrics *middleware.Metrics,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(metrics.Handler)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusOK, "ok")
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(chiMiddleware.AllowContentType("application/json"))
		r.Post("/users", h.Auth.SignUp)
		r.Post("/sessions", h.Auth.SignIn)
		r.Post("/sessions/refresh-token", h.Auth.Refresh)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.BearerAuth(verifier, service.ErrTokenExpired))
		r.Use(chiMiddleware.AllowContentType("application/json"))

		r.Put("/users", h.Auth.UpdateUser)
		r.Get("/history", h.History.List)
		r.Post("/history", h.History.Create)
		r.Get("/groups", h.Exercises.Groups)
		r.Get("/exercises/bygroup/{group}", h.Exercises.ByGroup)
		r.Get("/exercises/{id}", h.Exercises.Get)
	})

	return r
}
