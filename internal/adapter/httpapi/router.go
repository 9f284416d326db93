package httpapi

import (
	"github.com/Abdurahmanit/GroupProject/account-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/account-service/internal/platform/metrics"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the account HTTP API. metricsManager may be nil.
func NewRouter(svc AccountService, log *logger.Logger, metricsManager *metrics.MetricsManager) *chi.Mux {
	h := NewUserHandler(svc, log)

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Tracing)
	r.Use(Logger(log))
	r.Use(Metrics(metricsManager))
	r.Use(chimw.Recoverer)

	r.Get("/", h.Root)
	r.Get("/healthz", h.Healthz)

	r.Route("/api", func(api chi.Router) {
		api.Post("/register", h.Register)
		api.Post("/login", h.Login)
		api.Post("/forgot-password", h.ForgotPassword)
		api.Put("/reset-password/{token}", h.ResetPassword)

		api.Group(func(authRouter chi.Router) {
			authRouter.Use(Auth(svc, log))
			authRouter.Get("/profile", h.GetProfile)
			authRouter.Put("/profile", h.UpdateProfile)
		})
	})
	return r
}
