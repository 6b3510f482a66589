package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Elmeric/cycliti/internal/health"
	"github.com/Elmeric/cycliti/internal/http/handler"
	"github.com/Elmeric/cycliti/internal/http/middleware"
	"github.com/Elmeric/cycliti/internal/http/response"
)

const (
	defaultBodyLimit = 1 << 20
	// Photo uploads carry up to 5MB of image plus multipart framing.
	photoBodyLimit = 6 << 20
)

type Dependencies struct {
	AuthHandler    *handler.AuthHandler
	AccountHandler *handler.AccountHandler
	UserHandler    *handler.UserHandler
	StravaHandler  *handler.StravaHandler
	CurrentUser    middleware.CurrentUserResolver
	APIPrefix      string
	CORSOrigins    []string
	Readiness      *health.ProbeRunner
	EnableOTelHTTP bool
}

func NewRouter(dep Dependencies) http.Handler {
	prefix := dep.APIPrefix
	if prefix == "" {
		prefix = "/api/v1"
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.StructuredRequestLogger)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(dep.CORSOrigins))

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if dep.Readiness == nil {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": []any{}})
			return
		}
		ready, results := dep.Readiness.Ready(r.Context())
		if ready {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": results})
			return
		}
		response.Error(w, r, http.StatusServiceUnavailable, "DEPENDENCY_UNREADY", "dependencies are not ready", map[string]any{"checks": results})
	})

	authenticated := middleware.AuthMiddleware(dep.CurrentUser)

	r.Route(prefix, func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.BodyLimit(defaultBodyLimit))

			r.Post("/login/access-token", dep.AuthHandler.AccessToken)
			r.With(authenticated).Post("/login/test-token", dep.AuthHandler.TestToken)
			r.Post("/password-recovery/{email}", dep.AccountHandler.RecoverPassword)
			r.Post("/reset-password/", dep.AccountHandler.ResetPassword)

			r.Route("/users", func(r chi.Router) {
				r.Post("/", dep.AccountHandler.Register)
				r.Post("/resend-activation-email", dep.AccountHandler.ResendActivation)
				r.Post("/activate-account", dep.AccountHandler.Activate)

				r.Group(func(r chi.Router) {
					r.Use(authenticated)
					r.With(middleware.RequireSuperuser).Get("/", dep.UserHandler.List)
					r.Get("/me", dep.UserHandler.Me)
					r.Delete("/me/photo", dep.UserHandler.DeletePhoto)
					r.Get("/{id}", dep.UserHandler.Get)
				})
			})

			r.Get("/strava/link", dep.StravaHandler.Link)
		})

		r.With(middleware.BodyLimit(photoBodyLimit), authenticated).Put("/users/me/photo", dep.UserHandler.UploadPhoto)
	})

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}
