package routes

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trailquest/trailquest-backend/api/controllers"
	"github.com/trailquest/trailquest-backend/api/middleware"
	"github.com/trailquest/trailquest-backend/api/responses"
	"github.com/trailquest/trailquest-backend/pkg/config"
	pkgerrors "github.com/trailquest/trailquest-backend/pkg/errors"
	"github.com/trailquest/trailquest-backend/pkg/enums"
	"github.com/trailquest/trailquest-backend/pkg/logger"
	"github.com/trailquest/trailquest-backend/pkg/metrics"
)

// Deps carries everything the router wires together.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	Auth        *controllers.AuthController
	Users       *controllers.UsersController
	Health      *controllers.HealthController
	UserFinder  middleware.UserFinder
	RateStore   middleware.RateStore
	HTTPMetrics *metrics.HTTPMetrics
	Registry    *prometheus.Registry
}

// New assembles the full route table. Every unknown path, API or not, exits
// through the error normalizer as an operational 404.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer(d.Config, d.Logger))
	r.Use(middleware.RequestID(d.Logger))
	r.Use(middleware.Logging(d.Logger, d.HTTPMetrics))

	notFound := func(w http.ResponseWriter, req *http.Request) {
		responses.WriteError(req.Context(), d.Config.App, d.Logger, w, req,
			pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("Can't find %s on this server", req.URL.Path)))
	}
	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	r.Get("/health/live", d.Health.Live)
	r.Get("/health/ready", d.Health.Ready)

	if d.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	}

	limits := d.Config.AuthRateLimit
	loginLimiter := middleware.AuthRateLimit(d.Config, d.RateStore, d.Logger, middleware.RateLimitPolicy{
		Scope:  "login",
		Limit:  int64(limits.LoginEmailLimit),
		Window: limits.LoginWindow,
	})
	signupLimiter := middleware.AuthRateLimit(d.Config, d.RateStore, d.Logger, middleware.RateLimitPolicy{
		Scope:  "signup",
		Limit:  int64(limits.SignupEmailLimit),
		Window: limits.SignupWindow,
	})
	forgotLimiter := middleware.AuthRateLimit(d.Config, d.RateStore, d.Logger, middleware.RateLimitPolicy{
		Scope:  "forgot_password",
		Limit:  int64(limits.LoginEmailLimit),
		Window: limits.LoginWindow,
	})

	protect := middleware.Protect(d.Config, d.UserFinder, d.Logger)

	r.Route("/api/v1/users", func(r chi.Router) {
		r.With(signupLimiter).Post("/signup", d.Auth.Signup)
		r.With(loginLimiter).Post("/login", d.Auth.Login)
		r.With(forgotLimiter).Post("/forgotPassword", d.Auth.ForgotPassword)
		r.Patch("/resetPassword/{token}", d.Auth.ResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(protect)

			r.Patch("/updateMyPassword", d.Auth.UpdatePassword)
			r.Get("/me", d.Users.Me)
			r.Patch("/updateMe", d.Users.UpdateMe)
			r.Delete("/deleteMe", d.Users.DeleteMe)

			r.With(middleware.RestrictTo(d.Config, d.Logger, enums.RoleAdmin, enums.RoleLeadGuide)).
				Get("/", d.Users.List)
		})
	})

	return r
}
