package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"algo_tracker/internal/api/handler"
	"algo_tracker/internal/api/middleware"
	"algo_tracker/internal/platform/config"
)

// Deps is everything the router wires together. OAuth may be nil, in
// which case the Google routes are not served.
type Deps struct {
	Log      logrus.FieldLogger
	Sessions *middleware.Sessions
	Guard    *middleware.Guard
	Limiter  *middleware.RateLimiter
	Metrics  *middleware.Metrics

	AuthService        handler.AuthService
	GoogleAuth         handler.GoogleAuthenticator
	ProblemService     handler.ProblemService
	UserService        handler.UserService
	UserProblemService handler.UserProblemService
	OAuth              handler.OAuthProvider

	AllowedOrigins []string
	FrontendURL    string
	// TrustProxy enables chi's RealIP, which rewrites RemoteAddr from
	// client supplied headers. The rate limiter keys on RemoteAddr.
	TrustProxy bool
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	if d.TrustProxy {
		r.Use(chiMiddleware.RealIP)
	}
	r.Use(middleware.RequestLogger(d.Log))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestSize(config.MaxRequestBytes))
	r.Use(chiMiddleware.Timeout(60 * time.Second))
	r.Use(d.Metrics.Instrument)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(d.Sessions.Load)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())

	r.Route("/api", func(api chi.Router) {
		authHandler := handler.NewAuthHandler(d.AuthService, d.Sessions, d.Limiter, d.Log)
		api.Group(authHandler.RegisterRoutes)

		problemHandler := handler.NewProblemHandler(d.ProblemService, d.Guard, d.Log)
		api.Route("/problems", problemHandler.RegisterRoutes)

		userHandler := handler.NewUserHandler(d.UserService, d.Guard, d.Log)
		attemptHandler := handler.NewUserProblemHandler(d.UserProblemService, d.Guard, d.Log)
		api.Route("/users", func(users chi.Router) {
			userHandler.RegisterRoutes(users)
			attemptHandler.RegisterUserRoutes(users)
		})
		api.Route("/user-problems", attemptHandler.RegisterRoutes)
	})

	if d.OAuth != nil {
		oauthHandler := handler.NewOAuthHandler(d.OAuth, d.GoogleAuth, d.Sessions, d.FrontendURL, d.Log)
		oauthHandler.RegisterRoutes(r)
	}

	return r
}
