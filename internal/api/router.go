package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"threatdash/internal/api/handlers"
	apimiddleware "threatdash/internal/api/middleware"
	"threatdash/internal/config"
	"threatdash/internal/web"
	"threatdash/pkg/logger"
)

// Router holds dependencies for the API router
type Router struct {
	config   *config.Config
	handlers *handlers.Handlers
	verifier apimiddleware.TokenVerifier
	limiter  apimiddleware.WindowLimiter // nil uses the in-process limiter
	metrics  *apimiddleware.Metrics
	pages    *web.Pages
	logger   *logger.Logger
}

// NewRouter creates a new Router instance. limiter and pages may be nil.
func NewRouter(
	cfg *config.Config,
	h *handlers.Handlers,
	verifier apimiddleware.TokenVerifier,
	limiter apimiddleware.WindowLimiter,
	metrics *apimiddleware.Metrics,
	pages *web.Pages,
	log *logger.Logger,
) *Router {
	return &Router{
		config:   cfg,
		handlers: h,
		verifier: verifier,
		limiter:  limiter,
		metrics:  metrics,
		pages:    pages,
		logger:   log.WithComponent("router"),
	}
}

// Setup sets up the Chi router with all routes and middleware
func (r *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Core middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(apimiddleware.Logger(r.logger))
	router.Use(apimiddleware.Recoverer(r.logger))
	if r.metrics != nil {
		router.Use(r.metrics.Middleware)
	}
	timeout := r.config.Server.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	router.Use(middleware.Timeout(timeout))

	// CORS
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   r.config.CORS.AllowedOrigins,
		AllowedMethods:   r.config.CORS.AllowedMethods,
		AllowedHeaders:   r.config.CORS.AllowedHeaders,
		AllowCredentials: r.config.CORS.AllowCredentials,
		MaxAge:           r.config.CORS.MaxAge,
	}))

	router.NotFound(func(w http.ResponseWriter, req *http.Request) {
		respond(w, http.StatusNotFound, "Endpoint not found", "No route for "+req.Method+" "+req.URL.Path)
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		respond(w, http.StatusMethodNotAllowed, "Method not allowed", "Method "+req.Method+" is not supported for "+req.URL.Path)
	})

	if r.metrics != nil {
		router.Method(http.MethodGet, "/metrics", r.metrics.Handler())
	}

	router.Route("/api", func(api chi.Router) {
		// Rate limiting
		if r.config.RateLimit.Enabled {
			api.Use(apimiddleware.RateLimiter(r.limiter, r.config.RateLimit.RequestsPerMinute, r.logger))
		}

		api.Get("/health", r.handlers.Health.Check)
		api.Get("/ready", r.handlers.Health.Ready)
		api.Get("/stats", r.handlers.Stats.Get)

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/register", r.handlers.Auth.Register)
			auth.Post("/login", r.handlers.Auth.Login)
			auth.Group(func(session chi.Router) {
				session.Use(apimiddleware.Authenticate(r.verifier))
				session.Get("/me", r.handlers.Auth.Me)
				session.Post("/logout", r.handlers.Auth.Logout)
			})
		})

		// Record collections; writes need a token when auth.required is set
		api.Group(func(records chi.Router) {
			if r.config.Auth.Required {
				records.Use(apimiddleware.RequireAuthForWrites(r.verifier))
			}
			records.Route("/actors", r.handlers.Actors.Routes)
			records.Route("/indicators", r.handlers.Indicators.Routes)
			records.Route("/incidents", r.handlers.Incidents.Routes)
			records.Route("/feeds", r.handlers.Feeds.Routes)
			records.Route("/sources", r.handlers.Feeds.Routes)
		})
	})

	// Page shells and assets
	if r.pages != nil {
		router.Get("/", r.pages.Handler("home"))
		for _, name := range r.pages.Names() {
			if name == "home" {
				continue
			}
			router.Get("/"+name, r.pages.Handler(name))
		}
		router.Handle("/static/*", web.Static())
	}

	return router
}

func respond(w http.ResponseWriter, status int, label, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(handlers.ErrorResponse{Error: label, Message: message})
}
