package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/logan/usecasehub/internal/account"
	"github.com/logan/usecasehub/internal/api/handler"
	"github.com/logan/usecasehub/internal/api/middleware"
	"github.com/logan/usecasehub/internal/auth"
	"github.com/logan/usecasehub/internal/config"
	"github.com/logan/usecasehub/internal/refresh"
	"github.com/logan/usecasehub/internal/service"
	"github.com/logan/usecasehub/internal/tools"
	"github.com/logan/usecasehub/internal/usecase"
)

// Services bundles all service dependencies for the router.
type Services struct {
	Tabs       *service.TabService
	UseCases   *usecase.Client
	Accounts   *account.Client
	Signal     *refresh.Signal
	Classifier *tools.Classifier
	DB         handler.Pinger // nil when tab state lives in memory
	Logger     *slog.Logger
	Version    string
}

// NewRouter creates the Chi router with all routes and middleware.
func NewRouter(cfg *config.Config, svcs *Services) http.Handler {
	logger := svcs.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Security(cfg.BaseURL))
	r.Use(middleware.TraceLog(logger))

	if cfg.FrontendURL != "" {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{cfg.FrontendURL},
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Health and metrics (no auth)
	r.Get("/healthz", handler.Health(svcs.DB, svcs.Version))
	r.Handle("/metrics", promhttp.Handler())

	// Workflow table (no auth, static)
	r.Get("/workflow", handler.Workflow())
	r.Get("/workflow/{status}", handler.NextStates())

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.UserAuth(cfg.JWTSecret))

		ah := handler.NewAccountHandler(svcs.Accounts)
		r.Get("/auth/me", ah.Me)
		r.Get("/tools", handler.Tools(svcs.Classifier))

		// Refresh signal
		rh := handler.NewRefreshHandler(svcs.Signal, cfg.FrontendURL)
		r.Get("/refresh", rh.Epoch)
		r.Get("/refresh/ws", rh.Stream)

		// Tab chat sessions
		ch := handler.NewChatHandler(svcs.Tabs)
		r.Post("/tabs", ch.OpenTab)
		r.Route("/tabs/{tab}", func(r chi.Router) {
			r.Get("/chat", ch.Get)
			r.With(middleware.RateLimit(cfg.ChatRateRPS, cfg.ChatRateBurst)).Post("/chat", ch.Send)
			r.Delete("/chat", ch.Clear)
			r.Post("/session", ch.Reset)
			r.Put("/attachment", ch.Attach)
			r.Delete("/attachment", ch.Detach)
		})

		// Use cases: anyone signed in reads, maintainers change
		uh := handler.NewUseCaseHandler(svcs.UseCases, svcs.Tabs)
		r.Route("/use-cases", func(r chi.Router) {
			r.Get("/", uh.List)
			r.Get("/{id}", uh.Get)
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(auth.RoleMaintainer))
				r.Patch("/{id}", uh.Update)
				r.Delete("/{id}", uh.Archive)
				r.Post("/{id}/restore", uh.Restore)
			})
		})

		// User administration
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(auth.RoleAdmin))
			r.Get("/auth/users", ah.ListUsers)
			r.Patch("/auth/users/{id}", ah.UpdateRole)
		})
	})

	return r
}
