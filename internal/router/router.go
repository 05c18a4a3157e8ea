package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-task-tracker/internal/config"
	"go-task-tracker/internal/handler"
	"go-task-tracker/internal/middleware"
	"go-task-tracker/internal/model"
)

type Dependencies struct {
	Config       *config.Config
	Auth         *middleware.AuthMiddleware
	RateLimit    *middleware.RateLimitMiddleware
	AuthHandler  *handler.AuthHandler
	TodoHandler  *handler.TodoHandler
	UserHandler  *handler.UserHandler
	AuditHandler *handler.AuditHandler
	Health       http.HandlerFunc
}

func New(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(deps.Config.CORSOrigins))
	r.Use(deps.RateLimit.Handler)

	r.Get("/health", deps.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(deps.Config.RequestTimeout))

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", deps.AuthHandler.Register)
			r.Post("/login", deps.AuthHandler.Login)
			r.Post("/refresh", deps.AuthHandler.Refresh)

			r.Group(func(r chi.Router) {
				r.Use(deps.Auth.RequireAuth)
				r.Post("/logout", deps.AuthHandler.Logout)
				r.Get("/me", deps.AuthHandler.Me)
				r.Put("/password", deps.AuthHandler.ChangePassword)
			})
		})

		r.Route("/todos", func(r chi.Router) {
			r.Use(deps.Auth.RequireAuth)

			r.Post("/", deps.TodoHandler.Create)
			r.Get("/", deps.TodoHandler.List)
			r.Get("/{id}", deps.TodoHandler.Get)
			r.Put("/{id}", deps.TodoHandler.Update)
			r.Delete("/{id}", deps.TodoHandler.Delete)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(deps.Auth.RequireAuth)
			r.Use(deps.Auth.RequireRoles(model.RoleAdmin))

			r.Route("/users", func(r chi.Router) {
				r.Get("/", deps.UserHandler.List)
				r.Get("/{id}", deps.UserHandler.Get)
				r.Delete("/{id}", deps.UserHandler.Delete)
			})

			r.Route("/todos", func(r chi.Router) {
				r.Get("/", deps.TodoHandler.AdminList)
				r.Get("/{id}", deps.TodoHandler.AdminGet)
				r.Put("/{id}", deps.TodoHandler.AdminUpdate)
				r.Delete("/{id}", deps.TodoHandler.AdminDelete)
			})

			r.Get("/audit", deps.AuditHandler.Query)
		})
	})

	return r
}
