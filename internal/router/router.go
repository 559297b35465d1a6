package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/handlers"
	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/middleware"
	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/models"
	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	guard *middleware.AccessGuard,
	authHandler *handlers.AuthHandler,
	applicantHandler *handlers.ApplicantHandler,
	organizationHandler *handlers.OrganizationHandler,
	contractHandler *handlers.ContractHandler,
	visitHandler *handlers.VisitHandler,
	userHandler *handlers.UserHandler,
	settingHandler *handlers.SettingHandler,
	lockHandler *handlers.LockHandler,
	exportHandler *handlers.ExportHandler,
	wsHub *websocket.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Auth rate limiter (10 req/min per IP)
	authLimiter := middleware.NewRateLimiter(10, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// Auth routes. Login is public; everything past it goes through
		// the token check and the access guard.
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/login", authHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.Use(guard.Require(models.RoleAnyone))
				r.Post("/logout", authHandler.Logout)
				r.Get("/me", authHandler.Me)
			})
		})

		// Applicant routes
		r.Route("/applicants", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)

			r.Group(func(r chi.Router) {
				r.Use(guard.Require(models.RoleAnyone))
				r.Get("/search", applicantHandler.Search)
				r.Get("/{id}", applicantHandler.Get)
				r.Get("/{id}/visits", visitHandler.ListByApplicant)
			})

			r.Group(func(r chi.Router) {
				r.Use(guard.Require(models.RoleAdmin, models.RoleModer, models.RoleOper))
				r.Post("/", applicantHandler.Create)
				r.Get("/{id}/edit", applicantHandler.Edit)
				r.Put("/{id}", applicantHandler.Update)
				r.Post("/{id}/edit/cancel", applicantHandler.CancelEdit)
			})

			r.Group(func(r chi.Router) {
				r.Use(guard.Require(models.RoleSuper, models.RoleAdmin))
				r.Delete("/{id}", applicantHandler.Delete)
			})
		})

		// Organization routes
		r.Route("/organizations", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)

			r.Group(func(r chi.Router) {
				r.Use(guard.Require(models.RoleAnyone))
				r.Get("/", organizationHandler.List)
				r.Get("/{id}", organizationHandler.Get)
			})

			r.Group(func(r chi.Router) {
				r.Use(guard.Require(models.RoleAdmin, models.RoleModer))
				r.Post("/", organizationHandler.Create)
				r.Get("/{id}/edit", organizationHandler.Edit)
				r.Put("/{id}", organizationHandler.Update)
				r.Post("/{id}/edit/cancel", organizationHandler.CancelEdit)
			})

			r.Group(func(r chi.Router) {
				r.Use(guard.Require(models.RoleSuper, models.RoleAdmin))
				r.Delete("/{id}", organizationHandler.Delete)
			})
		})

		// Contract routes
		r.Route("/contracts", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)

			r.Group(func(r chi.Router) {
				r.Use(guard.Require(models.RoleAnyone))
				r.Get("/", contractHandler.List)
				r.Get("/{id}", contractHandler.Get)
			})

			r.Group(func(r chi.Router) {
				r.Use(guard.Require(models.RoleAdmin, models.RoleModer))
				r.Post("/", contractHandler.Create)
				r.Get("/{id}/edit", contractHandler.Edit)
				r.Put("/{id}", contractHandler.Update)
				r.Post("/{id}/edit/cancel", contractHandler.CancelEdit)
			})

			r.Group(func(r chi.Router) {
				r.Use(guard.Require(models.RoleSuper, models.RoleAdmin))
				r.Delete("/{id}", contractHandler.Delete)
			})
		})

		// Visit routes
		r.Route("/visits", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)

			r.Group(func(r chi.Router) {
				r.Use(guard.Require(models.RoleAdmin, models.RoleModer, models.RoleOper))
				r.Post("/", visitHandler.Create)
				r.Get("/{id}/edit", visitHandler.Edit)
				r.Put("/{id}", visitHandler.Update)
				r.Post("/{id}/edit/cancel", visitHandler.CancelEdit)
			})

			r.Group(func(r chi.Router) {
				r.Use(guard.Require(models.RoleSuper, models.RoleAdmin))
				r.Delete("/{id}", visitHandler.Delete)
			})
		})

		// User administration
		r.Route("/users", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)

			r.Group(func(r chi.Router) {
				r.Use(guard.Require(models.RoleSuper, models.RoleAdmin))
				r.Get("/", userHandler.List)
				r.Get("/{id}", userHandler.Get)
				r.Post("/", userHandler.Create)
				r.Get("/{id}/edit", userHandler.Edit)
				r.Put("/{id}", userHandler.Update)
				r.Post("/{id}/edit/cancel", userHandler.CancelEdit)
			})

			r.Group(func(r chi.Router) {
				r.Use(guard.Require(models.RoleSuper))
				r.Delete("/{id}", userHandler.Delete)
			})
		})

		// Access policy settings
		r.Route("/settings", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Use(guard.Require(models.RoleSuper))
			r.Get("/", settingHandler.List)
			r.Get("/current", settingHandler.Current)
			r.Post("/", settingHandler.Create)
			r.Post("/{id}/activate", settingHandler.Activate)
			r.Delete("/{id}", settingHandler.Delete)
		})

		// Page lock administration
		r.Route("/locks", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Use(guard.Require(models.RoleSuper))
			r.Get("/summary", lockHandler.Summary)
			r.Post("/clear", lockHandler.ClearAll)
		})

		// Export routes
		r.Route("/exports", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Use(guard.Require(models.RoleAdmin, models.RoleModer))
			r.Post("/", exportHandler.Create)
			r.Get("/{id}", exportHandler.Get)
		})

		// WebSocket
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
