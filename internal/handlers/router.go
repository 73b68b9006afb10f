package handlers

import (
	"net/http"
	"time"

	"tutorhub/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// NewRouter wires the API routes
func NewRouter(auth *AuthHandler, admin *AdminHandler, mw *Middleware, respond *Responder, logger *zap.Logger) http.Handler {
	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		Logging(logger),
		middleware.Timeout(30*time.Second),
	)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respond.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	router.Route("/api/auth", func(r chi.Router) {
		r.With(mw.RateLimit).Post("/login", auth.Login)
		r.Post("/logout", auth.Logout)
		r.With(mw.RateLimit).Post("/request_password_reset", auth.RequestPasswordReset)
		r.Get("/validate_reset_token", auth.ValidateResetToken)
		r.With(mw.RateLimit).Post("/reset_password", auth.ResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireAuth, mw.CSRFProtect)
			r.Get("/check_session", auth.CheckSession)
			r.Get("/get_permissions", auth.GetPermissions)
			r.Post("/change_password", auth.ChangePassword)
			r.Post("/extend_session", auth.ExtendSession)
		})
	})

	router.Route("/api/admin", func(r chi.Router) {
		r.Use(mw.RequireAuth, mw.RequireRole(models.RoleAdmin), mw.CSRFProtect)
		r.Get("/users", admin.ListUsers)
		r.Post("/users", admin.CreateUser)
		r.Put("/users/{id}/status", admin.SetStatus)
	})

	return router
}
