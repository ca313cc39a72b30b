// internal/app/features/login/routes.go
package login

import (
	"github.com/dalemusser/votehub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes is mounted at /login. GET /login/me echoes the token's user.
func Routes(h *Handler, am *auth.Manager) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.HandleLogin)
	r.With(am.RequireSignedIn).Get("/me", h.ServeMe)
	return r
}
