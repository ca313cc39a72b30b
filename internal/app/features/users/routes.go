// internal/app/features/users/routes.go
package users

import (
	"github.com/dalemusser/votehub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the user administration API under the path where this
// router is mounted (typically "/users" from bootstrap).
//
//	h := users.NewHandler(svc, auditLogger, logger)
//	r.Mount("/users", users.Routes(h, authMgr))
func Routes(h *Handler, am *auth.Manager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		// Only signed-in admins manage users.
		pr.Use(am.RequireSignedIn)
		pr.Use(am.RequireAdmin)

		pr.Get("/check", h.ServeCheck)
		pr.Post("/", h.HandleCreate)
		pr.Post("/import", h.HandleImport)

		pr.Get("/voters", h.ServeVoters)
		pr.Get("/admins", h.ServeAdmins)
		pr.Get("/stats", h.ServeStats)

		pr.Get("/{id}", h.ServeUser)
		pr.Get("/{id}/exists", h.ServeExists)
		pr.Delete("/{id}", h.HandleDelete)
		pr.Post("/{id}/credentials", h.HandleSendCredentials)
		pr.Put("/{id}/vote", h.HandleVote)
	})

	return r
}
