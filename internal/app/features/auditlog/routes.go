// internal/app/features/auditlog/routes.go
package auditlog

import (
	"github.com/dalemusser/votehub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the audit log routes under the path where this
// router is mounted (typically "/audit" from bootstrap).
//
// Access is restricted to admins.
func Routes(h *Handler, am *auth.Manager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(am.RequireSignedIn)
		pr.Use(am.RequireAdmin)

		pr.Get("/", h.ServeList)
		pr.Get("/failed-logins", h.ServeFailedLogins)
	})

	return r
}
