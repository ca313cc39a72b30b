// internal/app/features/users/list.go
package users

import (
	"context"
	"net/http"

	httperr "github.com/dalemusser/votehub/internal/app/features/errors"
	"github.com/dalemusser/votehub/internal/app/system/timeouts"
	"github.com/dalemusser/votehub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
)

type listResponse struct {
	Users []models.User `json:"users"`
	Count int           `json:"count"`
}

// ServeVoters handles GET /users/voters.
//
// Query: nim, email, name, yearClass (exact, or partial with '*'), search,
// sort, limit, skip.
func (h *Handler) ServeVoters(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Users.FindAllNonAdmin(ctx, r.URL.Query())
	if err != nil {
		h.writeError(w, "list voters", err)
		return
	}
	httperr.WriteJSON(w, http.StatusOK, listResponse{Users: list, Count: len(list)})
}

// ServeAdmins handles GET /users/admins. Same query as ServeVoters.
func (h *Handler) ServeAdmins(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Users.FindAllAdmin(ctx, r.URL.Query())
	if err != nil {
		h.writeError(w, "list admins", err)
		return
	}
	httperr.WriteJSON(w, http.StatusOK, listResponse{Users: list, Count: len(list)})
}

type statsResponse struct {
	Voters int64 `json:"voters"`
	Admins int64 `json:"admins"`
}

// ServeStats handles GET /users/stats.
func (h *Handler) ServeStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	voters, err := h.Users.TotalNonAdminUser(ctx)
	if err != nil {
		h.writeError(w, "count voters", err)
		return
	}
	admins, err := h.Users.TotalAdminUser(ctx)
	if err != nil {
		h.writeError(w, "count admins", err)
		return
	}
	httperr.WriteJSON(w, http.StatusOK, statsResponse{Voters: voters, Admins: admins})
}

type checkResponse struct {
	NIMTaken   *bool `json:"nim_taken,omitempty"`
	EmailTaken *bool `json:"email_taken,omitempty"`
}

// ServeCheck handles GET /users/check?nim=&email= and reports whether each
// given value is already used.
func (h *Handler) ServeCheck(w http.ResponseWriter, r *http.Request) {
	nim := query.Get(r, "nim")
	email := query.Get(r, "email")
	if nim == "" && email == "" {
		httperr.Write(w, http.StatusBadRequest, "nim or email is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	var resp checkResponse
	if nim != "" {
		u, err := h.Users.ValidateNIM(ctx, nim)
		if err != nil {
			h.writeError(w, "check nim", err)
			return
		}
		taken := u != nil
		resp.NIMTaken = &taken
	}
	if email != "" {
		u, err := h.Users.ValidateEmail(ctx, email)
		if err != nil {
			h.writeError(w, "check email", err)
			return
		}
		taken := u != nil
		resp.EmailTaken = &taken
	}
	httperr.WriteJSON(w, http.StatusOK, resp)
}
