// internal/app/features/users/user.go
package users

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	httperr "github.com/dalemusser/votehub/internal/app/features/errors"
	usersvc "github.com/dalemusser/votehub/internal/app/service/users"
	"github.com/dalemusser/votehub/internal/app/system/auth"
	"github.com/dalemusser/votehub/internal/app/system/timeouts"
	"github.com/dalemusser/votehub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ServeUser handles GET /users/{id}.
func (h *Handler) ServeUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.FindUserByID(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, "get user", err)
		return
	}
	if u == nil {
		notFound(w)
		return
	}
	httperr.WriteJSON(w, http.StatusOK, u)
}

type existsResponse struct {
	Exists  bool `json:"exists"`
	IsAdmin bool `json:"is_admin"`
}

// ServeExists handles GET /users/{id}/exists.
func (h *Handler) ServeExists(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.IsExist(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, "user exists", err)
		return
	}
	httperr.WriteJSON(w, http.StatusOK, existsResponse{Exists: u != nil, IsAdmin: u.Admin()})
}

// HandleDelete handles DELETE /users/{id} and returns the deleted record.
// An admin cannot delete their own account.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if me, ok := auth.CurrentUser(r); ok && me.ID == id {
		httperr.Write(w, http.StatusBadRequest, "you cannot delete your own account")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.DeleteUserByID(ctx, id)
	if err != nil {
		h.writeError(w, "delete user", err)
		return
	}
	if u == nil {
		notFound(w)
		return
	}
	h.Log.Info("user deleted", zap.String("user_id", id))
	h.Audit.UserDeleted(ctx, r, u.ID)
	httperr.WriteJSON(w, http.StatusOK, u)
}

type credentialsResponse struct {
	Sent bool         `json:"sent"`
	User *models.User `json:"user"`
}

// HandleSendCredentials handles POST /users/{id}/credentials.
func (h *Handler) HandleSendCredentials(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "send credentials")
	defer cancel()

	id := chi.URLParam(r, "id")
	u, err := h.Users.SendCredentials(ctx, id)
	if errors.Is(err, usersvc.ErrSendCredentials) {
		// The password was rotated even though the mail failed.
		if oid, perr := primitive.ObjectIDFromHex(id); perr == nil {
			h.Audit.CredentialsSent(ctx, r, oid, err)
		}
	}
	if err != nil {
		h.writeError(w, "send credentials", err)
		return
	}
	if u == nil {
		notFound(w)
		return
	}
	h.Audit.CredentialsSent(ctx, r, u.ID, nil)
	httperr.WriteJSON(w, http.StatusOK, credentialsResponse{Sent: true, User: u})
}

type voteRequest struct {
	Voted *bool `json:"voted"`
}

// HandleVote handles PUT /users/{id}/vote with body {"voted": bool}.
func (h *Handler) HandleVote(w http.ResponseWriter, r *http.Request) {
	var req voteRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperr.Write(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Voted == nil {
		httperr.Write(w, http.StatusBadRequest, "voted is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.UpdateVoteField(ctx, chi.URLParam(r, "id"), *req.Voted)
	if err != nil {
		h.writeError(w, "update vote", err)
		return
	}
	if u == nil {
		notFound(w)
		return
	}
	h.Audit.VoteUpdated(ctx, r, u.ID, *req.Voted)
	httperr.WriteJSON(w, http.StatusOK, u)
}
