// internal/app/features/users/create.go
package users

import (
	"context"
	"encoding/json"
	"net/http"

	httperr "github.com/dalemusser/votehub/internal/app/features/errors"
	usersvc "github.com/dalemusser/votehub/internal/app/service/users"
	"github.com/dalemusser/votehub/internal/app/system/inputval"
	"github.com/dalemusser/votehub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

const maxJSONBody = 16 << 10

// createRequest is the wire DTO. It is resolved into one of the two
// service inputs before anything reaches the service.
type createRequest struct {
	NIM       string `json:"nim"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	IsAdmin   bool   `json:"isAdmin"`
	Password  string `json:"password"`
	YearClass *int   `json:"yearClass"`
}

type adminCreate struct {
	NIM      string `validate:"omitempty,nim,max=32" label:"nim"`
	Email    string `validate:"required,mailaddr,max=254" label:"email"`
	Name     string `validate:"required,max=120" label:"name"`
	Password string `validate:"required,min=6,max=128" label:"password"`
}

type voterCreate struct {
	NIM       string `validate:"required,nim,max=32" label:"nim"`
	Email     string `validate:"required,mailaddr,max=254" label:"email"`
	Name      string `validate:"required,max=120" label:"name"`
	YearClass int    `validate:"required,gte=1900,lte=2200" label:"yearClass"`
}

// resolve validates the DTO and returns the matching service input.
func (req createRequest) resolve() (usersvc.CreateInput, *inputval.Result) {
	if req.IsAdmin {
		in := adminCreate{NIM: req.NIM, Email: req.Email, Name: req.Name, Password: req.Password}
		if res := inputval.Validate(in); res.HasErrors() {
			return nil, res
		}
		return usersvc.AdminInput(in), nil
	}

	in := voterCreate{NIM: req.NIM, Email: req.Email, Name: req.Name}
	if req.YearClass != nil {
		in.YearClass = *req.YearClass
	}
	if res := inputval.Validate(in); res.HasErrors() {
		return nil, res
	}
	return usersvc.NonAdminInput(in), nil
}

// HandleCreate handles POST /users.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperr.Write(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	in, res := req.resolve()
	if res != nil {
		httperr.WriteDetails(w, http.StatusBadRequest, res.First(), res.Fields())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.CreateUser(ctx, in)
	if err != nil {
		h.writeError(w, "create user", err)
		return
	}

	h.Log.Info("user created", zap.String("user_id", u.ID.Hex()), zap.Bool("admin", u.Admin()))
	h.Audit.UserCreated(ctx, r, u.ID, u.Admin())
	httperr.WriteJSON(w, http.StatusCreated, u)
}
