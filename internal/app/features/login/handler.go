// internal/app/features/login/handler.go
package login

// Terminology: User Identifiers
//   - UserID / userID / user_id: The MongoDB ObjectID (_id) that uniquely identifies a user record
//   - Identifier: the string a user types to log in (email or nim)

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	httperr "github.com/dalemusser/votehub/internal/app/features/errors"
	usersvc "github.com/dalemusser/votehub/internal/app/service/users"
	"github.com/dalemusser/votehub/internal/app/system/auditlog"
	"github.com/dalemusser/votehub/internal/app/system/auth"
	"github.com/dalemusser/votehub/internal/app/system/authutil"
	"github.com/dalemusser/votehub/internal/app/system/inputval"
	"github.com/dalemusser/votehub/internal/app/system/ratelimit"
	"github.com/dalemusser/votehub/internal/app/system/timeouts"
	"github.com/dalemusser/votehub/internal/domain/models"
	"go.uber.org/zap"
)

// maxBodyBytes bounds the login request body.
const maxBodyBytes = 4 << 10

// Login modes selected by the "as" field.
const (
	AsAny   = ""
	AsAdmin = "admin"
	AsVoter = "voter"
)

type Handler struct {
	Users   *usersvc.Service
	Auth    *auth.Manager
	Limiter *ratelimit.LoginLimiter
	Audit   *auditlog.Logger
	Log     *zap.Logger
}

// NewHandler builds the login handler. limiter and audit may be nil.
func NewHandler(users *usersvc.Service, am *auth.Manager, limiter *ratelimit.LoginLimiter, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:   users,
		Auth:    am,
		Limiter: limiter,
		Audit:   audit,
		Log:     logger,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Request / response                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

type loginRequest struct {
	Identifier string `json:"identifier" validate:"required,max=254" label:"Email or NIM"`
	Password   string `json:"password" validate:"required,max=128" label:"Password"`
	As         string `json:"as" validate:"omitempty,oneof=admin voter" label:"Login mode"`
}

type loginUser struct {
	ID      string `json:"id"`
	NIM     string `json:"nim,omitempty"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	IsAdmin bool   `json:"is_admin"`
	Voted   bool   `json:"voted"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
	User      loginUser `json:"user"`
}

const invalidCredentials = "invalid credentials"

/*─────────────────────────────────────────────────────────────────────────────*
| Handlers                                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleLogin authenticates by email or nim and password and returns a
// bearer token.
//
// "as": "admin" looks up by email only and requires the admin flag;
// "as": "voter" looks up by nim only; empty matches either field.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperr.Write(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if res := inputval.Validate(req); res.HasErrors() {
		httperr.WriteDetails(w, http.StatusBadRequest, res.First(), res.Fields())
		return
	}

	if h.Limiter != nil {
		if ok, msg := h.Limiter.Check(r, req.Identifier); !ok {
			h.Log.Warn("login rate limited", zap.String("ip", ratelimit.ClientIP(r)))
			h.Audit.LoginFailedRateLimit(r.Context(), r, req.Identifier)
			httperr.Write(w, http.StatusTooManyRequests, msg)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.lookup(ctx, req.As, req.Identifier)
	if err != nil {
		h.Log.Error("login lookup failed", zap.Error(err))
		httperr.Write(w, http.StatusInternalServerError, "internal error")
		return
	}

	// Same answer for unknown user, no password yet, wrong password and
	// non-admin in admin mode; only the audit trail tells them apart.
	switch {
	case u == nil:
		h.Audit.LoginFailedUserNotFound(ctx, r, req.Identifier)
	case u.Password == "":
		h.Audit.LoginFailedNoPassword(ctx, r, u.ID, req.Identifier)
	case !authutil.CheckPassword(req.Password, u.Password):
		h.Audit.LoginFailedWrongPassword(ctx, r, u.ID, req.Identifier)
	case req.As == AsAdmin && !u.Admin():
		h.Audit.LoginFailedNotAdmin(ctx, r, u.ID, req.Identifier)
	default:
		h.succeed(w, r, u, req)
		return
	}
	httperr.Write(w, http.StatusUnauthorized, invalidCredentials)
}

// succeed issues the token for an authenticated user.
func (h *Handler) succeed(w http.ResponseWriter, r *http.Request, u *models.User, req loginRequest) {

	principal := auth.Principal{
		ID:    u.ID.Hex(),
		Name:  u.Name,
		Email: u.Email,
		NIM:   u.NIM,
		Admin: u.Admin(),
	}
	token, exp, err := h.Auth.Issue(principal)
	if err != nil {
		h.Log.Error("issue token failed", zap.Error(err), zap.String("user_id", principal.ID))
		httperr.Write(w, http.StatusInternalServerError, "internal error")
		return
	}

	if h.Limiter != nil {
		h.Limiter.ResetAccount(req.Identifier)
	}
	h.Audit.LoginSuccess(r.Context(), r, u.ID, req.As, req.Identifier)
	h.Log.Info("login success",
		zap.String("user_id", principal.ID),
		zap.Bool("admin", principal.Admin))

	httperr.WriteJSON(w, http.StatusOK, loginResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: exp.UTC(),
		User: loginUser{
			ID:      principal.ID,
			NIM:     u.NIM,
			Email:   u.Email,
			Name:    u.Name,
			IsAdmin: principal.Admin,
			Voted:   u.HasVoted(),
		},
	})
}

func (h *Handler) lookup(ctx context.Context, as, identifier string) (*models.User, error) {
	switch as {
	case AsAdmin:
		return h.Users.AdminLoginMethod(ctx, identifier)
	case AsVoter:
		return h.Users.NonAdminLoginMethod(ctx, identifier)
	default:
		return h.Users.Login(ctx, identifier)
	}
}

// ServeMe returns the authenticated user.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		httperr.Write(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	httperr.WriteJSON(w, http.StatusOK, loginUser{
		ID:      u.ID,
		NIM:     u.NIM,
		Email:   u.Email,
		Name:    u.Name,
		IsAdmin: u.Admin,
	})
}
