// internal/app/features/users/handler.go
package users

import (
	"errors"
	"net/http"

	httperr "github.com/dalemusser/votehub/internal/app/features/errors"
	usersvc "github.com/dalemusser/votehub/internal/app/service/users"
	userstore "github.com/dalemusser/votehub/internal/app/store/users"
	"github.com/dalemusser/votehub/internal/app/system/auditlog"
	"github.com/dalemusser/votehub/internal/app/system/authutil"
	"github.com/dalemusser/votehub/internal/app/system/csvutil"
	"github.com/dalemusser/votehub/internal/app/system/listfilter"
	"go.uber.org/zap"
)

// Handler serves the admin JSON API over the user service.
type Handler struct {
	Users *usersvc.Service
	Audit *auditlog.Logger
	Log   *zap.Logger
}

// NewHandler constructs a users feature handler. audit may be nil.
func NewHandler(svc *usersvc.Service, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Users: svc,
		Audit: audit,
		Log:   logger,
	}
}

// writeError maps service, store and parser errors to HTTP responses.
// Anything unrecognized is logged and reported as 500.
func (h *Handler) writeError(w http.ResponseWriter, op string, err error) {
	var (
		dupErr   *usersvc.DuplicateError
		parseErr *csvutil.ParseError
	)
	switch {
	case errors.As(err, &dupErr):
		httperr.WriteDetails(w, http.StatusBadRequest, dupErr.Error(), rowDetails(dupErr.Conflicts))
	case errors.Is(err, usersvc.ErrDuplicateValue):
		httperr.Write(w, http.StatusBadRequest, usersvc.ErrDuplicateValue.Error())
	case errors.Is(err, usersvc.ErrSendCredentials):
		h.Log.Warn(op+" failed", zap.Error(err))
		httperr.Write(w, http.StatusBadRequest, usersvc.ErrSendCredentials.Error())
	case errors.Is(err, userstore.ErrDuplicateNIMOrEmail):
		httperr.Write(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &parseErr):
		httperr.WriteDetails(w, http.StatusBadRequest, "csv file could not be parsed", rowDetails(parseErr.Errors))
	case errors.Is(err, csvutil.ErrTooManyRows), errors.Is(err, csvutil.ErrNoHeader),
		errors.Is(err, listfilter.ErrBadValue), errors.Is(err, authutil.ErrEmptyPassword):
		httperr.Write(w, http.StatusBadRequest, err.Error())
	default:
		h.Log.Error(op+" failed", zap.Error(err))
		httperr.Write(w, http.StatusInternalServerError, "internal error")
	}
}

type rowDetail struct {
	Line   int    `json:"line,omitempty"`
	Reason string `json:"reason"`
}

func rowDetails(rows []csvutil.RowError) []rowDetail {
	out := make([]rowDetail, len(rows))
	for i, r := range rows {
		out[i] = rowDetail{Line: r.Line, Reason: r.Reason}
	}
	return out
}

func notFound(w http.ResponseWriter) {
	httperr.Write(w, http.StatusNotFound, "user not found")
}
