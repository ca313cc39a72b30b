// internal/app/features/auditlog/list.go
package auditlog

// Terminology: User Identifiers
//   - UserID / user_id: the affected user's ObjectID
//   - ActorID / actor_id: the admin who performed the action

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	httperr "github.com/dalemusser/votehub/internal/app/features/errors"
	"github.com/dalemusser/votehub/internal/app/store/audit"
	"github.com/dalemusser/votehub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const pageSize = 50

type listResponse struct {
	Events     []audit.Event `json:"events"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	TotalPages int           `json:"total_pages"`
}

// ServeList handles GET /audit.
//
// Query: category, event_type, user_id, actor_id, success (true|false),
// start_date and end_date (YYYY-MM-DD, inclusive), page (1-based).
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	filter, page, msg := parseFilter(r)
	if msg != "" {
		httperr.Write(w, http.StatusBadRequest, msg)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "audit log list")
	defer cancel()

	events, err := h.Store.Query(ctx, filter)
	if err != nil {
		h.Log.Error("failed to query audit events", zap.Error(err))
		httperr.Write(w, http.StatusInternalServerError, "internal error")
		return
	}
	total, err := h.Store.Count(ctx, filter)
	if err != nil {
		h.Log.Error("failed to count audit events", zap.Error(err))
		httperr.Write(w, http.StatusInternalServerError, "internal error")
		return
	}

	totalPages := int((total + pageSize - 1) / pageSize)
	if totalPages < 1 {
		totalPages = 1
	}
	httperr.WriteJSON(w, http.StatusOK, listResponse{
		Events:     events,
		Total:      total,
		Page:       page,
		TotalPages: totalPages,
	})
}

// parseFilter reads the list query. A non-empty msg reports a bad value.
func parseFilter(r *http.Request) (filter audit.QueryFilter, page int, msg string) {
	page = 1
	if p, err := strconv.Atoi(query.Get(r, "page")); err == nil && p > 0 {
		page = p
	}
	filter = audit.QueryFilter{
		Category:  strings.ToLower(query.Get(r, "category")),
		EventType: strings.ToLower(query.Get(r, "event_type")),
		Limit:     pageSize,
		Offset:    int64((page - 1) * pageSize),
	}

	for key, dst := range map[string]**primitive.ObjectID{"user_id": &filter.UserID, "actor_id": &filter.ActorID} {
		if v := query.Get(r, key); v != "" {
			oid, err := primitive.ObjectIDFromHex(v)
			if err != nil {
				return filter, page, key + " must be an ObjectID"
			}
			*dst = &oid
		}
	}

	if v := query.Get(r, "success"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return filter, page, "success must be true or false"
		}
		filter.Success = &b
	}

	if v := query.Get(r, "start_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return filter, page, "start_date must be YYYY-MM-DD"
		}
		filter.StartTime = &t
	}
	if v := query.Get(r, "end_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return filter, page, "end_date must be YYYY-MM-DD"
		}
		// End of day
		endOfDay := t.Add(24*time.Hour - time.Nanosecond)
		filter.EndTime = &endOfDay
	}
	return filter, page, ""
}

// ServeFailedLogins handles GET /audit/failed-logins?window=24h and returns
// rejected login attempts within the window, newest first.
func (h *Handler) ServeFailedLogins(w http.ResponseWriter, r *http.Request) {
	window := 24 * time.Hour
	if v := query.Get(r, "window"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			httperr.Write(w, http.StatusBadRequest, "window must be a positive duration such as 30m or 24h")
			return
		}
		window = d
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "failed logins")
	defer cancel()

	events, err := h.Store.GetFailedLogins(ctx, time.Now().UTC().Add(-window), audit.DefaultLimit)
	if err != nil {
		h.Log.Error("failed to query failed logins", zap.Error(err))
		httperr.Write(w, http.StatusInternalServerError, "internal error")
		return
	}
	httperr.WriteJSON(w, http.StatusOK, listResponse{Events: events, Total: int64(len(events)), Page: 1, TotalPages: 1})
}
