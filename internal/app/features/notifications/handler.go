// internal/app/features/notifications/handler.go
package notifications

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	notifstore "github.com/dalemusser/coursehub/internal/app/store/notifications"
	"github.com/dalemusser/coursehub/internal/app/system/authz"
	"github.com/dalemusser/coursehub/internal/app/system/paging"
	"github.com/dalemusser/coursehub/internal/app/system/timeouts"
	"github.com/dalemusser/coursehub/internal/domain/models"
	"github.com/microcosm-cc/bluemonday"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler owns the notification HTTP surface: the producing side (admins
// and instructors publishing) and the consuming side (badge counts, lists).
type Handler struct {
	Store  *notifstore.Store
	Fanout *Fanout
	Log    *zap.Logger

	sanitize *bluemonday.Policy
}

// NewHandler constructs a notifications Handler.
func NewHandler(store *notifstore.Store, fanout *Fanout, logger *zap.Logger) *Handler {
	return &Handler{
		Store:    store,
		Fanout:   fanout,
		Log:      logger,
		sanitize: bluemonday.StrictPolicy(),
	}
}

// publishRequest is the JSON body for POST /notifications. Exactly one of
// user_id and role must be set.
type publishRequest struct {
	UserID    string `json:"user_id,omitempty"`
	Role      string `json:"role,omitempty"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Kind      string `json:"kind"`
	ActionURL string `json:"action_url,omitempty"`
	Priority  string `json:"priority,omitempty"`
}

// Publish handles POST /notifications. User-targeted notifications are
// persisted for unread tracking, then fanned out; role-targeted ones are
// broadcast only.
func (h *Handler) Publish(w http.ResponseWriter, r *http.Request) {
	var req publishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	req.Title = strings.TrimSpace(h.sanitize.Sanitize(req.Title))
	req.Body = strings.TrimSpace(h.sanitize.Sanitize(req.Body))
	if req.Title == "" {
		http.Error(w, "title is required", http.StatusBadRequest)
		return
	}
	if (req.UserID == "") == (req.Role == "") {
		http.Error(w, "exactly one of user_id and role must be set", http.StatusBadRequest)
		return
	}
	if req.Kind == "" {
		req.Kind = models.NotificationInfo
	}
	if req.Priority == "" {
		req.Priority = models.PriorityNormal
	}

	n := models.Notification{
		Title:     req.Title,
		Body:      req.Body,
		Kind:      req.Kind,
		ActionURL: req.ActionURL,
		Priority:  req.Priority,
	}

	if req.Role != "" {
		if !models.ValidRole(req.Role) {
			http.Error(w, "unknown role", http.StatusBadRequest)
			return
		}
		n.Role = req.Role
		h.Fanout.DeliverToRole(n, req.Role)
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(n)
		return
	}

	userOID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		http.Error(w, "invalid user_id", http.StatusBadRequest)
		return
	}
	n.UserID = &userOID

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	created, err := h.Store.Create(ctx, n)
	if err != nil {
		h.Log.Error("failed to persist notification",
			zap.String("user_id", req.UserID), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.Fanout.Deliver(r.Context(), created, req.UserID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(created)
}

// UnreadCount handles GET /notifications/unread for the signed-in user.
func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	_, _, userOID, ok := authz.UserCtx(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	count, err := h.Store.CountUnread(ctx, userOID)
	if err != nil {
		h.Log.Error("unread count query failed", zap.String("user_id", userOID.Hex()), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]int64{"count": count})
}

// listResponse is one keyset page of the notification feed. Cursors are
// opaque; clients pass prev_cursor as ?before= or next_cursor as ?after=.
type listResponse struct {
	Items      []models.Notification `json:"items"`
	PrevCursor string                `json:"prev_cursor,omitempty"`
	NextCursor string                `json:"next_cursor,omitempty"`
	HasPrev    bool                  `json:"has_prev"`
	HasNext    bool                  `json:"has_next"`
}

// List handles GET /notifications for the signed-in user: one newest-first
// keyset page of their feed.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	_, _, userOID, ok := authz.UserCtx(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	before, after := paging.ParseCursors(r)
	cfg := paging.ConfigureKeyset(before, after)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	items, err := h.Store.ListPage(ctx, userOID, cfg)
	if err != nil {
		h.Log.Error("notification list query failed", zap.String("user_id", userOID.Hex()), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	page := paging.TrimPage(&items, before, after)
	if cfg.Direction == paging.Newer {
		paging.Reverse(items)
	}
	if items == nil {
		items = []models.Notification{}
	}

	prev, next := paging.BuildCursors(items,
		func(n models.Notification) string { return n.CreatedKey },
		func(n models.Notification) primitive.ObjectID { return n.ID })

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(listResponse{
		Items:      items,
		PrevCursor: prev,
		NextCursor: next,
		HasPrev:    page.HasPrev,
		HasNext:    page.HasNext,
	})
}
