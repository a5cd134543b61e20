// internal/app/features/login/handler.go

// Terminology: User Identifiers
//   - UserID / userID / user_id: The MongoDB ObjectID (_id) that uniquely identifies a user record
//   - LoginID / loginID / login_id: The human-readable string users type to log in
package login

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	userstore "github.com/dalemusser/coursehub/internal/app/store/users"
	"github.com/dalemusser/coursehub/internal/app/system/auth"
	"github.com/dalemusser/coursehub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Users      *userstore.Store
	SessionMgr *auth.SessionManager
	Log        *zap.Logger
}

func NewHandler(users *userstore.Store, sessionMgr *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{
		Users:      users,
		SessionMgr: sessionMgr,
		Log:        logger,
	}
}

type loginRequest struct {
	LoginID  string `json:"login_id"`
	Password string `json:"password"`
}

type loginResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	LoginID string `json:"login_id"`
	Role    string `json:"role"`
}

// ServeLogin handles POST /login. A successful login writes the session
// cookie the realtime socket authenticates with. Bad credentials and
// unknown accounts return the same 401 so login ids cannot be probed.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	req.LoginID = strings.ToLower(strings.TrimSpace(req.LoginID))
	if req.LoginID == "" || req.Password == "" {
		http.Error(w, "login_id and password are required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, err := h.Users.FindByLoginID(ctx, req.LoginID)
	if err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			h.Log.Error("login lookup failed", zap.String("login_id", req.LoginID), zap.Error(err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		http.Error(w, "invalid login", http.StatusUnauthorized)
		return
	}

	if !userstore.CheckPassword(user.PasswordHash, req.Password) {
		http.Error(w, "invalid login", http.StatusUnauthorized)
		return
	}
	if user.Status == "disabled" {
		http.Error(w, "account disabled", http.StatusForbidden)
		return
	}

	sessionUser := auth.SessionUser{
		ID:      user.ID.Hex(),
		Name:    user.FullName,
		LoginID: user.LoginID,
		Role:    user.Role,
	}
	if err := h.SessionMgr.SignIn(w, r, sessionUser); err != nil {
		h.Log.Error("session write failed", zap.String("login_id", req.LoginID), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.Log.Info("user signed in",
		zap.String("user_id", sessionUser.ID),
		zap.String("role", sessionUser.Role))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(loginResponse{
		ID:      sessionUser.ID,
		Name:    sessionUser.Name,
		LoginID: sessionUser.LoginID,
		Role:    sessionUser.Role,
	})
}
