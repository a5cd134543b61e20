// internal/app/features/live/routes.go
package live

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns the live subrouter, mounted under /live.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/ws", h.ServeWS)
	r.Get("/sessions/{sessionID}/participants", h.ServeParticipantCount)
	return r
}

// ServeParticipantCount handles GET /live/sessions/{sessionID}/participants,
// the polling fallback for clients without a socket. Unknown sessions
// report zero.
func (h *Handler) ServeParticipantCount(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	count := h.Controller.ParticipantCount(sessionID)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"session_id": sessionID,
		"count":      count,
	})
}
