// internal/app/features/notifications/routes.go
package notifications

import (
	"github.com/dalemusser/coursehub/internal/app/system/auth"
	"github.com/dalemusser/coursehub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes returns the notifications subrouter, mounted under /notifications.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	r.Get("/", h.List)
	r.Get("/unread", h.UnreadCount)

	// Publishing is for staff; students only consume.
	r.With(auth.RequireRole(models.RoleAdmin, models.RoleInstructor)).
		Post("/", h.Publish)

	return r
}
