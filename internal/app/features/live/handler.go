// internal/app/features/live/handler.go
package live

import (
	notificationsfeature "github.com/dalemusser/coursehub/internal/app/features/notifications"
	"github.com/dalemusser/coursehub/internal/app/system/hub"
	"go.uber.org/zap"
)

// Handler owns the realtime endpoint and its collaborators.
type Handler struct {
	Registry   *hub.Registry
	Controller *Controller
	Fanout     *notificationsfeature.Fanout
	Log        *zap.Logger
}

// NewHandler constructs a live Handler.
func NewHandler(registry *hub.Registry, controller *Controller,
	fanout *notificationsfeature.Fanout, logger *zap.Logger) *Handler {
	return &Handler{
		Registry:   registry,
		Controller: controller,
		Fanout:     fanout,
		Log:        logger,
	}
}
