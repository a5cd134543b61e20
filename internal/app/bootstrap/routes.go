// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	healthfeature "github.com/dalemusser/coursehub/internal/app/features/health"
	livefeature "github.com/dalemusser/coursehub/internal/app/features/live"
	loginfeature "github.com/dalemusser/coursehub/internal/app/features/login"
	logoutfeature "github.com/dalemusser/coursehub/internal/app/features/logout"
	notificationsfeature "github.com/dalemusser/coursehub/internal/app/features/notifications"
	attendancestore "github.com/dalemusser/coursehub/internal/app/store/attendance"
	notifstore "github.com/dalemusser/coursehub/internal/app/store/notifications"
	userstore "github.com/dalemusser/coursehub/internal/app/store/users"
	"github.com/dalemusser/coursehub/internal/app/system/auth"
	"github.com/dalemusser/coursehub/internal/app/system/hub"
	"github.com/dalemusser/coursehub/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// sweeper is started in BuildHandler and stopped in Shutdown.
var sweeper *workers.AttendanceSweep

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. At this point you have access to:
//   - coreCfg: WAFFLE core configuration (ports, env, timeouts, etc.)
//   - appCfg: app-specific configuration defined in AppConfig
//   - deps: any DB or backend clients bundled in DBDeps
//   - logger: the fully configured zap.Logger for this app
//
// CourseHub builds the realtime hub here — one registry, group index,
// presence tracker, and dispatcher shared by every connection — then wires
// the live-session and notification features around it and mounts the
// feature routers.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Create the session manager using app config.
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Stores
	db := deps.CourseHubMongoDatabase
	users := userstore.New(db)
	notifications := notifstore.New(db)
	attendance := attendancestore.New(db)

	// Realtime hub
	registry := hub.NewRegistry()
	groups := hub.NewGroups()
	presence := hub.NewPresence(groups, registry)
	dispatch := hub.NewDispatcher(groups, registry, logger)

	fanout := notificationsfeature.NewFanout(groups, dispatch, notifications, logger)
	controller := livefeature.NewController(registry, groups, presence, dispatch, attendance, logger)

	// Attendance reconciliation worker; stopped in Shutdown.
	sweeper = workers.NewAttendanceSweep(attendance, presence, logger, appCfg.SweepInterval, appCfg.SweepGrace)
	sweeper.Start()

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if logged in.
	// This makes the current user available to all handlers via auth.CurrentUser(r).
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.CourseHubMongoClient, registry, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Authentication
	loginHandler := loginfeature.NewHandler(users, sessionMgr, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	// Realtime surface: the websocket endpoint plus the polling fallback
	liveHandler := livefeature.NewHandler(registry, controller, fanout, logger)
	r.Mount("/live", livefeature.Routes(liveHandler))

	// Notification publishing and consumption
	notifHandler := notificationsfeature.NewHandler(notifications, fanout, logger)
	r.Mount("/notifications", notificationsfeature.Routes(notifHandler))

	return r, nil
}
