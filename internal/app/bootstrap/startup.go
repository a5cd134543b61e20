// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	userstore "github.com/dalemusser/coursehub/internal/app/store/users"
	"github.com/dalemusser/coursehub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if appCfg.AdminLoginID != "" {
		if err := ensureAdmin(ctx, deps, appCfg.AdminLoginID, appCfg.AdminPassword, logger); err != nil {
			return fmt.Errorf("ensure bootstrap admin: %w", err)
		}
	}
	return nil
}

// ensureAdmin guarantees an admin account exists for the configured login
// id. An existing user is promoted to admin; a missing one is created with
// the configured initial password.
func ensureAdmin(ctx context.Context, deps DBDeps, loginID, password string, logger *zap.Logger) error {
	users := userstore.New(deps.CourseHubMongoDatabase)

	existing, err := users.FindByLoginID(ctx, loginID)
	if err == nil {
		if existing.Role == models.RoleAdmin {
			return nil
		}
		if err := users.SetRole(ctx, existing.ID, models.RoleAdmin); err != nil {
			return err
		}
		logger.Info("promoted existing user to admin",
			zap.String("user_id", existing.ID.Hex()),
			zap.String("login_id", loginID))
		return nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return err
	}

	if password == "" {
		return fmt.Errorf("admin_password is required to create bootstrap admin %q", loginID)
	}
	hash, err := userstore.HashPassword(password)
	if err != nil {
		return err
	}
	created, err := users.Create(ctx, models.User{
		FullName:     "Administrator",
		LoginID:      loginID,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		Status:       "active",
	})
	if err != nil {
		return err
	}

	logger.Info("created bootstrap admin",
		zap.String("user_id", created.ID.Hex()),
		zap.String("login_id", loginID))
	return nil
}
