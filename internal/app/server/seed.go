package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/openhrm/hrm/internal/domain/auth"
	"github.com/openhrm/hrm/internal/platform/config"
)

type SeedStore interface {
	EnsureRoles(ctx context.Context) (map[string]string, error)
	EnsureUser(ctx context.Context, email, passwordHash, roleID string) (string, error)
}

// Seed makes sure the built-in roles exist and, when credentials are
// configured, that the admin user does too. It is safe to run on every boot.
func Seed(ctx context.Context, store SeedStore, cfg config.Config) error {
	roleIDs, err := store.EnsureRoles(ctx)
	if err != nil {
		return fmt.Errorf("ensure roles: %w", err)
	}

	email := strings.TrimSpace(cfg.SeedAdminEmail)
	if email == "" || cfg.SeedAdminPassword == "" {
		slog.Info("admin seed skipped: no credentials configured")
		return nil
	}
	roleID, ok := roleIDs[auth.RoleAdmin]
	if !ok {
		return fmt.Errorf("admin role missing after seeding roles")
	}
	hash, err := auth.HashPassword(cfg.SeedAdminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	userID, err := store.EnsureUser(ctx, email, hash, roleID)
	if err != nil {
		return fmt.Errorf("ensure admin user: %w", err)
	}
	slog.Info("admin user ready", "userId", userID, "email", email)
	return nil
}
