package repo

import (
	"context"
	"errors"

	"github.com/socialnomad/nomadblog/internal/config"
	"github.com/socialnomad/nomadblog/internal/domain/user"
	"github.com/socialnomad/nomadblog/internal/security"
)

// EnsureOwner creates the configured owner account on a fresh deployment
// so backup and restore are reachable without a manual registration.
// A no-op when the account exists or seeding is not configured.
func EnsureOwner(ctx context.Context, users *UsersRepo, cfg config.Config) error {
	if cfg.OwnerUsername == "" || cfg.OwnerEmail == "" || cfg.OwnerPassword == "" {
		return nil
	}

	_, err := users.GetByEmail(ctx, cfg.OwnerEmail)

	if err == nil {
		return nil
	}

	if !errors.Is(err, user.ErrNotFound) {
		return err
	}

	hash, err := security.HashPassword(cfg.OwnerPassword)

	if err != nil {
		return err
	}

	_, err = users.Create(ctx, cfg.OwnerUsername, cfg.OwnerEmail, hash, user.RoleOwner)

	return err
}
