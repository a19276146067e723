package db

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"payflow/internal/domain/auth"
	"payflow/internal/platform/config"
)

// Seed provisions the platform super-admin account. Company admins and
// staff accounts are created through the API afterwards.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	return ensureSuperAdmin(ctx, pool, cfg.SeedSuperAdminEmail, cfg.SeedSuperAdminPassword)
}

func ensureSuperAdmin(ctx context.Context, pool *pgxpool.Pool, email, password string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return nil
	}

	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", email).Scan(&id)
	if err == nil {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	return pool.QueryRow(ctx, `
    INSERT INTO users (company_id, email, password_hash, role, full_name)
    VALUES (NULL, $1, $2, $3, 'Platform Administrator')
    RETURNING id
  `, email, hash, auth.RoleSuperAdmin).Scan(&id)
}
