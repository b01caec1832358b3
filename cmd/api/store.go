package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nikhilbhutani/bodyshop/internal/config"
	"github.com/nikhilbhutani/bodyshop/internal/database"
	"github.com/nikhilbhutani/bodyshop/internal/models"
	"github.com/nikhilbhutani/bodyshop/internal/store"
)

var errNoAdminSeed = errors.New("in-memory store needs ADMIN_EMAIL and ADMIN_PASSWORD_HASH")

type poolOpener func(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error)

// openStore connects to Postgres and applies migrations. Only an unset
// DATABASE_URL selects the in-memory store; a configured database that cannot
// be reached is an error. The returned func releases the pool.
func openStore(ctx context.Context, cfg *config.Config, open poolOpener) (store.Store, func(), error) {
	db, err := open(ctx, cfg.Database)
	if errors.Is(err, database.ErrNotConfigured) {
		return memoryStore(cfg.Auth)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}

	if err := database.RunMigrations(ctx, db, database.MigrationSource(cfg.Database.MigrationsPath)); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	return store.NewPostgres(db), db.Close, nil
}

func memoryStore(auth config.AuthConfig) (store.Store, func(), error) {
	if auth.AdminEmail == "" || auth.AdminPasswordHash == "" {
		return nil, nil, errNoAdminSeed
	}
	mem := store.NewMemory()
	mem.AddAdmin(models.Admin{Email: auth.AdminEmail, PasswordHash: auth.AdminPasswordHash, Name: "Admin"})
	slog.Warn("DATABASE_URL not set, running with in-memory store; data is lost on restart",
		"admin_email", auth.AdminEmail)
	return mem, func() {}, nil
}
