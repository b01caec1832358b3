package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nikhilbhutani/bodyshop/internal/api"
	"github.com/nikhilbhutani/bodyshop/internal/auth"
	"github.com/nikhilbhutani/bodyshop/internal/config"
	"github.com/nikhilbhutani/bodyshop/internal/database"
	"github.com/nikhilbhutani/bodyshop/internal/store"
)

func failingOpener(err error) poolOpener {
	return func(context.Context, config.DatabaseConfig) (*pgxpool.Pool, error) {
		return nil, err
	}
}

func testConfig(t *testing.T, withAdmin bool) *config.Config {
	t.Helper()
	cfg := &config.Config{
		Auth:      config.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour},
		Numbering: config.NumberingConfig{MaxAttempts: 3},
	}
	if withAdmin {
		hash, err := auth.HashPassword("garage-pass", 4)
		if err != nil {
			t.Fatal(err)
		}
		cfg.Auth.AdminEmail = "owner@shop.example"
		cfg.Auth.AdminPasswordHash = hash
	}
	return cfg
}

func TestOpenStoreUnreachableDatabaseIsFatal(t *testing.T) {
	cfg := testConfig(t, true)
	cfg.Database.URL = "postgres://db.internal:5432/shop"

	st, _, err := openStore(context.Background(), cfg, failingOpener(errors.New("ping database: connection refused")))
	if err == nil {
		t.Fatalf("openStore() = %T, want error", st)
	}
	if errors.Is(err, errNoAdminSeed) {
		t.Errorf("error = %v, want the connection failure", err)
	}
}

func TestOpenStoreWithoutDatabaseNeedsAdminSeed(t *testing.T) {
	_, _, err := openStore(context.Background(), testConfig(t, false), failingOpener(database.ErrNotConfigured))
	if !errors.Is(err, errNoAdminSeed) {
		t.Fatalf("error = %v, want errNoAdminSeed", err)
	}
}

func TestOpenStoreMemoryFallbackAllowsLogin(t *testing.T) {
	cfg := testConfig(t, true)

	st, closeStore, err := openStore(context.Background(), cfg, failingOpener(database.ErrNotConfigured))
	if err != nil {
		t.Fatalf("openStore(): %v", err)
	}
	defer closeStore()
	if _, ok := st.(*store.Memory); !ok {
		t.Fatalf("store = %T, want *store.Memory", st)
	}

	router := api.NewRouter(st, nil, nil, cfg)
	defer router.Close()
	srv := httptest.NewServer(router.Setup())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/admin/login", "application/json",
		strings.NewReader(`{"email":"Owner@Shop.example","password":"garage-pass"}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("login status = %d, want 200", resp.StatusCode)
	}
}
