// Package main provides a CLI tool for seeding the database with initial data.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"sitestock/internal/core/id"
	"sitestock/internal/core/types"
	"sitestock/internal/infrastructure/storage/postgres"
	"sitestock/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	poolCfg := postgres.DefaultPoolConfig(dbURL)
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	if err := seedAdminUser(ctx, pool, log); err != nil {
		log.Fatalw("failed to seed admin user", "error", err)
	}

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedDemoData(ctx, pool, log); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

func seedAdminUser(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	adminLogin := os.Getenv("ADMIN_LOGIN")
	if adminLogin == "" {
		adminLogin = "admin"
	}

	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "Admin123!"
	}

	// Check if admin already exists
	var existingID id.ID
	err := pool.QueryRow(ctx,
		`SELECT id FROM users WHERE login = $1`,
		adminLogin,
	).Scan(&existingID)
	if err == nil {
		log.Infow("admin user already exists", "login", adminLogin, "user_id", existingID)
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("check admin exists: %w", err)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	userID := id.New()
	now := time.Now().UTC()

	_, err = pool.Exec(ctx, `
		INSERT INTO users (
			id, login, password_hash, full_name, role, is_active,
			failed_login_attempts, created_at, updated_at
		)
		VALUES ($1, $2, $3, 'System Admin', 'admin', true, 0, $4, $4)
	`, userID, adminLogin, string(passwordHash), now)
	if err != nil {
		return fmt.Errorf("insert admin user: %w", err)
	}

	log.Infow("admin user created", "login", adminLogin, "user_id", userID)
	return nil
}

func seedDemoData(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	now := time.Now().UTC()

	sites := []struct {
		code, name, address string
	}{
		{"SITE-2026-00001", "Central warehouse", "12 Depot street"},
		{"SITE-2026-00002", "Riverside construction site", "4 Embankment road"},
	}
	for _, s := range sites {
		_, err := pool.Exec(ctx, `
			INSERT INTO sites (id, code, name, address, is_active, note, created_at, updated_at)
			VALUES ($1, $2, $3, $4, true, '', $5, $5)
			ON CONFLICT (code) DO NOTHING
		`, id.New(), s.code, s.name, s.address, now)
		if err != nil {
			return fmt.Errorf("insert site %s: %w", s.code, err)
		}
	}

	materials := []struct {
		code, name, unit string
		minLimit         types.Quantity
	}{
		{"MAT-2026-00001", "Portland cement M500", "bag", 100 * 1000},
		{"MAT-2026-00002", "Rebar 12mm", "t", 2 * 1000},
		{"MAT-2026-00003", "Sand", "m3", 0},
	}
	for _, m := range materials {
		_, err := pool.Exec(ctx, `
			INSERT INTO materials (id, code, name, unit, min_limit, avg_cost, is_active, description, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, 0, true, '', $6, $6)
			ON CONFLICT (code) DO NOTHING
		`, id.New(), m.code, m.name, m.unit, m.minLimit, now)
		if err != nil {
			return fmt.Errorf("insert material %s: %w", m.code, err)
		}
	}

	log.Infow("demo data seeded", "sites", len(sites), "materials", len(materials))
	return nil
}
