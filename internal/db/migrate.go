package db

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// migrationLockID is the advisory lock held while migrations run.
const migrationLockID = 7462839

// Migrate applies every NNN_description.sql file in fsys that has not been applied yet,
// each in its own transaction, and returns the applied filenames. A file whose checksum
// differs from the recorded one is an error.
func Migrate(ctx context.Context, pool *pgxpool.Pool, fsys fs.FS) ([]string, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection for lock: %w", err)
	}
	defer conn.Release()

	var locked bool
	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", migrationLockID).Scan(&locked); err != nil {
		return nil, fmt.Errorf("failed to query advisory lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("another migrator is currently running")
	}
	defer conn.Exec(context.Background(), "SELECT pg_advisory_unlock($1)", migrationLockID)

	_, err = conn.Exec(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	checksum TEXT NOT NULL,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`)
	if err != nil {
		return nil, fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	filenames, err := discoverMigrations(fsys)
	if err != nil {
		return nil, err
	}

	var applied []string
	for _, filename := range filenames {
		ok, err := applyMigration(ctx, conn.Conn(), fsys, filename)
		if err != nil {
			return applied, err
		}
		if ok {
			applied = append(applied, filename)
		}
	}
	return applied, nil
}

func discoverMigrations(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	var filenames []string
	versions := make(map[string]bool)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		version, err := extractVersion(entry.Name())
		if err != nil {
			return nil, err
		}
		if versions[version] {
			return nil, fmt.Errorf("duplicate migration version %s", version)
		}
		versions[version] = true
		filenames = append(filenames, entry.Name())
	}

	sort.Strings(filenames)
	return filenames, nil
}

func extractVersion(filename string) (string, error) {
	parts := strings.SplitN(filename, "_", 2)
	if len(parts) < 2 {
		return "", fmt.Errorf("invalid migration filename %s, expected NNN_description.sql", filename)
	}
	return parts[0], nil
}

func applyMigration(ctx context.Context, conn *pgx.Conn, fsys fs.FS, filename string) (bool, error) {
	version, err := extractVersion(filename)
	if err != nil {
		return false, err
	}
	sqlBytes, err := fs.ReadFile(fsys, filename)
	if err != nil {
		return false, fmt.Errorf("failed to read migration %s: %w", filename, err)
	}
	hash := sha256.Sum256(sqlBytes)
	checksum := hex.EncodeToString(hash[:])

	var existing string
	err = conn.QueryRow(ctx, "SELECT checksum FROM schema_migrations WHERE version = $1", version).Scan(&existing)
	switch {
	case err == nil:
		if existing != checksum {
			return false, fmt.Errorf("checksum mismatch for %s: recorded %s, file %s", filename, existing, checksum)
		}
		log.Printf("[SKIP] %s", filename)
		return false, nil
	case errors.Is(err, pgx.ErrNoRows):
	default:
		return false, fmt.Errorf("failed to query schema_migrations for %s: %w", filename, err)
	}

	tx, err := conn.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction for %s: %w", filename, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, string(sqlBytes)); err != nil {
		return false, fmt.Errorf("failed to execute migration %s: %w", filename, err)
	}
	if _, err := tx.Exec(ctx, "INSERT INTO schema_migrations (version, filename, checksum) VALUES ($1, $2, $3)", version, filename, checksum); err != nil {
		return false, fmt.Errorf("failed to record migration %s: %w", filename, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit migration %s: %w", filename, err)
	}

	log.Printf("[APPLY] %s", filename)
	return true, nil
}
