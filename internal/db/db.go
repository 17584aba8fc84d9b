package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"pod-service/internal/logger"
)

// Connect opens the postgres pool and applies migrations.
func Connect(dsn string, log *logger.Logger) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	log.Info("database migrations applied", "count", len(migrations))

	return db, nil
}

var migrations = []string{
	`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
	`CREATE TABLE IF NOT EXISTS pods (
            id TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
            name TEXT NOT NULL,
            subject TEXT NOT NULL DEFAULT '',
            description TEXT NOT NULL DEFAULT '',
            pace TEXT NOT NULL DEFAULT '',
            goals TEXT[] NOT NULL DEFAULT '{}',
            availability TEXT[] NOT NULL DEFAULT '{}',
            max_members INT NOT NULL DEFAULT 6,
            owner_id TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
	`CREATE TABLE IF NOT EXISTS pod_members (
            pod_id TEXT NOT NULL REFERENCES pods(id) ON DELETE CASCADE,
            user_id TEXT NOT NULL,
            joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            PRIMARY KEY(pod_id, user_id)
        );`,
	`CREATE TABLE IF NOT EXISTS pod_messages (
            id BIGSERIAL PRIMARY KEY,
            pod_id TEXT NOT NULL REFERENCES pods(id) ON DELETE CASCADE,
            author_id TEXT NOT NULL,
            content TEXT NOT NULL,
            kind TEXT NOT NULL DEFAULT 'text',
            metadata JSONB,
            created_at TIMESTAMPTZ NOT NULL DEFAULT clock_timestamp()
        );`,
	`CREATE INDEX IF NOT EXISTS pod_messages_pod_created_idx ON pod_messages (pod_id, created_at DESC, id DESC);`,
	`CREATE TABLE IF NOT EXISTS user_profiles (
            user_id TEXT PRIMARY KEY,
            subjects TEXT[] NOT NULL DEFAULT '{}',
            pace TEXT NOT NULL DEFAULT '',
            availability TEXT[] NOT NULL DEFAULT '{}',
            goals TEXT[] NOT NULL DEFAULT '{}'
        );`,
}

func runMigrations(db *sqlx.DB) error {
	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}
