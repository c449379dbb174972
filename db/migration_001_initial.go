package db

import (
	"database/sql"
)

func init() {
	RegisterMigration(Migration{
		Version:     1,
		Description: "Initial schema - users, sessions, releases, jobs, settings",
		Up:          migration001_initial,
	})
}

func migration001_initial(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Users table
	_, err = tx.Exec(`
		CREATE TABLE users (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);

		CREATE INDEX idx_users_username ON users(username);
	`)
	if err != nil {
		return err
	}

	// Sessions table
	_, err = tx.Exec(`
		CREATE TABLE sessions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at INTEGER NOT NULL,
			expires_at INTEGER NOT NULL,
			last_used_at INTEGER NOT NULL
		);

		CREATE INDEX idx_sessions_user_id ON sessions(user_id);
		CREATE INDEX idx_sessions_expires_at ON sessions(expires_at);
	`)
	if err != nil {
		return err
	}

	// Releases table (user_id nullable: anonymous generations are not owned)
	_, err = tx.Exec(`
		CREATE TABLE releases (
			id TEXT PRIMARY KEY,
			user_id TEXT REFERENCES users(id) ON DELETE SET NULL,
			filename TEXT NOT NULL,
			transcript TEXT NOT NULL,
			notes TEXT NOT NULL,
			model TEXT NOT NULL,
			chunk_count INTEGER NOT NULL DEFAULT 1,
			dropped_chunks INTEGER NOT NULL DEFAULT 0,
			prompt_tokens INTEGER NOT NULL DEFAULT 0,
			completion_tokens INTEGER NOT NULL DEFAULT 0,
			total_tokens INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL
		);

		CREATE INDEX idx_releases_user_id ON releases(user_id);
		CREATE INDEX idx_releases_created_at ON releases(created_at DESC);
	`)
	if err != nil {
		return err
	}

	// Jobs table (async generation queue)
	_, err = tx.Exec(`
		CREATE TABLE jobs (
			id TEXT PRIMARY KEY,
			user_id TEXT REFERENCES users(id) ON DELETE SET NULL,
			filename TEXT NOT NULL,
			source_path TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'todo',
			error TEXT,
			attempts INTEGER NOT NULL DEFAULT 0,
			release_id TEXT REFERENCES releases(id) ON DELETE SET NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);

		CREATE INDEX idx_jobs_status ON jobs(status);
		CREATE INDEX idx_jobs_user_id ON jobs(user_id);
	`)
	if err != nil {
		return err
	}

	// Settings table
	_, err = tx.Exec(`
		CREATE TABLE settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);
	`)
	if err != nil {
		return err
	}

	return tx.Commit()
}
