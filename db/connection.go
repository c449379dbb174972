// Package db owns the sqlite connection, schema migrations, and the
// query layer for users, sessions, releases, jobs, and settings.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/plugnplai/relnotes/config"
	"github.com/plugnplai/relnotes/log"
)

var (
	conn     *sql.DB
	connOnce sync.Once
	closeMu  sync.Mutex
)

var logger = log.GetLogger("DB")

// GetDB returns the shared database handle, opening it and running
// migrations on first use. Initialization failures are fatal since
// nothing in the service works without the database.
func GetDB() *sql.DB {
	connOnce.Do(func() {
		db, err := open(config.Get().DatabasePath)
		if err != nil {
			logger.Fatal().Err(err).Msg("database initialization failed")
		}
		conn = db
	})
	return conn
}

func open(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// WAL mode with a busy timeout, foreign keys enforced
	dsn := path + "?_foreign_keys=1&_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_cache_size=-64000"

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	// sqlite allows only one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info().Str("path", path).Msg("database ready")
	return db, nil
}

// Close closes the database connection
func Close() error {
	closeMu.Lock()
	defer closeMu.Unlock()

	if conn == nil {
		return nil
	}
	return conn.Close()
}

// Transaction runs fn inside a transaction, rolling back on error or
// panic
func Transaction(fn func(*sql.Tx) error) error {
	tx, err := GetDB().Begin()
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
