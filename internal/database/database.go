package database

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// DB wraps the database connection
type DB struct {
	conn *sql.DB
}

// New creates a new database connection
func New(dsn string) (*DB, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// GetConnection returns the underlying database connection
func (db *DB) GetConnection() *sql.DB {
	return db.conn
}

// createTables creates the necessary tables
func (db *DB) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS guild_settings (
			guild_id TEXT PRIMARY KEY,
			role_id TEXT NOT NULL DEFAULT '',
			floor_vote BIGINT NOT NULL,
			floor_result BIGINT NOT NULL,
			floor_turn BIGINT NOT NULL,
			floor_extension BIGINT NOT NULL,
			floor_pause BIGINT NOT NULL,
			floor_jail BIGINT NOT NULL,
			circle_vote BIGINT NOT NULL,
			circle_result BIGINT NOT NULL,
			circle_turn BIGINT NOT NULL,
			circle_extension BIGINT NOT NULL,
			circle_pause BIGINT NOT NULL,
			circle_jail BIGINT NOT NULL
		)`,
	}

	for _, query := range queries {
		if _, err := db.conn.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}
