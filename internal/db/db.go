// internal/db/db.go
package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/textloop/textloop-backend/internal/config"
)

// Connect opens and pings the Postgres pool described by cfg.
func Connect(cfg *config.Config) (*sql.DB, error) {
	pool, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pool.SetMaxIdleConns(cfg.DBMaxIdleConns)
	pool.SetMaxOpenConns(cfg.DBMaxOpenConns)
	pool.SetConnMaxLifetime(cfg.DBConnLifetime)

	if err := pool.Ping(); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}
