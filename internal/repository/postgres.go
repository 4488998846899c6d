package repository

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// OpenPostgres opens and pings a postgres connection.
func OpenPostgres(url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
