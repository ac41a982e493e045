package store

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// DB is the Postgres pool holding the visitor and visit tables. Every
// registration and quiz update runs its transaction on this pool, so its
// size caps the number of concurrent check-ins.
type DB struct {
	Client *sql.DB
}

// NewDB opens the pool via pgx. maxOpen, maxIdle and connLifetime come from
// configuration; non-positive values fall back to defaults sized for a
// single kiosk deployment.
func NewDB(connString string, maxOpen, maxIdle int, connLifetime time.Duration) (*DB, error) {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, err
	}
	if maxOpen <= 0 {
		maxOpen = 10
	}
	if maxIdle <= 0 {
		maxIdle = 5
	}
	if connLifetime <= 0 {
		connLifetime = time.Hour
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(connLifetime)
	return &DB{Client: db}, db.PingContext(context.Background())
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	if d == nil || d.Client == nil {
		return nil
	}
	return d.Client.Close()
}
