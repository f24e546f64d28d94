// Package db provides PostgreSQL database access for the job tracker.
package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Sentinel errors surfaced by transactional writes so the service layer can
// map them onto its error taxonomy.
var (
	// ErrVersionMissing indicates a referenced document version does not exist.
	ErrVersionMissing = errors.New("document version not found")
	// ErrOwnershipViolation indicates a referenced version belongs to a
	// document owned by a different user.
	ErrOwnershipViolation = errors.New("document version owned by another user")
	// ErrKindMismatch indicates a version was bound to the wrong slot
	// (e.g. a cover-letter version in the resume slot).
	ErrKindMismatch = errors.New("document version has wrong kind")
	// ErrDocumentReferenced indicates a document cannot be deleted because
	// applications still reference one of its versions.
	ErrDocumentReferenced = errors.New("document is referenced by applications")
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}
