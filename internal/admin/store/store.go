package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/scripthub/internal/admin/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. The sqlite driver implements it.
// Repositories hang off the store so that a Tx exposes the same surface and
// nested transactions are impossible to start by accident.
type Store interface {
	RefreshTokens() RefreshTokens

	ApplyMigrations() error

	// Tx starts a read/write transaction. The caller MUST Commit or Rollback.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

// RefreshTokens is the ledger of issued refresh tokens.
type RefreshTokens interface {
	// CreateRefreshToken records a newly issued token. ErrAlreadyExists if
	// the jti is taken.
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error

	// GetRefreshToken returns the record for jti.
	GetRefreshToken(ctx context.Context, id string) (domain.RefreshToken, error)

	// ConsumeRefreshToken marks an active token consumed at at. Only one
	// caller can consume a given token; the rest get ErrNotFound.
	ConsumeRefreshToken(ctx context.Context, id string, at time.Time) error

	// RevokeSession revokes every token of a session and returns how many
	// records changed.
	RevokeSession(ctx context.Context, sessionID string) (int64, error)

	// DeleteExpiredRefreshTokens removes records that expired before now.
	DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error)
}
