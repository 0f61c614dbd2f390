// Package repository implements the data access layer for the moderation engine.
package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"warden/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// retryBackoff is the pause before the single retry of a transient failure.
var retryBackoff = 50 * time.Millisecond

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// PostgreSQL unique violation SQLSTATE
		return pgErr.Code == "23505"
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}

// isTransientError reports whether a DB error is worth one retry: connection
// failures, serialization conflicts, and deadlocks. Constraint violations and
// missing rows are deterministic and never retried.
func isTransientError(err error) bool {
	if err == nil || errors.Is(err, gorm.ErrRecordNotFound) || isUniqueConstraintError(err) {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 08 is connection exceptions; 40001/40P01 are
		// serialization failure and deadlock.
		return strings.HasPrefix(pgErr.Code, "08") ||
			pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "deadlock") ||
		strings.Contains(msg, "database is locked")
}

// withRetry runs op and retries it once after a short backoff when the failure
// looks transient. A failure that survives the retry is wrapped as a
// persistence error so callers can surface it as a 503 rather than a 500.
func withRetry(ctx context.Context, op func() error) error {
	err := op()
	if err == nil || !isTransientError(err) {
		return err
	}

	select {
	case <-time.After(retryBackoff):
	case <-ctx.Done():
		return models.NewPersistenceError(err)
	}

	if err = op(); err != nil {
		if isTransientError(err) {
			return models.NewPersistenceError(err)
		}
		return err
	}
	return nil
}
