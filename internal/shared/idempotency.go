package shared

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/primavera-events/primavera/internal/platform/db"
	"github.com/primavera-events/primavera/internal/platform/httpx"
)

// ErrIdempotencyConflict is returned when a key was already consumed.
var ErrIdempotencyConflict = fmt.Errorf("idempotent request already processed: %w", httpx.ErrDuplicate)

// IdempotencyStore records request keys in idempotency_keys, namespaced by
// module so two features can reuse the same client-supplied key.
type IdempotencyStore struct {
	db  db.DBTX
	now func() time.Time
}

// NewIdempotencyStore constructs the store.
func NewIdempotencyStore(conn db.DBTX) *IdempotencyStore {
	return &IdempotencyStore{db: conn, now: time.Now}
}

// CheckAndInsert claims key for module, failing with ErrIdempotencyConflict
// on reuse.
func (s *IdempotencyStore) CheckAndInsert(ctx context.Context, key, module string) error {
	if s == nil || s.db == nil {
		return ErrNotConfigured
	}
	switch {
	case key == "":
		return fmt.Errorf("idempotency key required: %w", httpx.ErrValidation)
	case module == "":
		return errors.New("idempotency module required")
	}
	_, err := s.db.Exec(ctx, `INSERT INTO idempotency_keys (key, module, created_at) VALUES ($1, $2, $3)`,
		module+":"+key, module, s.now())
	if db.IsUniqueViolation(err, "") {
		return ErrIdempotencyConflict
	}
	return err
}

// Cleanup deletes keys created before now minus olderThan and reports how
// many were removed.
func (s *IdempotencyStore) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	tag, err := s.db.Exec(ctx, `DELETE FROM idempotency_keys WHERE created_at < $1`, s.now().Add(-olderThan))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
