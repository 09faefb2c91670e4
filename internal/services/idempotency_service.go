package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-supply-backend/internal/repo"
)

// IdempotencyService remembers which resource a keyed unsafe call produced so
// a retry with the same key can be answered with that resource.
type IdempotencyService struct {
	DB  *gorm.DB
	TTL time.Duration
}

// NewIdempotencyService constructs an IdempotencyService. A non-positive ttl
// defaults to 24h.
func NewIdempotencyService(db *gorm.DB, ttl time.Duration) *IdempotencyService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyService{DB: db, TTL: ttl}
}

// Lookup returns the resource id recorded for (actorID, scope, key), if any
// unexpired record exists.
func (s *IdempotencyService) Lookup(ctx context.Context, actorID uint, scope, key string, now time.Time) (uint, bool, error) {
	rec, err := repo.GetIdempotency(ctx, s.DB, actorID, scope, key, now)
	if errors.Is(err, repo.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return rec.ResourceID, true, nil
}

// Remember records that (actorID, scope, key) produced resourceID with status.
// A concurrent winner for the same key is not an error.
func (s *IdempotencyService) Remember(ctx context.Context, actorID uint, scope, key string, resourceID uint, status int) error {
	_, err := repo.CreateIdempotency(ctx, s.DB, actorID, scope, key, resourceID, status, s.TTL)
	if errors.Is(err, repo.ErrDuplicate) {
		return nil
	}
	return err
}

// Purge deletes expired records and returns how many were removed.
func (s *IdempotencyService) Purge(ctx context.Context, now time.Time) (int64, error) {
	return repo.PurgeExpiredIdempotency(ctx, s.DB, now)
}
