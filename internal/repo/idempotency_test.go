package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/go-supply-backend/internal/domain"
)

func TestGetIdempotency_BlankScopeOrKey_ReturnsNotFound(t *testing.T) {
	db := newRepoDB(t)
	now := time.Now().UTC()

	if rec, err := GetIdempotency(context.Background(), db, 1, "   ", "k1", now); rec != nil || !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected (nil, ErrNotFound) for blank scope, got (%v, %v)", rec, err)
	}
	if rec, err := GetIdempotency(context.Background(), db, 1, "requests", "", now); rec != nil || !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected (nil, ErrNotFound) for blank key, got (%v, %v)", rec, err)
	}
}

func TestIdempotency_CreateGetAndDuplicate(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()

	rec, err := CreateIdempotency(ctx, db, 1, "requests", "k1", 7, 201, time.Hour)
	if err != nil {
		t.Fatalf("CreateIdempotency: %v", err)
	}
	if rec.ID == "" || rec.ResourceID != 7 || rec.Status != 201 || !rec.ExpiresAt.After(rec.CreatedAt) {
		t.Fatalf("unexpected record: %+v", rec)
	}

	got, err := GetIdempotency(ctx, db, 1, "requests", "k1", time.Now().UTC())
	if err != nil || got.ResourceID != 7 {
		t.Fatalf("GetIdempotency: got=%+v err=%v", got, err)
	}

	if _, err := CreateIdempotency(ctx, db, 1, "requests", "k1", 8, 201, time.Hour); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	// Keys are scoped per actor and per scope.
	if _, err := CreateIdempotency(ctx, db, 2, "requests", "k1", 9, 201, time.Hour); err != nil {
		t.Fatalf("other actor: %v", err)
	}
	if _, err := CreateIdempotency(ctx, db, 1, "users", "k1", 3, 201, time.Hour); err != nil {
		t.Fatalf("other scope: %v", err)
	}
	if _, err := GetIdempotency(ctx, db, 3, "requests", "k1", time.Now().UTC()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown actor should miss, got %v", err)
	}
}

func TestIdempotency_ExpiredIsInvisibleAndReplaceable(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	past := time.Now().UTC().Add(-2 * time.Hour)

	expired := &domain.Idempotency{
		ID: "expired", ActorID: 1, Scope: "requests", Key: "k1",
		ResourceID: 5, Status: 201, CreatedAt: past, ExpiresAt: past.Add(time.Hour),
	}
	if err := db.Create(expired).Error; err != nil {
		t.Fatalf("seed expired: %v", err)
	}

	if _, err := GetIdempotency(ctx, db, 1, "requests", "k1", time.Now().UTC()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired record must not be returned, got %v", err)
	}

	rec, err := CreateIdempotency(ctx, db, 1, "requests", "k1", 6, 201, time.Hour)
	if err != nil {
		t.Fatalf("reuse of expired key: %v", err)
	}
	if rec.ResourceID != 6 {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestPurgeExpiredIdempotency(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for i, exp := range []time.Time{now.Add(-time.Minute), now.Add(-time.Hour), now.Add(time.Hour)} {
		rec := &domain.Idempotency{
			ID: string(rune('a' + i)), ActorID: uint(i + 1), Scope: "requests", Key: "k",
			ResourceID: 1, Status: 201, CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: exp,
		}
		if err := db.Create(rec).Error; err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}

	n, err := PurgeExpiredIdempotency(ctx, db, now)
	if err != nil || n != 2 {
		t.Fatalf("purge: n=%d err=%v", n, err)
	}
	var left int64
	db.Model(&domain.Idempotency{}).Count(&left)
	if left != 1 {
		t.Fatalf("expected 1 live record, got %d", left)
	}
}
