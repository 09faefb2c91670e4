package services

import (
	"context"
	"net/http"
	"testing"
	"time"
)

func TestIdempotencyService_RememberLookupPurge(t *testing.T) {
	db := newServiceDB(t)
	crew(t, db)
	svc := NewIdempotencyService(db, time.Hour)
	ctx := context.Background()
	now := time.Now().UTC()

	if _, found, err := svc.Lookup(ctx, 1, "POST /api/requests", "k1", now); found || err != nil {
		t.Fatalf("empty store: found=%v err=%v", found, err)
	}

	if err := svc.Remember(ctx, 1, "POST /api/requests", "k1", 7, http.StatusCreated); err != nil {
		t.Fatalf("Remember: %v", err)
	}
	// a second writer for the same key is absorbed
	if err := svc.Remember(ctx, 1, "POST /api/requests", "k1", 8, http.StatusCreated); err != nil {
		t.Fatalf("Remember duplicate: %v", err)
	}

	id, found, err := svc.Lookup(ctx, 1, "POST /api/requests", "k1", now)
	if err != nil || !found || id != 7 {
		t.Fatalf("Lookup: id=%d found=%v err=%v", id, found, err)
	}

	// keys are scoped per actor and per route
	if _, found, _ := svc.Lookup(ctx, 2, "POST /api/requests", "k1", now); found {
		t.Fatalf("other actor must not see the key")
	}
	if _, found, _ := svc.Lookup(ctx, 1, "PATCH /api/requests/:id", "k1", now); found {
		t.Fatalf("other scope must not see the key")
	}

	later := now.Add(2 * time.Hour)
	if _, found, _ := svc.Lookup(ctx, 1, "POST /api/requests", "k1", later); found {
		t.Fatalf("expired record must not be returned")
	}
	n, err := svc.Purge(ctx, later)
	if err != nil || n != 1 {
		t.Fatalf("Purge: n=%d err=%v", n, err)
	}
}

func TestNewIdempotencyService_DefaultTTL(t *testing.T) {
	if s := NewIdempotencyService(nil, 0); s.TTL != 24*time.Hour {
		t.Fatalf("TTL=%v", s.TTL)
	}
}
