package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-supply-backend/internal/domain"
)

func TestRequestsStats_CountError_NoTable(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if _, _, err := RequestsStats(context.Background(), db, RequestFilter{}); err == nil {
		t.Fatalf("expected error due to missing requests table")
	}
	if _, _, err := UsersStats(context.Background(), db); err == nil {
		t.Fatalf("expected error due to missing users table")
	}
}

func TestRequestsStats_ZeroRows(t *testing.T) {
	db := newRepoDB(t)
	count, maxAt, err := RequestsStats(context.Background(), db, RequestFilter{})
	if err != nil || count != 0 || maxAt != nil {
		t.Fatalf("expected (0, nil, nil), got (%d, %v, %v)", count, maxAt, err)
	}
}

func TestRequestsStats_FilterAndMax(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	f1 := mustUser(t, db, "f1", domain.RoleForeman)
	f2 := mustUser(t, db, "f2", domain.RoleForeman)

	t1 := time.Date(2025, 1, 2, 15, 0, 0, 0, time.UTC)
	t2 := time.Date(2025, 3, 4, 10, 30, 0, 0, time.UTC) // max for f1
	t3 := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)   // global max

	mustRequest(t, db, domain.Request{CreatedByID: f1.ID, DeliveryDate: date(t, "2025-06-01"), CreatedAt: t1, UpdatedAt: t1})
	mustRequest(t, db, domain.Request{CreatedByID: f1.ID, DeliveryDate: date(t, "2025-06-01"), CreatedAt: t1, UpdatedAt: t2})
	mustRequest(t, db, domain.Request{CreatedByID: f2.ID, DeliveryDate: date(t, "2025-06-01"), CreatedAt: t3, UpdatedAt: t3})

	count, maxAt, err := RequestsStats(ctx, db, RequestFilter{CreatedByID: &f1.ID})
	if err != nil || count != 2 || maxAt == nil || !maxAt.Equal(t2) {
		t.Fatalf("f1 stats: (%d, %v, %v)", count, maxAt, err)
	}

	count, maxAt, err = RequestsStats(ctx, db, RequestFilter{})
	if err != nil || count != 3 || maxAt == nil || !maxAt.Equal(t3) {
		t.Fatalf("global stats: (%d, %v, %v)", count, maxAt, err)
	}
}

func TestUsersStats(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	if n, maxID, err := UsersStats(ctx, db); err != nil || n != 0 || maxID != 0 {
		t.Fatalf("empty: (%d, %d, %v)", n, maxID, err)
	}
	mustUser(t, db, "a", domain.RoleDriver)
	b := mustUser(t, db, "b", domain.RoleDriver)
	if n, maxID, err := UsersStats(ctx, db); err != nil || n != 2 || maxID != b.ID {
		t.Fatalf("stats: (%d, %d, %v)", n, maxID, err)
	}
}
