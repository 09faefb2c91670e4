package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"gorm.io/gorm"

	"github.com/tbourn/go-supply-backend/internal/domain"
	"github.com/tbourn/go-supply-backend/internal/lifecycle"
	"github.com/tbourn/go-supply-backend/internal/notify"
	"github.com/tbourn/go-supply-backend/internal/repo"
)

// newServiceDB opens a migrated, file-backed SQLite database (foreign keys on).
func newServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "services.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	return db
}

// crew seeds the four demo users: 1 foreman, 2 supplier, 3 and 4 drivers.
func crew(t *testing.T, db *gorm.DB) {
	t.Helper()
	svc := NewUserService(db)
	for _, in := range []CreateUserInput{
		{Username: "foreman_ivan", Name: "Ivan", Role: "foreman", TelegramID: strp("12345")},
		{Username: "supplier_petr", Name: "Petr", Role: "supplier", TelegramID: strp("67890")},
		{Username: "driver_sanya", Name: "Sanya", Role: "driver", TelegramID: strp("11111")},
		{Username: "driver_micha", Name: "Micha", Role: "driver"},
	} {
		if _, err := svc.Create(context.Background(), in); err != nil {
			t.Fatalf("seed %s: %v", in.Username, err)
		}
	}
}

var (
	foreman  = lifecycle.Actor{ID: 1, Role: domain.RoleForeman}
	supplier = lifecycle.Actor{ID: 2, Role: domain.RoleSupplier}
	driver3  = lifecycle.Actor{ID: 3, Role: domain.RoleDriver}
	driver4  = lifecycle.Actor{ID: 4, Role: domain.RoleDriver}
)

func strp(s string) *string { return &s }
func ptr[T any](v T) *T     { return &v }

func mustDate(t *testing.T, s string) domain.Date {
	t.Helper()
	d, err := domain.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}

// recorder is a synchronous notify.Notifier that keeps every event.
type recorder struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *recorder) Notify(_ context.Context, ev notify.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) all() []notify.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Event(nil), r.events...)
}
