package repo

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/tbourn/go-supply-backend/internal/domain"
)

func mustUser(t *testing.T, db *gorm.DB, username string, role domain.Role) *domain.User {
	t.Helper()
	u := &domain.User{Username: username, Name: username, Role: role}
	if err := CreateUser(context.Background(), db, u); err != nil {
		t.Fatalf("CreateUser(%s): %v", username, err)
	}
	return u
}

func TestCreateUser_AssignsIDAndRejectsDuplicate(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()

	u := mustUser(t, db, "foreman_ivan", domain.RoleForeman)
	if u.ID == 0 {
		t.Fatalf("expected generated id")
	}

	err := CreateUser(ctx, db, &domain.User{Username: "foreman_ivan", Name: "Other", Role: domain.RoleDriver})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestCreateUser_RejectsUnknownRole(t *testing.T) {
	db := newRepoDB(t)
	err := CreateUser(context.Background(), db, &domain.User{Username: "x", Name: "X", Role: "admin"})
	if err == nil {
		t.Fatalf("expected CHECK violation for unknown role")
	}
}

func TestGetUser_FindUser_ByUsername(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	tg := "555"
	u := &domain.User{Username: "driver_sanya", Name: "Sanya", Role: domain.RoleDriver, TelegramID: &tg}
	if err := CreateUser(ctx, db, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	got, err := GetUser(ctx, db, u.ID)
	if err != nil || got.Username != "driver_sanya" || got.TelegramID == nil || *got.TelegramID != "555" {
		t.Fatalf("GetUser: got=%+v err=%v", got, err)
	}
	if _, err := GetUser(ctx, db, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if got, err := FindUser(ctx, db, 999); got != nil || err != nil {
		t.Fatalf("FindUser missing: got=%v err=%v", got, err)
	}
	if got, err := FindUser(ctx, db, u.ID); err != nil || got == nil || got.ID != u.ID {
		t.Fatalf("FindUser existing: got=%v err=%v", got, err)
	}

	byName, err := GetUserByUsername(ctx, db, "driver_sanya")
	if err != nil || byName.ID != u.ID {
		t.Fatalf("GetUserByUsername: got=%v err=%v", byName, err)
	}
	if _, err := GetUserByUsername(ctx, db, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListUsers_OrderAndRoleFilter(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()

	empty, err := ListUsers(ctx, db, "")
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("empty list: got=%v err=%v", empty, err)
	}

	a := mustUser(t, db, "a", domain.RoleDriver)
	b := mustUser(t, db, "b", domain.RoleSupplier)
	c := mustUser(t, db, "c", domain.RoleDriver)

	all, err := ListUsers(ctx, db, "")
	if err != nil || len(all) != 3 || all[0].ID != a.ID || all[1].ID != b.ID || all[2].ID != c.ID {
		t.Fatalf("ListUsers order: %+v err=%v", all, err)
	}
	drivers, err := ListUsers(ctx, db, domain.RoleDriver)
	if err != nil || len(drivers) != 2 || drivers[0].ID != a.ID || drivers[1].ID != c.ID {
		t.Fatalf("ListUsers role filter: %+v err=%v", drivers, err)
	}

	if n, err := CountUsers(ctx, db); err != nil || n != 3 {
		t.Fatalf("CountUsers: n=%d err=%v", n, err)
	}
}
