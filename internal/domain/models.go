// Package domain defines the persistence models for users, material requests
// and their status history. These types are mapped with GORM and form the
// core data layer of the supply tracker.
package domain

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Role is the closed set of actor roles. A user's role is fixed at creation.
type Role string

const (
	RoleForeman  Role = "foreman"
	RoleSupplier Role = "supplier"
	RoleDriver   Role = "driver"
)

// Roles lists every valid role in declaration order.
var Roles = []Role{RoleForeman, RoleSupplier, RoleDriver}

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool {
	switch r {
	case RoleForeman, RoleSupplier, RoleDriver:
		return true
	}
	return false
}

// Status is the lifecycle state of a Request.
type Status string

const (
	StatusNew        Status = "new"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	// StatusArchived is declared but no operation transitions into it yet.
	StatusArchived Status = "archived"
)

// Valid reports whether s is one of the declared statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusInProgress, StatusCompleted, StatusArchived:
		return true
	}
	return false
}

// Terminal reports whether no further change is allowed from s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusArchived
}

// ParseRole normalizes case and surrounding space before matching a role.
func ParseRole(s string) (Role, bool) {
	r := Role(cases.Fold().String(strings.TrimSpace(s)))
	return r, r.Valid()
}

// ParseStatus normalizes case and surrounding space before matching a status.
func ParseStatus(s string) (Status, bool) {
	st := Status(cases.Fold().String(strings.TrimSpace(s)))
	return st, st.Valid()
}

// NormalizeUnit lower-cases a unit of measure ("M3" -> "m3").
func NormalizeUnit(u string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(u))
}

// User is an actor of the system: a foreman, a supplier or a driver.
//
// Fields:
//   - ID: auto-increment primary key.
//   - Username: unique login/handle, immutable after creation.
//   - Name: display name.
//   - Role: foreman|supplier|driver (enforced by DB constraint).
//   - TelegramID: optional chat id used for delivery notifications.
type User struct {
	ID         uint    `json:"id"         gorm:"primaryKey;autoIncrement"`
	Username   string  `json:"username"   gorm:"type:varchar(64);not null;uniqueIndex:ux_users_username"`
	Name       string  `json:"name"       gorm:"type:varchar(255);not null"`
	Role       Role    `json:"role"       gorm:"type:varchar(16);not null;check:role IN ('foreman','supplier','driver')"`
	TelegramID *string `json:"telegramId" gorm:"column:telegram_id;type:varchar(64)"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Request is a single material-delivery order moving through the lifecycle
// new → in_progress → completed.
//
// Fields:
//   - ID: auto-increment primary key.
//   - Location / Material / Unit: free-text description of the order.
//   - Quantity: positive amount of Unit (>= 1, enforced by DB constraint).
//   - DeliveryDate: calendar day the material is needed on site.
//   - Status: lifecycle state, "new" on creation.
//   - Comment: optional note from the foreman.
//   - CreatedByID: foreman that created the request (immutable).
//   - DriverID: driver assigned by a supplier; nil until assignment.
//   - CreatedAt: creation timestamp (immutable).
//   - UpdatedAt: bumped on every write; used for ETags, not serialized.
type Request struct {
	ID           uint      `json:"id"           gorm:"primaryKey;autoIncrement"`
	Location     string    `json:"location"     gorm:"type:text;not null"`
	Material     string    `json:"material"     gorm:"type:text;not null"`
	Quantity     int       `json:"quantity"     gorm:"not null;check:quantity >= 1"`
	Unit         string    `json:"unit"         gorm:"type:varchar(32);not null"`
	DeliveryDate Date      `json:"deliveryDate" gorm:"column:delivery_date;not null;index:idx_requests_driver_date,priority:2"`
	Status       Status    `json:"status"       gorm:"type:varchar(16);not null;default:'new';index;check:status IN ('new','in_progress','completed','archived')"`
	Comment      *string   `json:"comment"      gorm:"type:text"`
	CreatedByID  uint      `json:"createdById"  gorm:"column:created_by_id;not null;index"`
	DriverID     *uint     `json:"driverId"     gorm:"column:driver_id;index:idx_requests_driver_date,priority:1"`
	CreatedAt    time.Time `json:"createdAt"    gorm:"index"`
	UpdatedAt    time.Time `json:"-"`

	CreatedBy User  `json:"-" gorm:"foreignKey:CreatedByID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Driver    *User `json:"-" gorm:"foreignKey:DriverID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

// TableName returns the database table name for Request.
func (Request) TableName() string { return "requests" }

// RequestEvent records one status change of a request, including its
// creation (FromStatus empty). Rows are append-only.
type RequestEvent struct {
	ID         uint      `json:"id"         gorm:"primaryKey;autoIncrement"`
	RequestID  uint      `json:"requestId"  gorm:"column:request_id;not null;index:idx_request_events,priority:1"`
	ActorID    uint      `json:"actorId"    gorm:"column:actor_id;not null"`
	FromStatus Status    `json:"fromStatus" gorm:"column:from_status;type:varchar(16)"`
	ToStatus   Status    `json:"toStatus"   gorm:"column:to_status;type:varchar(16);not null"`
	DriverID   *uint     `json:"driverId"   gorm:"column:driver_id"`
	CreatedAt  time.Time `json:"createdAt"  gorm:"index:idx_request_events,priority:2"`

	Request Request `json:"-" gorm:"foreignKey:RequestID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for RequestEvent.
func (RequestEvent) TableName() string { return "request_events" }
