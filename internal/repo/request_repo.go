// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Request
// model.
//
// Error semantics:
//   - A missing request yields gorm.ErrRecordNotFound (ErrNotFound).
//   - UpdateRequestGuarded yields ErrStale when the row no longer has the
//     status the caller validated against.
//   - Any other DB error is propagated unchanged.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-supply-backend/internal/domain"
)

// RequestOrder selects the sort applied by ListRequests.
type RequestOrder int

const (
	// OrderNewest sorts by creation time, newest first (ties by id desc).
	OrderNewest RequestOrder = iota
	// OrderDeliveryDate sorts by delivery date, soonest first (ties by id asc).
	OrderDeliveryDate
)

// RequestFilter narrows ListRequests and RequestsStats. Nil fields do not filter.
type RequestFilter struct {
	CreatedByID *uint
	DriverID    *uint
	Status      *domain.Status
	Order       RequestOrder
}

func (f RequestFilter) apply(q *gorm.DB) *gorm.DB {
	if f.CreatedByID != nil {
		q = q.Where("created_by_id = ?", *f.CreatedByID)
	}
	if f.DriverID != nil {
		q = q.Where("driver_id = ?", *f.DriverID)
	}
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	return q
}

func (f RequestFilter) order(q *gorm.DB) *gorm.DB {
	if f.Order == OrderDeliveryDate {
		return q.Order("delivery_date asc").Order("id asc")
	}
	return q.Order("created_at desc").Order("id desc")
}

// CreateRequest inserts r and fills its ID. Timestamps default to now (UTC)
// and Status to "new" when unset.
func CreateRequest(ctx context.Context, db *gorm.DB, r *domain.Request) error {
	now := time.Now().UTC()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = r.CreatedAt
	}
	if r.Status == "" {
		r.Status = domain.StatusNew
	}
	return db.WithContext(ctx).Omit("CreatedBy", "Driver").Create(r).Error
}

// GetRequest fetches a single request by id, or ErrNotFound.
func GetRequest(ctx context.Context, db *gorm.DB, id uint) (*domain.Request, error) {
	var r domain.Request
	if err := db.WithContext(ctx).First(&r, id).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// ListRequests returns the requests matching f in f.Order. The result is
// never nil.
func ListRequests(ctx context.Context, db *gorm.DB, f RequestFilter) ([]domain.Request, error) {
	out := []domain.Request{}
	q := f.order(f.apply(db.WithContext(ctx).Model(&domain.Request{})))
	err := q.Find(&out).Error
	return out, err
}

// UpdateRequestGuarded writes cols to request id only if its status is
// still expected. Zero affected rows means a concurrent writer got there
// first (or the row is gone) and yields ErrStale; the caller must re-read.
// updated_at is always bumped.
func UpdateRequestGuarded(ctx context.Context, db *gorm.DB, id uint, expected domain.Status, cols map[string]any) error {
	values := make(map[string]any, len(cols)+1)
	for k, v := range cols {
		values[k] = v
	}
	values["updated_at"] = time.Now().UTC()

	res := db.WithContext(ctx).
		Model(&domain.Request{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStale
	}
	return nil
}
