// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries used for
// conditional responses (ETag generation) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-supply-backend/internal/domain"
)

// RequestsStats returns the number of requests matching f and the greatest
// UpdatedAt among them. When nothing matches, count is 0 and maxUpdatedAt
// is nil.
func RequestsStats(ctx context.Context, db *gorm.DB, f RequestFilter) (count int64, maxUpdatedAt *time.Time, err error) {
	base := func() *gorm.DB {
		return f.apply(db.WithContext(ctx).Model(&domain.Request{}))
	}

	if err = base().Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = base().Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}

// UsersStats returns the number of users and the highest user id. Users are
// append-only, so the pair changes whenever the list does.
func UsersStats(ctx context.Context, db *gorm.DB) (count int64, maxID uint, err error) {
	if err = db.WithContext(ctx).Model(&domain.User{}).Count(&count).Error; err != nil {
		return 0, 0, err
	}
	if count == 0 {
		return 0, 0, nil
	}
	var row struct {
		ID uint
	}
	if err = db.WithContext(ctx).Model(&domain.User{}).Select("id").Order("id DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, 0, err
	}
	return count, row.ID, nil
}
