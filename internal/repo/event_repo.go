package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-supply-backend/internal/domain"
)

// CreateEvent appends a status history entry.
func CreateEvent(ctx context.Context, db *gorm.DB, ev *domain.RequestEvent) error {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Omit("Request").Create(ev).Error
}

// ListEvents returns the history of a request, oldest first.
func ListEvents(ctx context.Context, db *gorm.DB, requestID uint) ([]domain.RequestEvent, error) {
	out := []domain.RequestEvent{}
	err := db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("created_at asc").
		Order("id asc").
		Find(&out).Error
	return out, err
}
