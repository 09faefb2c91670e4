// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User model.
//
// All functions are context-aware and accept a *gorm.DB handle, so they can
// run inside a transaction opened by the services layer. They hold no
// business rules: role validity and username normalization belong to
// services.UserService.
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/go-supply-backend/internal/domain"
)

// CreateUser inserts u and fills its ID. A taken username yields ErrDuplicate.
func CreateUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetUser fetches a user by id, or ErrNotFound.
func GetUser(ctx context.Context, db *gorm.DB, id uint) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// FindUser is GetUser for optional references: a missing user is (nil, nil).
func FindUser(ctx context.Context, db *gorm.DB, id uint) (*domain.User, error) {
	u, err := GetUser(ctx, db, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return u, err
}

// GetUserByUsername fetches a user by its unique username, or ErrNotFound.
func GetUserByUsername(ctx context.Context, db *gorm.DB, username string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUsers returns all users ordered by id, optionally restricted to role.
func ListUsers(ctx context.Context, db *gorm.DB, role domain.Role) ([]domain.User, error) {
	q := db.WithContext(ctx).Order("id asc")
	if role != "" {
		q = q.Where("role = ?", role)
	}
	out := []domain.User{}
	err := q.Find(&out).Error
	return out, err
}

// CountUsers returns the number of stored users.
func CountUsers(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.User{}).Count(&n).Error
	return n, err
}
