// Package services – UserService
//
// UserService registers and looks up the people who act on requests. Roles are
// closed (foreman, supplier, driver) and usernames are unique and immutable.
package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-supply-backend/internal/domain"
	"github.com/tbourn/go-supply-backend/internal/lifecycle"
	"github.com/tbourn/go-supply-backend/internal/repo"
)

const (
	maxUsernameLen = 64
	maxNameLen     = 255
)

// CreateUserInput is the payload accepted by UserService.Create.
type CreateUserInput struct {
	Username   string  `json:"username"`
	Name       string  `json:"name"`
	Role       string  `json:"role"`
	TelegramID *string `json:"telegramId,omitempty"`
}

// UserService manages users.
type UserService struct {
	DB *gorm.DB
}

// NewUserService constructs a UserService.
func NewUserService(db *gorm.DB) *UserService {
	return &UserService{DB: db}
}

// Create validates in and stores a new user.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*domain.User, error) {
	ctx, span := otel.Tracer("services/UserService").Start(ctx, "Create")
	defer span.End()

	u, err := normalizeUser(in)
	if err != nil {
		return nil, err
	}
	if err := repo.CreateUser(ctx, s.DB, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrDuplicateUsername
		}
		return nil, err
	}
	span.SetAttributes(attribute.Int("user.id", int(u.ID)), attribute.String("user.role", string(u.Role)))
	return u, nil
}

// Get returns the user with id, or ErrUserNotFound.
func (s *UserService) Get(ctx context.Context, id uint) (*domain.User, error) {
	ctx, span := otel.Tracer("services/UserService").Start(ctx, "Get",
		trace.WithAttributes(attribute.Int("user.id", int(id))))
	defer span.End()

	u, err := repo.GetUser(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// List returns every user in insertion order.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return repo.ListUsers(ctx, s.DB, "")
}

// Version returns a cheap fingerprint of the user list for ETags.
func (s *UserService) Version(ctx context.Context) (count int64, maxID uint, err error) {
	return repo.UsersStats(ctx, s.DB)
}

// Actor resolves id to the stored user; ErrUnknownActor if absent.
func (s *UserService) Actor(ctx context.Context, id uint) (*domain.User, error) {
	u, err := repo.GetUser(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUnknownActor
	}
	return u, err
}

// LookupActor adapts Actor for the authentication middleware: an unknown id
// is reported as found=false rather than an error.
func (s *UserService) LookupActor(ctx context.Context, id uint) (lifecycle.Actor, bool, error) {
	u, err := s.Actor(ctx, id)
	switch {
	case errors.Is(err, ErrUnknownActor):
		return lifecycle.Actor{}, false, nil
	case err != nil:
		return lifecycle.Actor{}, false, err
	}
	return lifecycle.Actor{ID: u.ID, Role: u.Role}, true, nil
}

var usernameRE = regexp.MustCompile(`^[A-Za-z0-9_.\-]+$`)

func normalizeUser(in CreateUserInput) (*domain.User, error) {
	username := strings.TrimSpace(in.Username)
	switch {
	case username == "":
		return nil, domain.Invalid("username", "username is required")
	case utf8.RuneCountInString(username) > maxUsernameLen:
		return nil, domain.Invalid("username", "username must be at most %d characters", maxUsernameLen)
	case !usernameRE.MatchString(username):
		return nil, domain.Invalid("username", "username may contain only letters, digits, '_', '.' and '-'")
	}

	name := whitespaceRE.ReplaceAllString(strings.TrimSpace(in.Name), " ")
	switch {
	case name == "":
		return nil, domain.Invalid("name", "name is required")
	case utf8.RuneCountInString(name) > maxNameLen:
		return nil, domain.Invalid("name", "name must be at most %d characters", maxNameLen)
	}

	role, ok := domain.ParseRole(in.Role)
	if !ok {
		return nil, domain.Invalid("role", "role must be one of foreman, supplier, driver")
	}

	u := &domain.User{Username: username, Name: name, Role: role}
	if in.TelegramID != nil {
		if tg := strings.TrimSpace(*in.TelegramID); tg != "" {
			u.TelegramID = &tg
		}
	}
	return u, nil
}

// whitespaceRE collapses consecutive whitespace to a single space.
var whitespaceRE = regexp.MustCompile(`\s+`)
