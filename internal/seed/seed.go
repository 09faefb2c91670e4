// Package seed loads demo users and requests into an empty database.
//
// The data is YAML: the embedded demo.yaml by default, or a file given by
// SEED_FILE. Requests are created and dispatched through the services layer,
// so seeded rows pass the same validation and get the same status history as
// rows created over the API.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/tbourn/go-supply-backend/internal/domain"
	"github.com/tbourn/go-supply-backend/internal/lifecycle"
	"github.com/tbourn/go-supply-backend/internal/repo"
	"github.com/tbourn/go-supply-backend/internal/services"
)

//go:embed demo.yaml
var demoYAML []byte

// Data is the seed document.
type Data struct {
	Users    []User    `yaml:"users"`
	Requests []Request `yaml:"requests"`
}

// User is one seeded crew member.
type User struct {
	Username   string `yaml:"username"`
	Name       string `yaml:"name"`
	Role       string `yaml:"role"`
	TelegramID string `yaml:"telegramId,omitempty"`
}

// Request is one seeded request. Users are referenced by username.
type Request struct {
	Location       string `yaml:"location"`
	Material       string `yaml:"material"`
	Quantity       int    `yaml:"quantity"`
	Unit           string `yaml:"unit"`
	DeliveryInDays int    `yaml:"deliveryInDays"`
	Comment        string `yaml:"comment,omitempty"`
	CreatedBy      string `yaml:"createdBy"`
	// Status defaults to "new". in_progress needs Driver; completed too.
	Status string `yaml:"status,omitempty"`
	Driver string `yaml:"driver,omitempty"`
	// DispatchedBy defaults to the first supplier.
	DispatchedBy string `yaml:"dispatchedBy,omitempty"`
}

// Result reports what Apply inserted.
type Result struct {
	Users    int
	Requests int
}

// Parse decodes a seed document, rejecting unknown keys.
func Parse(b []byte) (Data, error) {
	var d Data
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		return Data{}, fmt.Errorf("parse seed: %w", err)
	}
	return d, nil
}

// Load reads the seed at path, or the embedded demo data when path is empty.
func Load(path string) (Data, error) {
	if path == "" {
		return Parse(demoYAML)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Data{}, fmt.Errorf("read seed: %w", err)
	}
	return Parse(b)
}

// Apply inserts d when the users table is empty and does nothing otherwise.
// Everything is written in one transaction; delivery dates are relative to
// today.
func Apply(ctx context.Context, db *gorm.DB, d Data, today time.Time) (Result, error) {
	n, err := repo.CountUsers(ctx, db)
	if err != nil {
		return Result{}, err
	}
	if n > 0 {
		return Result{}, nil
	}

	var res Result
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := services.NewUserService(tx)
		reqs := services.NewRequestService(tx, nil)

		byName := make(map[string]*domain.User, len(d.Users))
		var supplier *domain.User
		for _, su := range d.Users {
			in := services.CreateUserInput{Username: su.Username, Name: su.Name, Role: su.Role}
			if su.TelegramID != "" {
				tg := su.TelegramID
				in.TelegramID = &tg
			}
			u, err := users.Create(ctx, in)
			if err != nil {
				return fmt.Errorf("seed user %q: %w", su.Username, err)
			}
			byName[u.Username] = u
			if supplier == nil && u.Role == domain.RoleSupplier {
				supplier = u
			}
			res.Users++
		}

		for i, sr := range d.Requests {
			if err := seedRequest(ctx, reqs, sr, byName, supplier, today); err != nil {
				return fmt.Errorf("seed request %d: %w", i+1, err)
			}
			res.Requests++
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

func seedRequest(ctx context.Context, reqs *services.RequestService, sr Request, byName map[string]*domain.User, supplier *domain.User, today time.Time) error {
	creator, err := lookup(byName, sr.CreatedBy, "createdBy")
	if err != nil {
		return err
	}
	in := services.CreateRequestInput{
		Location:     sr.Location,
		Material:     sr.Material,
		Quantity:     sr.Quantity,
		Unit:         sr.Unit,
		DeliveryDate: domain.NewDate(today.AddDate(0, 0, sr.DeliveryInDays)),
	}
	if sr.Comment != "" {
		c := sr.Comment
		in.Comment = &c
	}
	r, err := reqs.Create(ctx, actorOf(creator), in)
	if err != nil {
		return err
	}

	status := domain.StatusNew
	if sr.Status != "" {
		var ok bool
		if status, ok = domain.ParseStatus(sr.Status); !ok {
			return fmt.Errorf("unknown status %q", sr.Status)
		}
	}
	if status == domain.StatusNew {
		return nil
	}
	if status == domain.StatusArchived {
		return errors.New("archived requests cannot be seeded")
	}

	driver, err := lookup(byName, sr.Driver, "driver")
	if err != nil {
		return err
	}
	dispatcher := supplier
	if sr.DispatchedBy != "" {
		if dispatcher, err = lookup(byName, sr.DispatchedBy, "dispatchedBy"); err != nil {
			return err
		}
	}
	if dispatcher == nil {
		return errors.New("an in_progress request needs a supplier to dispatch it")
	}
	inProgress := domain.StatusInProgress
	if _, err := reqs.Update(ctx, actorOf(dispatcher), r.ID, lifecycle.Update{Status: &inProgress, DriverID: &driver.ID}); err != nil {
		return err
	}

	if status == domain.StatusCompleted {
		completed := domain.StatusCompleted
		if _, err := reqs.Update(ctx, actorOf(driver), r.ID, lifecycle.Update{Status: &completed}); err != nil {
			return err
		}
	}
	return nil
}

func lookup(byName map[string]*domain.User, username, field string) (*domain.User, error) {
	if username == "" {
		return nil, fmt.Errorf("%s is required", field)
	}
	u, ok := byName[username]
	if !ok {
		return nil, fmt.Errorf("%s: unknown user %q", field, username)
	}
	return u, nil
}

func actorOf(u *domain.User) lifecycle.Actor {
	return lifecycle.Actor{ID: u.ID, Role: u.Role}
}
