// Package services – RequestService
//
// RequestService owns material requests: creation by foremen, role-aware
// listing, and lifecycle updates. Every mutating call receives the acting
// user explicitly; the decision itself is delegated to the lifecycle policy
// and this service only loads what the policy needs and persists the result.
//
// Updates run as a single-row read-modify-write in one transaction. The write
// is guarded by the status the policy validated against, so two concurrent
// transitions cannot both win: the loser gets ErrStaleRequest.
//
// Each create and status transition appends a RequestEvent and, after commit,
// emits a notification (suppliers on create, the driver on assignment, the
// foreman on completion).
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-supply-backend/internal/domain"
	"github.com/tbourn/go-supply-backend/internal/lifecycle"
	"github.com/tbourn/go-supply-backend/internal/notify"
	"github.com/tbourn/go-supply-backend/internal/repo"
	"github.com/tbourn/go-supply-backend/internal/utils"
)

// CreateRequestInput is the payload accepted by RequestService.Create.
// A zero CreatedByID means "the acting foreman".
type CreateRequestInput struct {
	Location     string      `json:"location"`
	Material     string      `json:"material"`
	Quantity     int         `json:"quantity"`
	Unit         string      `json:"unit"`
	DeliveryDate domain.Date `json:"deliveryDate"`
	Comment      *string     `json:"comment,omitempty"`
	CreatedByID  uint        `json:"createdById,omitempty"`
}

// RequestQuery is a parsed listing filter.
//
//   - Role=driver with UserID: requests assigned to that driver, soonest
//     delivery first.
//   - Role=foreman with UserID: requests created by that foreman, newest first.
//   - Otherwise (no role, supplier, or no UserID): all requests, newest first.
//
// Status, when set, narrows any of the above.
type RequestQuery struct {
	Role   domain.Role
	UserID *uint
	Status *domain.Status
}

// ParseRequestQuery validates raw query values. Empty strings mean "absent".
func ParseRequestQuery(role, userID, status string) (RequestQuery, error) {
	var q RequestQuery
	if strings.TrimSpace(role) != "" {
		r, ok := domain.ParseRole(role)
		if !ok {
			return q, domain.Invalid("role", "role must be one of foreman, supplier, driver")
		}
		q.Role = r
	}
	if strings.TrimSpace(userID) != "" {
		id, ok := utils.ParseID(userID)
		if !ok {
			return q, domain.Invalid("userId", "userId must be a positive integer")
		}
		q.UserID = &id
	}
	if strings.TrimSpace(status) != "" {
		st, ok := domain.ParseStatus(status)
		if !ok {
			return q, domain.Invalid("status", "status must be one of new, in_progress, completed, archived")
		}
		q.Status = &st
	}
	return q, nil
}

// Filter translates q into the repository filter.
func (q RequestQuery) Filter() repo.RequestFilter {
	f := repo.RequestFilter{Status: q.Status, Order: repo.OrderNewest}
	if q.UserID == nil {
		return f
	}
	switch q.Role {
	case domain.RoleDriver:
		f.DriverID = q.UserID
		f.Order = repo.OrderDeliveryDate
	case domain.RoleForeman:
		f.CreatedByID = q.UserID
	case domain.RoleSupplier:
		// suppliers dispatch from the full board
	}
	return f
}

// RequestService coordinates request persistence and the lifecycle policy.
type RequestService struct {
	DB       *gorm.DB
	Notifier notify.Notifier
}

// NewRequestService constructs a RequestService. A nil notifier disables
// notifications.
func NewRequestService(db *gorm.DB, n notify.Notifier) *RequestService {
	if n == nil {
		n = notify.Noop{}
	}
	return &RequestService{DB: db, Notifier: n}
}

// Create validates in on behalf of actor and stores a new request with
// status "new" and no driver.
func (s *RequestService) Create(ctx context.Context, actor lifecycle.Actor, in CreateRequestInput) (*domain.Request, error) {
	tr := otel.Tracer("services/RequestService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(
			attribute.Int("actor.id", int(actor.ID)),
			attribute.String("actor.role", string(actor.Role)),
		),
	)
	defer span.End()

	owner, err := lifecycle.CanCreate(actor, in.CreatedByID)
	if err != nil {
		return nil, err
	}
	details, err := lifecycle.NormalizeDetails(lifecycle.Update{
		Location:     &in.Location,
		Material:     &in.Material,
		Quantity:     &in.Quantity,
		Unit:         &in.Unit,
		DeliveryDate: &in.DeliveryDate,
		Comment:      in.Comment,
	})
	if err != nil {
		return nil, err
	}

	r := &domain.Request{
		Location:     *details.Location,
		Material:     *details.Material,
		Quantity:     *details.Quantity,
		Unit:         *details.Unit,
		DeliveryDate: *details.DeliveryDate,
		Status:       domain.StatusNew,
		CreatedByID:  owner,
		CreatedAt:    time.Now().UTC(),
	}
	if details.Comment != nil && *details.Comment != "" {
		r.Comment = details.Comment
	}

	var ev notify.Event
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		creator, err := repo.FindUser(ctx, tx, owner)
		if err != nil {
			return err
		}
		if creator == nil {
			return domain.Invalid("createdById", "user %d does not exist", owner)
		}
		if err := repo.CreateRequest(ctx, tx, r); err != nil {
			return err
		}
		if err := repo.CreateEvent(ctx, tx, &domain.RequestEvent{
			RequestID: r.ID,
			ActorID:   actor.ID,
			ToStatus:  domain.StatusNew,
			CreatedAt: r.CreatedAt,
		}); err != nil {
			return err
		}
		suppliers, err := repo.ListUsers(ctx, tx, domain.RoleSupplier)
		if err != nil {
			return err
		}
		ev = notify.Event{Kind: notify.KindCreated, Request: *r, Actor: *creator, Recipients: suppliers}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("request.id", int(r.ID)))
	requestsCreated.Inc()
	s.Notifier.Notify(ctx, ev)
	return r, nil
}

// Get returns the request with id, or ErrRequestNotFound.
func (s *RequestService) Get(ctx context.Context, id uint) (*domain.Request, error) {
	ctx, span := otel.Tracer("services/RequestService").Start(ctx, "Get",
		trace.WithAttributes(attribute.Int("request.id", int(id))))
	defer span.End()

	r, err := repo.GetRequest(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrRequestNotFound
	}
	return r, err
}

// List returns the requests selected by q (see RequestQuery).
func (s *RequestService) List(ctx context.Context, q RequestQuery) ([]domain.Request, error) {
	ctx, span := otel.Tracer("services/RequestService").Start(ctx, "List",
		trace.WithAttributes(attribute.String("filter.role", string(q.Role))))
	defer span.End()

	return repo.ListRequests(ctx, s.DB, q.Filter())
}

// Version returns a cheap fingerprint of the listing selected by q for ETags.
func (s *RequestService) Version(ctx context.Context, q RequestQuery) (count int64, maxUpdatedAt *time.Time, err error) {
	return repo.RequestsStats(ctx, s.DB, q.Filter())
}

// Events returns the status history of request id, oldest first.
func (s *RequestService) Events(ctx context.Context, id uint) ([]domain.RequestEvent, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return repo.ListEvents(ctx, s.DB, id)
}

// Update applies upd to request id on behalf of actor. An empty update
// returns the stored record unchanged. Policy rejections leave the record
// untouched.
func (s *RequestService) Update(ctx context.Context, actor lifecycle.Actor, id uint, upd lifecycle.Update) (*domain.Request, error) {
	tr := otel.Tracer("services/RequestService")
	ctx, span := tr.Start(ctx, "Update",
		trace.WithAttributes(
			attribute.Int("request.id", int(id)),
			attribute.Int("actor.id", int(actor.ID)),
			attribute.String("actor.role", string(actor.Role)),
		),
	)
	defer span.End()

	var (
		out    *domain.Request
		change lifecycle.Change
		ev     *notify.Event
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cur, err := repo.GetRequest(ctx, tx, id)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrRequestNotFound
		}
		if err != nil {
			return err
		}

		var assignee *domain.User
		if upd.DriverID != nil {
			if assignee, err = repo.FindUser(ctx, tx, *upd.DriverID); err != nil {
				return err
			}
		}

		change, err = lifecycle.ValidateTransition(*cur, upd, actor, assignee)
		if err != nil {
			return err
		}
		if change.Empty() {
			out = cur
			return nil
		}

		if err := repo.UpdateRequestGuarded(ctx, tx, id, cur.Status, change.Columns()); err != nil {
			if errors.Is(err, repo.ErrStale) {
				return ErrStaleRequest
			}
			return err
		}
		if out, err = repo.GetRequest(ctx, tx, id); err != nil {
			return err
		}
		if !change.Transition() {
			return nil
		}

		event := &domain.RequestEvent{
			RequestID:  id,
			ActorID:    actor.ID,
			FromStatus: change.From,
			ToStatus:   change.To,
		}
		if change.To == domain.StatusInProgress {
			event.DriverID = out.DriverID
		}
		if err := repo.CreateEvent(ctx, tx, event); err != nil {
			return err
		}
		ev, err = s.transitionEvent(ctx, tx, actor, *out, change, assignee)
		return err
	})
	if err != nil {
		requestRejections.WithLabelValues(rejectionReason(err)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if change.Transition() {
		requestTransitions.WithLabelValues(string(change.From), string(change.To)).Inc()
		span.SetAttributes(
			attribute.String("status.from", string(change.From)),
			attribute.String("status.to", string(change.To)),
		)
	}
	if ev != nil {
		s.Notifier.Notify(ctx, *ev)
	}
	return out, nil
}

// transitionEvent resolves who hears about a transition.
func (s *RequestService) transitionEvent(ctx context.Context, tx *gorm.DB, actor lifecycle.Actor, r domain.Request, ch lifecycle.Change, assignee *domain.User) (*notify.Event, error) {
	who, err := repo.FindUser(ctx, tx, actor.ID)
	if err != nil {
		return nil, err
	}
	ev := &notify.Event{Request: r}
	if who != nil {
		ev.Actor = *who
	}
	switch ch.To {
	case domain.StatusInProgress:
		ev.Kind = notify.KindAssigned
		if assignee != nil {
			ev.Recipients = []domain.User{*assignee}
		}
	case domain.StatusCompleted:
		ev.Kind = notify.KindCompleted
		foreman, err := repo.FindUser(ctx, tx, r.CreatedByID)
		if err != nil {
			return nil, err
		}
		if foreman != nil {
			ev.Recipients = []domain.User{*foreman}
		}
	default:
		return nil, nil
	}
	return ev, nil
}
