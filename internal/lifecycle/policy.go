// Package lifecycle holds the rules of the request status machine:
//
//	new ──(supplier + driverId)──▶ in_progress ──(assigned driver)──▶ completed
//
// "archived" is a declared terminal state with no transition into it.
//
// The policy is pure: it inspects the current record, the requested update,
// the acting user and (for assignments) the referenced driver, and returns
// either a validated Change or a typed rejection. Persistence belongs to the
// services layer.
package lifecycle

import (
	"strings"

	"github.com/tbourn/go-supply-backend/internal/domain"
)

// Actor is the authenticated identity performing an operation. It is passed
// explicitly into every mutating call.
type Actor struct {
	ID   uint
	Role domain.Role
}

// Update is a partial update of a request. Nil fields are left untouched.
type Update struct {
	Status       *domain.Status `json:"status,omitempty"`
	DriverID     *uint          `json:"driverId,omitempty"`
	Location     *string        `json:"location,omitempty"`
	Material     *string        `json:"material,omitempty"`
	Quantity     *int           `json:"quantity,omitempty"`
	Unit         *string        `json:"unit,omitempty"`
	DeliveryDate *domain.Date   `json:"deliveryDate,omitempty"`
	Comment      *string        `json:"comment,omitempty"`
}

// Empty reports whether u changes nothing.
func (u Update) Empty() bool {
	return u.Status == nil && u.DriverID == nil && !u.touchesDetails()
}

// touchesDetails reports whether u edits any descriptive field.
func (u Update) touchesDetails() bool {
	return u.Location != nil || u.Material != nil || u.Quantity != nil ||
		u.Unit != nil || u.DeliveryDate != nil || u.Comment != nil
}

// Change is an Update that passed the policy, normalized and ready to persist.
type Change struct {
	Update Update
	From   domain.Status
	To     domain.Status
}

// Transition reports whether the change moves the request to another status.
func (c Change) Transition() bool { return c.From != c.To }

// Empty reports whether there is nothing to persist.
func (c Change) Empty() bool { return c.Update.Empty() }

// Columns returns the column/value map for a partial UPDATE.
func (c Change) Columns() map[string]any {
	u := c.Update
	cols := make(map[string]any, 8)
	if u.Status != nil {
		cols["status"] = *u.Status
	}
	if u.DriverID != nil {
		cols["driver_id"] = *u.DriverID
	}
	if u.Location != nil {
		cols["location"] = *u.Location
	}
	if u.Material != nil {
		cols["material"] = *u.Material
	}
	if u.Quantity != nil {
		cols["quantity"] = *u.Quantity
	}
	if u.Unit != nil {
		cols["unit"] = *u.Unit
	}
	if u.DeliveryDate != nil {
		cols["delivery_date"] = *u.DeliveryDate
	}
	if u.Comment != nil {
		if *u.Comment == "" {
			cols["comment"] = nil
		} else {
			cols["comment"] = *u.Comment
		}
	}
	return cols
}

// Apply copies the change onto r.
func (c Change) Apply(r *domain.Request) {
	u := c.Update
	if u.Status != nil {
		r.Status = *u.Status
	}
	if u.DriverID != nil {
		id := *u.DriverID
		r.DriverID = &id
	}
	if u.Location != nil {
		r.Location = *u.Location
	}
	if u.Material != nil {
		r.Material = *u.Material
	}
	if u.Quantity != nil {
		r.Quantity = *u.Quantity
	}
	if u.Unit != nil {
		r.Unit = *u.Unit
	}
	if u.DeliveryDate != nil {
		r.DeliveryDate = *u.DeliveryDate
	}
	if u.Comment != nil {
		if *u.Comment == "" {
			r.Comment = nil
		} else {
			s := *u.Comment
			r.Comment = &s
		}
	}
}

// CanCreate decides whether actor may create a request owned by createdByID
// and returns the effective owner. Only foremen create requests, and only on
// their own behalf; a zero createdByID defaults to the actor.
func CanCreate(actor Actor, createdByID uint) (uint, error) {
	switch actor.Role {
	case domain.RoleForeman:
	case domain.RoleSupplier, domain.RoleDriver:
		return 0, reject(ErrUnauthorized, "only a foreman can create requests")
	default:
		return 0, domain.Invalid("role", "unknown actor role %q", actor.Role)
	}
	if createdByID == 0 {
		return actor.ID, nil
	}
	if createdByID != actor.ID {
		return 0, reject(ErrUnauthorized, "a foreman can only create requests on their own behalf")
	}
	return createdByID, nil
}

// ValidateTransition checks update against current for actor. assignee is the
// user referenced by update.DriverID (nil if absent or not found).
func ValidateTransition(current domain.Request, update Update, actor Actor, assignee *domain.User) (Change, error) {
	ch := Change{From: current.Status, To: current.Status}
	if !actor.Role.Valid() {
		return ch, domain.Invalid("role", "unknown actor role %q", actor.Role)
	}
	if update.Empty() {
		return ch, nil
	}
	if current.Status.Terminal() {
		return ch, reject(ErrTerminalState, "request %d is %s and cannot change", current.ID, current.Status)
	}

	if update.touchesDetails() {
		norm, err := checkDetails(current, update, actor)
		if err != nil {
			return ch, err
		}
		update = norm
	}

	target := current.Status
	if update.Status != nil {
		target = *update.Status
	}
	if target == current.Status {
		if update.DriverID != nil {
			return ch, reject(ErrInvalidTransition, "driverId can only be set when moving a new request to in_progress")
		}
		update.Status = nil
		ch.Update = update
		return ch, nil
	}

	if err := checkTransition(current, target, update, actor, assignee); err != nil {
		return ch, err
	}
	if target == domain.StatusCompleted {
		// The assignment is already recorded.
		update.DriverID = nil
	}
	ch.Update = update
	ch.To = target
	return ch, nil
}

// next returns the only status reachable from s, or "" when none is.
func next(s domain.Status) domain.Status {
	switch s {
	case domain.StatusNew:
		return domain.StatusInProgress
	case domain.StatusInProgress:
		return domain.StatusCompleted
	}
	return ""
}

func checkTransition(current domain.Request, target domain.Status, u Update, actor Actor, assignee *domain.User) error {
	if !target.Valid() {
		return domain.Invalid("status", "unknown status %q", target)
	}
	if target != next(current.Status) {
		return reject(ErrInvalidTransition, "cannot move request from %s to %s", current.Status, target)
	}

	switch actor.Role {
	case domain.RoleForeman:
		return reject(ErrUnauthorized, "a foreman cannot change request status")

	case domain.RoleSupplier:
		if target != domain.StatusInProgress {
			return reject(ErrUnauthorized, "only the assigned driver can complete a request")
		}
		if u.DriverID == nil {
			return reject(ErrInvalidTransition, "driverId is required to move a request to in_progress")
		}
		if assignee == nil || assignee.ID != *u.DriverID {
			return domain.Invalid("driverId", "user %d does not exist", *u.DriverID)
		}
		if assignee.Role != domain.RoleDriver {
			return domain.Invalid("driverId", "user %d is not a driver", assignee.ID)
		}
		return nil

	case domain.RoleDriver:
		if target != domain.StatusCompleted {
			return reject(ErrUnauthorized, "a driver cannot assign requests")
		}
		if current.DriverID == nil || *current.DriverID != actor.ID {
			return reject(ErrUnauthorized, "request %d is not assigned to driver %d", current.ID, actor.ID)
		}
		if u.DriverID != nil && *u.DriverID != actor.ID {
			return reject(ErrInvalidTransition, "driverId cannot change on completion")
		}
		return nil

	default:
		return domain.Invalid("role", "unknown actor role %q", actor.Role)
	}
}

// checkDetails enforces who may edit descriptive fields and when, and
// returns the update with normalized values.
func checkDetails(current domain.Request, u Update, actor Actor) (Update, error) {
	if current.Status != domain.StatusNew {
		return u, reject(ErrImmutableAfterDispatch, "request %d is %s; only new requests can be edited", current.ID, current.Status)
	}
	switch actor.Role {
	case domain.RoleForeman:
		if actor.ID != current.CreatedByID {
			return u, reject(ErrUnauthorized, "only the foreman who created request %d can edit it", current.ID)
		}
	case domain.RoleSupplier, domain.RoleDriver:
		return u, reject(ErrUnauthorized, "a %s cannot edit request details", actor.Role)
	default:
		return u, domain.Invalid("role", "unknown actor role %q", actor.Role)
	}
	return NormalizeDetails(u)
}

// NormalizeDetails trims descriptive fields and validates their constraints.
// It is shared by creation and edits so both enforce the same rules.
func NormalizeDetails(u Update) (Update, error) {
	trimmed := func(field string, p *string) (*string, error) {
		if p == nil {
			return nil, nil
		}
		s := strings.TrimSpace(*p)
		if s == "" {
			return nil, domain.Invalid(field, "%s must not be empty", field)
		}
		return &s, nil
	}
	var err error
	if u.Location, err = trimmed("location", u.Location); err != nil {
		return u, err
	}
	if u.Material, err = trimmed("material", u.Material); err != nil {
		return u, err
	}
	if u.Quantity != nil && *u.Quantity < 1 {
		return u, domain.Invalid("quantity", "quantity must be at least 1")
	}
	if u.Unit, err = trimmed("unit", u.Unit); err != nil {
		return u, err
	}
	if u.Unit != nil {
		unit := domain.NormalizeUnit(*u.Unit)
		u.Unit = &unit
	}
	if u.DeliveryDate != nil && u.DeliveryDate.IsZero() {
		return u, domain.Invalid("deliveryDate", "deliveryDate must be a date (YYYY-MM-DD)")
	}
	if u.Comment != nil {
		c := strings.TrimSpace(*u.Comment)
		u.Comment = &c
	}
	return u, nil
}
