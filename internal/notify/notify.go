// Package notify delivers request lifecycle notifications to users who
// registered a Telegram contact. Delivery is best effort: failures are logged
// and never propagate to the operation that triggered them.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/tbourn/go-supply-backend/internal/domain"
)

// Kind identifies the lifecycle moment being announced.
type Kind string

const (
	KindCreated   Kind = "created"   // a foreman submitted a new request
	KindAssigned  Kind = "assigned"  // a supplier dispatched a driver
	KindCompleted Kind = "completed" // the driver delivered
)

// Event is one notification: what happened to which request, and who should
// hear about it. Recipients without a TelegramID are skipped by senders.
type Event struct {
	Kind       Kind
	Request    domain.Request
	Actor      domain.User
	Recipients []domain.User
}

// Notifier delivers events. Implementations must be safe for concurrent use.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

// Noop discards every event.
type Noop struct{}

// Notify implements Notifier.
func (Noop) Notify(context.Context, Event) {}

// Message renders the human-readable text for ev.
func Message(ev Event) string {
	r := ev.Request
	var b strings.Builder
	switch ev.Kind {
	case KindCreated:
		fmt.Fprintf(&b, "New request #%d from %s", r.ID, ev.Actor.Name)
	case KindAssigned:
		fmt.Fprintf(&b, "Request #%d assigned to you by %s", r.ID, ev.Actor.Name)
	case KindCompleted:
		fmt.Fprintf(&b, "Request #%d delivered by %s", r.ID, ev.Actor.Name)
	default:
		fmt.Fprintf(&b, "Request #%d updated", r.ID)
	}
	fmt.Fprintf(&b, "\n%s: %d %s\nto %s on %s", r.Material, r.Quantity, r.Unit, r.Location, r.DeliveryDate)
	if r.Comment != nil && *r.Comment != "" {
		fmt.Fprintf(&b, "\n%s", *r.Comment)
	}
	return b.String()
}
