package services

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tbourn/go-supply-backend/internal/domain"
	"github.com/tbourn/go-supply-backend/internal/lifecycle"
)

var (
	// requestsCreated counts persisted requests.
	requestsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "supply_requests_created_total",
			Help: "Total number of material requests created.",
		},
	)

	// requestTransitions counts applied status transitions.
	requestTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supply_request_transitions_total",
			Help: "Total number of request status transitions.",
		},
		[]string{"from", "to"},
	)

	// requestRejections counts refused updates by reason.
	requestRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supply_request_rejections_total",
			Help: "Total number of rejected request updates by reason.",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(requestsCreated, requestTransitions, requestRejections)
}

// rejectionReason maps an update error to a bounded label value.
func rejectionReason(err error) string {
	var ve *domain.ValidationError
	switch {
	case errors.Is(err, lifecycle.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, lifecycle.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, lifecycle.ErrTerminalState):
		return "terminal_state"
	case errors.Is(err, lifecycle.ErrImmutableAfterDispatch):
		return "immutable_after_dispatch"
	case errors.Is(err, ErrStaleRequest):
		return "stale"
	case errors.Is(err, ErrRequestNotFound):
		return "not_found"
	case errors.As(err, &ve):
		return "validation"
	default:
		return "other"
	}
}
