package metrics

import (
	"maps"
	"time"

	obserrors "github.com/target/storefront/internal/observability/errors"
	"github.com/target/storefront/internal/observability/statsd"
)

// Outcome constants for metric tagging.
const (
	OutcomeOK        = "ok"
	OutcomeError     = "error"
	OutcomeRepaired  = "repaired"
	OutcomeEmpty     = "empty"
	OutcomeConfirmed = "confirmed"
	OutcomeFailed    = "failed"
	OutcomeStale     = "stale"
)

// SessionEvent describes one session lifecycle step.
type SessionEvent struct {
	Transition string // restore, login, logout
	Outcome    string
	Err        error
}

// EmitSession emits a counter for a session lifecycle step.
func EmitSession(sink statsd.Sink, in SessionEvent) {
	if sink == nil {
		return
	}
	tags := map[string]string{
		"transition": in.Transition,
		"outcome":    in.Outcome,
	}
	addErrorClass(tags, in.Err)
	sink.Count("session.transition", 1, tags)
}

// EmitPersistError counts a failed write to durable session storage.
func EmitPersistError(sink statsd.Sink, op string, err error) {
	if sink == nil {
		return
	}
	tags := map[string]string{"op": op}
	addErrorClass(tags, err)
	sink.Count("session.persist_error", 1, tags)
}

// OrderView describes one resolved order confirmation view.
type OrderView struct {
	Outcome  string
	Duration time.Duration
	Err      error
}

// EmitOrderView emits the outcome and latency of an order confirmation fetch.
func EmitOrderView(sink statsd.Sink, in OrderView) {
	if sink == nil {
		return
	}
	tags := map[string]string{"outcome": in.Outcome}
	addErrorClass(tags, in.Err)
	sink.Count("order_view.resolved", 1, tags)
	if in.Duration > 0 {
		sink.Timing("order_view.duration", in.Duration, maps.Clone(tags))
	}
}

func addErrorClass(tags map[string]string, err error) {
	if err == nil {
		return
	}
	if class := obserrors.Classify(err); class != "" {
		tags["error_class"] = class
	}
}
