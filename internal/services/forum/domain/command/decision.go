package command

import (
	apperrors "github.com/agoraledger/forum/internal/platform/errors"
	"github.com/agoraledger/forum/internal/services/forum/domain/event"
)

// Decision is the outcome of deciding one command: either the events to
// append or the domain error that declined it, never both.
type Decision struct {
	Events    []event.Event
	Rejection *apperrors.Error
}

// Accept emits events.
func Accept(events ...event.Event) Decision {
	return Decision{Events: append([]event.Event(nil), events...)}
}

// Reject declines the command with err.
func Reject(err *apperrors.Error) Decision {
	return Decision{Rejection: err}
}

func (d Decision) Rejected() bool {
	return d.Rejection != nil
}
