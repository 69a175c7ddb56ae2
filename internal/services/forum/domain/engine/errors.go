package engine

import (
	"errors"
	"fmt"

	apperrors "github.com/agoraledger/forum/internal/platform/errors"
	"github.com/agoraledger/forum/internal/services/forum/domain/command"
)

var (
	// ErrCommandRegistryRequired indicates a missing command registry.
	ErrCommandRegistryRequired = errors.New("command registry is required")
	// ErrEventRegistryRequired indicates a missing event registry.
	ErrEventRegistryRequired = errors.New("event registry is required")
	// ErrLedgerRequired indicates a missing ledger.
	ErrLedgerRequired = errors.New("ledger is required")
	// ErrMembershipRequired indicates a missing membership registry.
	ErrMembershipRequired = errors.New("membership registry is required")
	// ErrClockRequired indicates a missing clock.
	ErrClockRequired = errors.New("clock is required")
)

// invalidCommand maps envelope validation failures onto COMMAND_INVALID so
// transports report them as bad input.
func invalidCommand(err error) error {
	switch {
	case errors.Is(err, command.ErrActorIDRequired):
		return apperrors.Wrap(apperrors.CodeCallerUnauthenticated, "caller account is required", err)
	case errors.Is(err, command.ErrTypeRequired),
		errors.Is(err, command.ErrTypeUnknown),
		errors.Is(err, command.ErrPayloadInvalid):
		return apperrors.Wrap(apperrors.CodeCommandInvalid, fmt.Sprintf("invalid command: %v", err), err)
	default:
		return err
	}
}
