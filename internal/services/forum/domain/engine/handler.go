package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/agoraledger/forum/internal/platform/errors"
	"github.com/agoraledger/forum/internal/platform/id"
	"github.com/agoraledger/forum/internal/services/forum/domain/command"
	"github.com/agoraledger/forum/internal/services/forum/domain/event"
	"github.com/agoraledger/forum/internal/services/forum/domain/forum"
	"github.com/agoraledger/forum/internal/services/forum/domain/stamp"
	"github.com/agoraledger/forum/internal/services/forum/membership"
	"github.com/agoraledger/forum/internal/services/forum/storage"
)

const tracerName = "github.com/agoraledger/forum/internal/services/forum/domain/engine"

// Command outcomes reported to the Observer.
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// EventSink receives committed events.
type EventSink interface {
	Publish(ctx context.Context, events []event.Event) error
}

// Observer is notified once per handled command.
type Observer interface {
	ObserveCommand(command, outcome string, elapsed time.Duration)
}

// Handler executes commands against a ledger.
type Handler struct {
	Commands *command.Registry
	Events   *event.Registry
	Ledger   storage.Ledger
	Members  membership.Registry
	Clock    stamp.Clock
	// Sink is optional. Publish failures are logged and never undo a call.
	Sink EventSink
	// Observer is optional.
	Observer Observer

	mu sync.Mutex
}

// Result captures a committed call.
type Result struct {
	Decision command.Decision
	// Head is the journal position after the call.
	Head storage.Head
}

func (h *Handler) check() error {
	switch {
	case h.Commands == nil:
		return ErrCommandRegistryRequired
	case h.Events == nil:
		return ErrEventRegistryRequired
	case h.Ledger == nil:
		return ErrLedgerRequired
	case h.Members == nil:
		return ErrMembershipRequired
	case h.Clock == nil:
		return ErrClockRequired
	}
	return nil
}

// Execute runs cmd. A rejected command returns its decision together with
// the rejection as an *apperrors.Error; nothing is written in that case.
// Any other error means the call was aborted with no effect.
func (h *Handler) Execute(ctx context.Context, cmd command.Command) (Result, error) {
	if err := h.check(); err != nil {
		return Result{}, err
	}
	started := time.Now()

	ctx, span := otel.Tracer(tracerName).Start(ctx, "forum.command",
		trace.WithAttributes(attribute.String("forum.command.type", string(cmd.Type))))
	defer span.End()

	result, err := h.execute(ctx, cmd)

	outcome := OutcomeAccepted
	switch {
	case err == nil:
	case result.Decision.Rejected():
		outcome = OutcomeRejected
		span.SetAttributes(attribute.String("forum.rejection.code", string(result.Decision.Rejection.Code)))
	default:
		outcome = OutcomeFailed
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(attribute.String("forum.command.outcome", outcome))
	if h.Observer != nil {
		h.Observer.ObserveCommand(string(cmd.Type), outcome, time.Since(started))
	}
	return result, err
}

func (h *Handler) execute(ctx context.Context, cmd command.Command) (Result, error) {
	cmd, def, err := h.Commands.ValidateForDecision(cmd)
	if err != nil {
		return Result{}, invalidCommand(err)
	}
	if cmd.RequestID == "" {
		if cmd.RequestID, err = id.NewID(); err != nil {
			return Result{}, err
		}
	}

	caller, err := h.resolveCaller(ctx, cmd, def.Role)
	if err != nil {
		return Result{}, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	at := h.Clock.Now()
	var result Result
	err = h.Ledger.Update(ctx, func(tx storage.Tx) error {
		decision, err := forum.Decide(tx, caller, cmd, def.Role, at)
		if err != nil {
			return err
		}
		if decision.Rejected() {
			result.Decision = decision
			return nil
		}
		committed := make([]event.Event, 0, len(decision.Events))
		for _, evt := range decision.Events {
			vetted, err := h.Events.ValidateForAppend(evt)
			if err != nil {
				return fmt.Errorf("validate %s: %w", evt.Type, err)
			}
			appended, err := tx.AppendEvent(vetted)
			if err != nil {
				return err
			}
			if err := forum.Apply(tx, appended); err != nil {
				return err
			}
			committed = append(committed, appended)
		}
		decision.Events = committed
		result.Decision = decision
		result.Head, err = tx.Head()
		return err
	})
	if err != nil {
		return Result{}, err
	}
	if result.Decision.Rejected() {
		return result, result.Decision.Rejection
	}

	h.publish(ctx, result.Decision.Events)
	return result, nil
}

// resolveCaller looks up membership for commands that require it.
func (h *Handler) resolveCaller(ctx context.Context, cmd command.Command, role command.Role) (forum.Caller, error) {
	caller := forum.Caller{Account: forum.AccountID(cmd.ActorID)}
	if role != command.RoleMember {
		return caller, nil
	}
	_, member, err := h.Members.GetForumUser(ctx, caller.Account)
	if err != nil {
		return forum.Caller{}, fmt.Errorf("resolve membership: %w", err)
	}
	caller.Member = member
	return caller, nil
}

func (h *Handler) publish(ctx context.Context, events []event.Event) {
	if h.Sink == nil || len(events) == 0 {
		return
	}
	if err := h.Sink.Publish(context.WithoutCancel(ctx), events); err != nil {
		log.Printf("publish events seq=%d..%d: %v", events[0].Seq, events[len(events)-1].Seq, err)
	}
}

// IsRejection reports whether err is a domain rejection rather than a
// failure.
func IsRejection(err error) bool {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		return false
	}
	switch appErr.Code {
	case apperrors.CodeCommandInvalid, apperrors.CodeCallerUnauthenticated,
		apperrors.CodeForumStateCorrupt, apperrors.CodeUnknown, apperrors.CodeNotFound:
		return false
	}
	return true
}
