// Package sink publishes committed journal entries to downstream consumers.
// Publishing happens after commit; a failing sink never undoes a call.
package sink

import (
	"context"
	"errors"
	"log"

	"github.com/agoraledger/forum/internal/services/forum/domain/event"
)

// Sink receives events in journal order.
type Sink interface {
	Name() string
	Publish(ctx context.Context, events []event.Event) error
}

// Log writes one line per event to a standard logger.
type Log struct {
	Logger *log.Logger
}

// Name implements Sink.
func (Log) Name() string { return "log" }

// Publish implements Sink.
func (s Log) Publish(_ context.Context, events []event.Event) error {
	logger := s.Logger
	if logger == nil {
		logger = log.Default()
	}
	for _, evt := range events {
		logger.Printf("event seq=%d type=%s entity=%s/%s actor=%s block=%d",
			evt.Seq, evt.Type, evt.EntityType, evt.EntityID, evt.ActorID, evt.Block)
	}
	return nil
}

// Multi fans events out to every sink. All sinks are attempted; their errors
// are joined.
type Multi struct {
	Sinks []Sink
	// OnResult, when set, is called once per sink and publish.
	OnResult func(sink string, err error)
}

// Name implements Sink.
func (Multi) Name() string { return "multi" }

// Publish implements Sink.
func (m Multi) Publish(ctx context.Context, events []event.Event) error {
	if len(events) == 0 {
		return nil
	}
	var errs []error
	for _, s := range m.Sinks {
		err := s.Publish(ctx, events)
		if m.OnResult != nil {
			m.OnResult(s.Name(), err)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
