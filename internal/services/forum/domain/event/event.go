// Package event defines the journal entry envelope, the registry of forum
// event types, and the hash chain that links journal entries together.
package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/agoraledger/forum/internal/services/forum/core/encoding"
)

var (
	// ErrTypeRequired indicates a missing event type.
	ErrTypeRequired = errors.New("event type is required")
	// ErrTypeUnknown indicates an unregistered event type.
	ErrTypeUnknown = errors.New("event type is not registered")
	// ErrEntityTypeMismatch indicates an event addressed to the wrong entity kind.
	ErrEntityTypeMismatch = errors.New("entity type does not match definition")
	// ErrEntityIDRequired indicates a missing entity id.
	ErrEntityIDRequired = errors.New("entity id is required")
	// ErrTimestampRequired indicates a missing wall-clock stamp.
	ErrTimestampRequired = errors.New("timestamp is required")
	// ErrPayloadInvalid indicates malformed payload JSON.
	ErrPayloadInvalid = errors.New("payload json must be valid")
)

// Type identifies the event type string.
type Type string

// Entity kinds an event can address.
const (
	EntityForum    = "forum"
	EntityCategory = "category"
	EntityThread   = "thread"
	EntityPost     = "post"
)

// Event is a journal entry. Seq and the hash fields are assigned by the
// journal on append.
type Event struct {
	Seq         uint64
	Type        Type
	EntityType  string
	EntityID    string
	ActorID     string
	RequestID   string
	Block       uint64
	Timestamp   time.Time
	PayloadJSON []byte
	Hash        string
	PrevHash    string
	ChainHash   string
}

// Definition registers metadata for an event type.
type Definition struct {
	Type            Type
	EntityType      string
	ValidatePayload func(json.RawMessage) error
}

// Registry stores event definitions and validates events before append.
type Registry struct {
	definitions map[Type]Definition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{definitions: make(map[Type]Definition)}
}

// Register adds an event definition.
func (r *Registry) Register(def Definition) error {
	if r == nil {
		return errors.New("registry is required")
	}
	def.Type = Type(strings.TrimSpace(string(def.Type)))
	if def.Type == "" {
		return ErrTypeRequired
	}
	if strings.TrimSpace(def.EntityType) == "" {
		return fmt.Errorf("entity type is required for %s", def.Type)
	}
	if r.definitions == nil {
		r.definitions = make(map[Type]Definition)
	}
	if _, exists := r.definitions[def.Type]; exists {
		return fmt.Errorf("event type already registered: %s", def.Type)
	}
	r.definitions[def.Type] = def
	return nil
}

// ValidateForAppend validates and normalizes an event before it is written
// to the journal.
func (r *Registry) ValidateForAppend(evt Event) (Event, error) {
	evt.Type = Type(strings.TrimSpace(string(evt.Type)))
	if evt.Type == "" {
		return Event{}, ErrTypeRequired
	}
	def, ok := r.Definition(evt.Type)
	if !ok {
		return Event{}, fmt.Errorf("%w: %s", ErrTypeUnknown, evt.Type)
	}
	evt.EntityType = strings.TrimSpace(evt.EntityType)
	if evt.EntityType == "" {
		evt.EntityType = def.EntityType
	}
	if evt.EntityType != def.EntityType {
		return Event{}, fmt.Errorf("%w: %s addressed to %s", ErrEntityTypeMismatch, evt.Type, evt.EntityType)
	}
	evt.EntityID = strings.TrimSpace(evt.EntityID)
	if evt.EntityID == "" {
		return Event{}, ErrEntityIDRequired
	}
	if evt.Timestamp.IsZero() {
		return Event{}, ErrTimestampRequired
	}
	evt.Timestamp = evt.Timestamp.UTC()

	if len(evt.PayloadJSON) == 0 {
		evt.PayloadJSON = []byte("{}")
	}
	if !json.Valid(evt.PayloadJSON) {
		return Event{}, ErrPayloadInvalid
	}
	canonical, err := encoding.CanonicalJSON(json.RawMessage(evt.PayloadJSON))
	if err != nil {
		return Event{}, fmt.Errorf("canonical payload json: %w", err)
	}
	evt.PayloadJSON = canonical
	if def.ValidatePayload != nil {
		if err := def.ValidatePayload(json.RawMessage(evt.PayloadJSON)); err != nil {
			return Event{}, fmt.Errorf("%w: %v", ErrPayloadInvalid, err)
		}
	}
	return evt, nil
}

// Definition returns the definition for an event type.
func (r *Registry) Definition(eventType Type) (Definition, bool) {
	if r == nil {
		return Definition{}, false
	}
	def, ok := r.definitions[Type(strings.TrimSpace(string(eventType)))]
	return def, ok
}

// ListDefinitions returns registered definitions sorted by type.
func (r *Registry) ListDefinitions() []Definition {
	if r == nil || len(r.definitions) == 0 {
		return nil
	}
	definitions := make([]Definition, 0, len(r.definitions))
	for _, definition := range r.definitions {
		definitions = append(definitions, definition)
	}
	sort.Slice(definitions, func(i, j int) bool {
		return definitions[i].Type < definitions[j].Type
	})
	return definitions
}
