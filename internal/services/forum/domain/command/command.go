// Package command defines the command envelope, the per-type definitions
// that drive role gating, and the decision shape returned by deciders.
package command

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/agoraledger/forum/internal/services/forum/core/encoding"
)

var (
	// ErrTypeRequired indicates a missing command type.
	ErrTypeRequired = errors.New("command type is required")
	// ErrTypeUnknown indicates an unregistered command type.
	ErrTypeUnknown = errors.New("command type is not registered")
	// ErrActorIDRequired indicates a command without a verified caller.
	ErrActorIDRequired = errors.New("actor id is required")
	// ErrPayloadInvalid indicates malformed payload JSON.
	ErrPayloadInvalid = errors.New("payload json must be valid")
	// ErrRoleInvalid indicates a definition without a known role.
	ErrRoleInvalid = errors.New("role must be sudo or member")
)

// Type identifies the command type string.
type Type string

// Role is the caller role a command type requires.
type Role string

const (
	// RoleSudo requires the caller to be the current forum sudo.
	RoleSudo Role = "sudo"
	// RoleMember requires the caller to be a registered forum member.
	RoleMember Role = "member"
)

// Command captures the canonical command envelope.
type Command struct {
	Type        Type
	ActorID     string
	RequestID   string
	PayloadJSON []byte
}

// Definition registers metadata for a command type.
type Definition struct {
	Type            Type
	Role            Role
	ValidatePayload PayloadValidator
}

// PayloadValidator validates a payload JSON document.
type PayloadValidator func(json.RawMessage) error

// Registry stores command definitions and validates commands.
type Registry struct {
	definitions map[Type]Definition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{definitions: make(map[Type]Definition)}
}

// Register adds a new command type definition to the registry.
func (r *Registry) Register(def Definition) error {
	if r == nil {
		return errors.New("registry is required")
	}
	def.Type = Type(strings.TrimSpace(string(def.Type)))
	if def.Type == "" {
		return ErrTypeRequired
	}
	switch def.Role {
	case RoleSudo, RoleMember:
	default:
		return ErrRoleInvalid
	}
	if r.definitions == nil {
		r.definitions = make(map[Type]Definition)
	}
	if _, exists := r.definitions[def.Type]; exists {
		return fmt.Errorf("command type already registered: %s", def.Type)
	}
	r.definitions[def.Type] = def
	return nil
}

// ValidateForDecision validates and normalizes a command before decision
// handling. The payload is rewritten in canonical form.
func (r *Registry) ValidateForDecision(cmd Command) (Command, Definition, error) {
	cmd.Type = Type(strings.TrimSpace(string(cmd.Type)))
	if cmd.Type == "" {
		return Command{}, Definition{}, ErrTypeRequired
	}
	def, ok := r.Definition(cmd.Type)
	if !ok {
		return Command{}, Definition{}, ErrTypeUnknown
	}
	cmd.ActorID = strings.TrimSpace(cmd.ActorID)
	if cmd.ActorID == "" {
		return Command{}, Definition{}, ErrActorIDRequired
	}

	if len(cmd.PayloadJSON) == 0 {
		cmd.PayloadJSON = []byte("{}")
	}
	if !json.Valid(cmd.PayloadJSON) {
		return Command{}, Definition{}, ErrPayloadInvalid
	}
	canonical, err := encoding.CanonicalJSON(json.RawMessage(cmd.PayloadJSON))
	if err != nil {
		return Command{}, Definition{}, fmt.Errorf("canonical payload json: %w", err)
	}
	cmd.PayloadJSON = canonical
	if def.ValidatePayload != nil {
		if err := def.ValidatePayload(json.RawMessage(cmd.PayloadJSON)); err != nil {
			return Command{}, Definition{}, fmt.Errorf("%w: %v", ErrPayloadInvalid, err)
		}
	}
	return cmd, def, nil
}

// Definition returns the command definition for a given type.
func (r *Registry) Definition(cmdType Type) (Definition, bool) {
	if r == nil {
		return Definition{}, false
	}
	def, ok := r.definitions[Type(strings.TrimSpace(string(cmdType)))]
	return def, ok
}

// ListDefinitions returns a stable, sorted snapshot of registered definitions.
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
