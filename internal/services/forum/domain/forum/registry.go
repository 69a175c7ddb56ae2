package forum

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/agoraledger/forum/internal/services/forum/domain/command"
	"github.com/agoraledger/forum/internal/services/forum/domain/event"
)

// strictPayload validates that raw decodes into T without unknown fields.
func strictPayload[T any]() func(json.RawMessage) error {
	return func(raw json.RawMessage) error {
		var payload T
		return decodeStrict(raw, &payload)
	}
}

func decodeStrict(raw []byte, target any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("trailing data after payload")
	}
	return nil
}

// CommandDefinitions lists the forum command types and the role each needs.
func CommandDefinitions() []command.Definition {
	return []command.Definition{
		{Type: command.TypeSetForumSudo, Role: command.RoleSudo, ValidatePayload: strictPayload[SetForumSudoPayload]()},
		{Type: command.TypeCreateCategory, Role: command.RoleSudo, ValidatePayload: strictPayload[CreateCategoryPayload]()},
		{Type: command.TypeUpdateCategory, Role: command.RoleSudo, ValidatePayload: strictPayload[UpdateCategoryPayload]()},
		{Type: command.TypeCreateThread, Role: command.RoleMember, ValidatePayload: strictPayload[CreateThreadPayload]()},
		{Type: command.TypeModerateThread, Role: command.RoleSudo, ValidatePayload: strictPayload[ModerateThreadPayload]()},
		{Type: command.TypeAddPost, Role: command.RoleMember, ValidatePayload: strictPayload[AddPostPayload]()},
		{Type: command.TypeEditPostText, Role: command.RoleMember, ValidatePayload: strictPayload[EditPostTextPayload]()},
		{Type: command.TypeModeratePost, Role: command.RoleSudo, ValidatePayload: strictPayload[ModeratePostPayload]()},
	}
}

// EventDefinitions lists the forum event types and the entity each addresses.
func EventDefinitions() []event.Definition {
	return []event.Definition{
		{Type: event.TypeForumSudoSet, EntityType: event.EntityForum, ValidatePayload: strictPayload[ForumSudoSetPayload]()},
		{Type: event.TypeCategoryCreated, EntityType: event.EntityCategory, ValidatePayload: strictPayload[CategoryCreatedPayload]()},
		{Type: event.TypeCategoryUpdated, EntityType: event.EntityCategory, ValidatePayload: strictPayload[CategoryUpdatedPayload]()},
		{Type: event.TypeThreadCreated, EntityType: event.EntityThread, ValidatePayload: strictPayload[ThreadCreatedPayload]()},
		{Type: event.TypeThreadModerated, EntityType: event.EntityThread, ValidatePayload: strictPayload[ThreadModeratedPayload]()},
		{Type: event.TypePostAdded, EntityType: event.EntityPost, ValidatePayload: strictPayload[PostAddedPayload]()},
		{Type: event.TypePostTextUpdated, EntityType: event.EntityPost, ValidatePayload: strictPayload[PostTextUpdatedPayload]()},
		{Type: event.TypePostModerated, EntityType: event.EntityPost, ValidatePayload: strictPayload[PostModeratedPayload]()},
	}
}

// NewCommandRegistry returns a registry holding every forum command type.
func NewCommandRegistry() (*command.Registry, error) {
	registry := command.NewRegistry()
	for _, def := range CommandDefinitions() {
		if err := registry.Register(def); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// NewEventRegistry returns a registry holding every forum event type.
func NewEventRegistry() (*event.Registry, error) {
	registry := event.NewRegistry()
	for _, def := range EventDefinitions() {
		if err := registry.Register(def); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
