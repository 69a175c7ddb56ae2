package command

import (
	"encoding/json"
	"errors"
	"testing"

	apperrors "github.com/agoraledger/forum/internal/platform/errors"
)

func TestRegistryRegisterRejectsInvalidDefinitions(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(Definition{Type: " ", Role: RoleSudo}); !errors.Is(err, ErrTypeRequired) {
		t.Fatalf("expected ErrTypeRequired, got %v", err)
	}
	if err := registry.Register(Definition{Type: "category.create"}); !errors.Is(err, ErrRoleInvalid) {
		t.Fatalf("expected ErrRoleInvalid, got %v", err)
	}
	if err := registry.Register(Definition{Type: "category.create", Role: RoleSudo}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := registry.Register(Definition{Type: "category.create", Role: RoleSudo}); err == nil {
		t.Fatal("expected duplicate registration error")
	}
}

func TestRegistryValidateForDecisionCanonicalizesPayload(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(Definition{Type: TypeAddPost, Role: RoleMember}); err != nil {
		t.Fatalf("register: %v", err)
	}

	cmd, def, err := registry.ValidateForDecision(Command{
		Type:        " post.add ",
		ActorID:     " alice ",
		PayloadJSON: []byte(`{ "text": "hi", "thread_id": 1 }`),
	})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if def.Role != RoleMember {
		t.Fatalf("role = %q, want member", def.Role)
	}
	if cmd.Type != TypeAddPost || cmd.ActorID != "alice" {
		t.Fatalf("command not normalized: %+v", cmd)
	}
	if string(cmd.PayloadJSON) != `{"text":"hi","thread_id":1}` {
		t.Fatalf("payload = %s", cmd.PayloadJSON)
	}
}

func TestRegistryValidateForDecisionErrors(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(Definition{
		Type: TypeModeratePost,
		Role: RoleSudo,
		ValidatePayload: func(raw json.RawMessage) error {
			var payload struct {
				PostID uint64 `json:"post_id"`
			}
			return json.Unmarshal(raw, &payload)
		},
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	tests := []struct {
		name string
		cmd  Command
		want error
	}{
		{name: "missing type", cmd: Command{ActorID: "a"}, want: ErrTypeRequired},
		{name: "unknown type", cmd: Command{Type: "post.delete", ActorID: "a"}, want: ErrTypeUnknown},
		{name: "missing actor", cmd: Command{Type: TypeModeratePost}, want: ErrActorIDRequired},
		{name: "malformed json", cmd: Command{Type: TypeModeratePost, ActorID: "a", PayloadJSON: []byte("{")}, want: ErrPayloadInvalid},
		{name: "payload validator", cmd: Command{Type: TypeModeratePost, ActorID: "a", PayloadJSON: []byte(`{"post_id":"x"}`)}, want: ErrPayloadInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := registry.ValidateForDecision(tt.cmd)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestRegistryValidateForDecisionDefaultsEmptyPayload(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(Definition{Type: TypeSetForumSudo, Role: RoleSudo}); err != nil {
		t.Fatalf("register: %v", err)
	}
	cmd, _, err := registry.ValidateForDecision(Command{Type: TypeSetForumSudo, ActorID: "root"})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if string(cmd.PayloadJSON) != "{}" {
		t.Fatalf("payload = %s, want {}", cmd.PayloadJSON)
	}
}

func TestListDefinitionsSorted(t *testing.T) {
	registry := NewRegistry()
	for _, typ := range []Type{TypeEditPostText, TypeAddPost, TypeCreateCategory} {
		if err := registry.Register(Definition{Type: typ, Role: RoleMember}); err != nil {
			t.Fatalf("register %s: %v", typ, err)
		}
	}
	defs := registry.ListDefinitions()
	if len(defs) != 3 {
		t.Fatalf("definitions = %d, want 3", len(defs))
	}
	if defs[0].Type != TypeCreateCategory || defs[1].Type != TypeAddPost || defs[2].Type != TypeEditPostText {
		t.Fatalf("unexpected order: %v, %v, %v", defs[0].Type, defs[1].Type, defs[2].Type)
	}
}

func TestDecisionHelpers(t *testing.T) {
	if Accept().Rejected() {
		t.Fatal("accept should not be rejected")
	}
	decision := Reject(apperrors.New(apperrors.CodePostNotAuthor, "no"))
	if !decision.Rejected() || len(decision.Events) != 0 {
		t.Fatalf("unexpected decision: %+v", decision)
	}
}
