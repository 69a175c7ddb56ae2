package genesis

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agoraledger/forum/internal/services/forum/domain/constraint"
	"github.com/agoraledger/forum/internal/services/forum/domain/event"
	"github.com/agoraledger/forum/internal/services/forum/domain/forum"
	"github.com/agoraledger/forum/internal/services/forum/storage"
	"github.com/agoraledger/forum/internal/services/forum/storage/memory"
)

const sampleGenesis = `
sudo: root
members: [alice, bob]
max_category_depth: 2
constraints:
  category_title: {min: 5, max_min_diff: 20}
  category_description: {min: 5, max_min_diff: 20}
  thread_title: {min: 3, max_min_diff: 43}
  post_text: {min: 1, max_min_diff: 1001}
  thread_moderation_rationale: {min: 10, max_min_diff: 100}
  post_moderation_rationale: {min: 10, max_min_diff: 100}
cursors:
  next_category_id: 100
`

func TestParseSample(t *testing.T) {
	cfg, err := Parse([]byte(sampleGenesis))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	settings := cfg.Settings()
	if settings.MaxCategoryDepth != 2 {
		t.Fatalf("max depth = %d", settings.MaxCategoryDepth)
	}
	if settings.Constraints.CategoryTitle != (constraint.Length{Min: 5, MaxMinDiff: 20}) {
		t.Fatalf("category title = %+v", settings.Constraints.CategoryTitle)
	}
	if got := cfg.MemberAccounts(); len(got) != 2 || got[1] != "bob" {
		t.Fatalf("members = %v", got)
	}
}

func TestParseEmptyUsesDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Settings() != forum.DefaultSettings() {
		t.Fatalf("settings = %+v", cfg.Settings())
	}
	if cfg.Sudo != "" {
		t.Fatalf("sudo = %q", cfg.Sudo)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"unknown key":       "sudo: root\nflavour: vanilla\n",
		"blank member":      "members: [alice, \" \"]\n",
		"duplicate members": "members: [alice, alice]\n",
		"sudo whitespace":   "sudo: \"ro ot\"\n",
		"depth too large":   "max_category_depth: 1000\n",
		"exhausted cursor":  "cursors:\n  next_category_id: 18446744073709551615\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(doc)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genesis.yaml")
	if err := os.WriteFile(path, []byte(sampleGenesis), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Sudo != "root" {
		t.Fatalf("sudo = %q", cfg.Sudo)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil || !strings.Contains(err.Error(), "read genesis") {
		t.Fatalf("expected read error, got %v", err)
	}
}

func TestApplySeedsEmptyLedger(t *testing.T) {
	ctx := context.Background()
	cfg, err := Parse([]byte(sampleGenesis))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	ledger := memory.New()

	applied, err := cfg.Apply(ctx, ledger)
	if err != nil || !applied {
		t.Fatalf("apply = %v, %v", applied, err)
	}
	if err := ledger.View(ctx, func(r forum.Reader) error {
		sudo, ok, err := r.ForumSudo()
		if err != nil || !ok || sudo != "root" {
			t.Fatalf("sudo = %q, %v, %v", sudo, ok, err)
		}
		next, _ := r.NextCategoryID()
		if next != 100 {
			t.Fatalf("next category = %d", next)
		}
		nextPost, _ := r.NextPostID()
		if nextPost != 1 {
			t.Fatalf("next post = %d", nextPost)
		}
		settings, _ := r.Settings()
		if settings.MaxCategoryDepth != 2 {
			t.Fatalf("settings = %+v", settings)
		}
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
	if err := RequireEmpty(ctx, ledger); err != nil {
		t.Fatalf("ledger must still have an empty journal: %v", err)
	}
}

func TestApplySkipsLedgerWithJournal(t *testing.T) {
	ctx := context.Background()
	ledger := memory.New()
	if err := ledger.Update(ctx, func(tx storage.Tx) error {
		_, err := tx.AppendEvent(event.Event{
			Type:        event.TypeForumSudoSet,
			EntityType:  event.EntityForum,
			EntityID:    event.EntityForum,
			ActorID:     "root",
			PayloadJSON: []byte(`{}`),
		})
		return err
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	applied, err := Config{Sudo: "other"}.Apply(ctx, ledger)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if applied {
		t.Fatal("expected genesis to be skipped")
	}
	if err := RequireEmpty(ctx, ledger); !errors.Is(err, ErrLedgerNotEmpty) {
		t.Fatalf("expected ErrLedgerNotEmpty, got %v", err)
	}
}

func TestAccountValidationIsRegistered(t *testing.T) {
	for value, ok := range map[string]bool{"root": true, "ro ot": false, "": false} {
		err := validate.Var(value, "account")
		if (err == nil) != ok {
			t.Fatalf("account %q: err = %v, want ok %v", value, err, ok)
		}
	}
}
