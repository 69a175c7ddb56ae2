// Package genesis loads the initial forum configuration and seeds an empty
// ledger with it.
package genesis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/agoraledger/forum/internal/services/forum/domain/constraint"
	"github.com/agoraledger/forum/internal/services/forum/domain/forum"
	"github.com/agoraledger/forum/internal/services/forum/storage"
)

// ErrLedgerNotEmpty indicates a ledger that already has journal entries.
var ErrLedgerNotEmpty = errors.New("ledger already has journal entries")

var validate *validator.Validate

func init() {
	validate = validator.New()
	if err := validate.RegisterValidation("account", validateAccount); err != nil {
		panic(fmt.Sprintf("register account validation: %v", err))
	}
}

// validateAccount accepts non-empty account ids without whitespace.
func validateAccount(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return false
	}
	return strings.IndexFunc(value, unicode.IsSpace) < 0
}

// Cursors are the first ids handed out. The largest uint64 is reserved so
// every cursor can advance.
type Cursors struct {
	NextCategoryID uint64 `yaml:"next_category_id" validate:"omitempty,min=1,lt=18446744073709551615"`
	NextThreadID   uint64 `yaml:"next_thread_id" validate:"omitempty,min=1,lt=18446744073709551615"`
	NextPostID     uint64 `yaml:"next_post_id" validate:"omitempty,min=1,lt=18446744073709551615"`
}

// Config is the genesis document. Zero values take the defaults of a fresh
// forum.
type Config struct {
	Sudo             string          `yaml:"sudo" validate:"omitempty,account"`
	Members          []string        `yaml:"members" validate:"omitempty,unique,dive,account"`
	MaxCategoryDepth *uint32         `yaml:"max_category_depth" validate:"omitempty,lte=64"`
	Constraints      *constraint.Set `yaml:"constraints"`
	Cursors          Cursors         `yaml:"cursors"`
}

// Parse decodes and validates a YAML genesis document. Unknown keys are
// rejected; an empty document yields the defaults.
func Parse(data []byte) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode genesis: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads and parses the genesis file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read genesis %s: %w", path, err)
	}
	return Parse(data)
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid genesis: %w", err)
	}
	return nil
}

// Settings returns the forum settings the document selects.
func (c Config) Settings() forum.Settings {
	settings := forum.DefaultSettings()
	if c.MaxCategoryDepth != nil {
		settings.MaxCategoryDepth = *c.MaxCategoryDepth
	}
	if c.Constraints != nil {
		settings.Constraints = *c.Constraints
	}
	return settings
}

// MemberAccounts returns the member list as account ids.
func (c Config) MemberAccounts() []forum.AccountID {
	out := make([]forum.AccountID, 0, len(c.Members))
	for _, m := range c.Members {
		out = append(out, forum.AccountID(m))
	}
	return out
}

// Apply seeds ledger with the settings, sudo and cursors. It reports false
// without writing when the ledger already has journal entries, so a restart
// over a persistent ledger is a no-op.
func (c Config) Apply(ctx context.Context, ledger storage.Ledger) (bool, error) {
	applied := false
	err := ledger.Update(ctx, func(tx storage.Tx) error {
		head, err := tx.Head()
		if err != nil {
			return err
		}
		if head.Seq > 0 {
			return nil
		}
		if err := tx.SetSettings(c.Settings()); err != nil {
			return err
		}
		if err := tx.SetForumSudo(forum.AccountID(c.Sudo), c.Sudo != ""); err != nil {
			return err
		}
		if n := c.Cursors.NextCategoryID; n > 0 {
			if err := tx.SetNextCategoryID(forum.CategoryID(n)); err != nil {
				return err
			}
		}
		if n := c.Cursors.NextThreadID; n > 0 {
			if err := tx.SetNextThreadID(forum.ThreadID(n)); err != nil {
				return err
			}
		}
		if n := c.Cursors.NextPostID; n > 0 {
			if err := tx.SetNextPostID(forum.PostID(n)); err != nil {
				return err
			}
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("apply genesis: %w", err)
	}
	return applied, nil
}

// RequireEmpty returns ErrLedgerNotEmpty when ledger has journal entries.
func RequireEmpty(ctx context.Context, ledger storage.Ledger) error {
	head, err := ledger.Head(ctx)
	if err != nil {
		return err
	}
	if head.Seq > 0 {
		return fmt.Errorf("%w: head at %d", ErrLedgerNotEmpty, head.Seq)
	}
	return nil
}
