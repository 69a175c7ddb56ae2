// Package membership answers whether an account is a registered forum user.
// The registry is owned by the host; the forum only reads it.
package membership

import (
	"context"
	"strings"
	"sync"

	"github.com/agoraledger/forum/internal/services/forum/domain/forum"
)

// ForumUser is a registered forum member.
type ForumUser struct {
	Account forum.AccountID
}

// Registry looks up forum users.
type Registry interface {
	GetForumUser(ctx context.Context, account forum.AccountID) (ForumUser, bool, error)
}

// Static is an in-process registry, typically seeded from genesis.
type Static struct {
	mu      sync.RWMutex
	members map[forum.AccountID]struct{}
}

var _ Registry = (*Static)(nil)

// NewStatic returns a registry holding accounts. Blank entries are ignored.
func NewStatic(accounts ...forum.AccountID) *Static {
	s := &Static{members: make(map[forum.AccountID]struct{}, len(accounts))}
	for _, account := range accounts {
		s.Add(account)
	}
	return s
}

// Add registers account.
func (s *Static) Add(account forum.AccountID) {
	account = forum.AccountID(strings.TrimSpace(string(account)))
	if account == "" {
		return
	}
	s.mu.Lock()
	s.members[account] = struct{}{}
	s.mu.Unlock()
}

// Remove unregisters account.
func (s *Static) Remove(account forum.AccountID) {
	s.mu.Lock()
	delete(s.members, account)
	s.mu.Unlock()
}

// GetForumUser implements Registry.
func (s *Static) GetForumUser(ctx context.Context, account forum.AccountID) (ForumUser, bool, error) {
	if err := ctx.Err(); err != nil {
		return ForumUser{}, false, err
	}
	s.mu.RLock()
	_, ok := s.members[account]
	s.mu.RUnlock()
	if !ok {
		return ForumUser{}, false, nil
	}
	return ForumUser{Account: account}, true, nil
}
