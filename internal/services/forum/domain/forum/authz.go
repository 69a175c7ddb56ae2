package forum

import "github.com/agoraledger/forum/internal/services/forum/domain/command"

// Caller is the verified account issuing a command. Member is resolved
// against the membership registry before the decision is made.
type Caller struct {
	Account AccountID
	Member  bool
}

// ensureRole checks the caller against the role a command requires.
func ensureRole(view Reader, caller Caller, role command.Role) error {
	switch role {
	case command.RoleSudo:
		return ensureSudo(view, caller.Account)
	case command.RoleMember:
		if !caller.Member {
			return ErrNotMember
		}
		return nil
	default:
		return corrupt("unknown role %q", role)
	}
}

func ensureSudo(view Reader, account AccountID) error {
	sudo, ok, err := view.ForumSudo()
	if err != nil {
		return err
	}
	if !ok {
		return ErrSudoNotSet
	}
	if sudo != account {
		return ErrNotSudo
	}
	return nil
}
