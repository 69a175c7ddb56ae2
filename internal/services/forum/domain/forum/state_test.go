package forum

import (
	"testing"
	"time"

	"github.com/agoraledger/forum/internal/services/forum/domain/command"
	"github.com/agoraledger/forum/internal/services/forum/domain/stamp"
)

type mapState struct {
	categories map[CategoryID]Category
	threads    map[ThreadID]Thread
	posts      map[PostID]Post
	nextCat    CategoryID
	nextThread ThreadID
	nextPost   PostID
	sudo       AccountID
	sudoSet    bool
	settings   Settings
}

func newMapState(sudo AccountID) *mapState {
	return &mapState{
		categories: map[CategoryID]Category{},
		threads:    map[ThreadID]Thread{},
		posts:      map[PostID]Post{},
		nextCat:    1,
		nextThread: 1,
		nextPost:   1,
		sudo:       sudo,
		sudoSet:    sudo != "",
		settings:   DefaultSettings(),
	}
}

func (s *mapState) Category(id CategoryID) (Category, bool, error) {
	c, ok := s.categories[id]
	return c, ok, nil
}

func (s *mapState) Thread(id ThreadID) (Thread, bool, error) {
	t, ok := s.threads[id]
	return t, ok, nil
}

func (s *mapState) Post(id PostID) (Post, bool, error) {
	p, ok := s.posts[id]
	if ok {
		p.TextChangeHistory = append([]PostTextChange(nil), p.TextChangeHistory...)
	}
	return p, ok, nil
}

func (s *mapState) NextCategoryID() (CategoryID, error) { return s.nextCat, nil }
func (s *mapState) NextThreadID() (ThreadID, error)     { return s.nextThread, nil }
func (s *mapState) NextPostID() (PostID, error)         { return s.nextPost, nil }

func (s *mapState) ForumSudo() (AccountID, bool, error) { return s.sudo, s.sudoSet, nil }
func (s *mapState) Settings() (Settings, error)         { return s.settings, nil }

func (s *mapState) PutCategory(c Category) error { s.categories[c.ID] = c; return nil }
func (s *mapState) PutThread(t Thread) error     { s.threads[t.ID] = t; return nil }
func (s *mapState) PutPost(p Post) error         { s.posts[p.ID] = p; return nil }

func (s *mapState) SetNextCategoryID(id CategoryID) error { s.nextCat = id; return nil }
func (s *mapState) SetNextThreadID(id ThreadID) error     { s.nextThread = id; return nil }
func (s *mapState) SetNextPostID(id PostID) error         { s.nextPost = id; return nil }

func (s *mapState) SetForumSudo(account AccountID, ok bool) error {
	s.sudo, s.sudoSet = account, ok
	return nil
}

func (s *mapState) SetSettings(settings Settings) error {
	s.settings = settings
	return nil
}

var testTime = stamp.Timestamp{Block: 10, Time: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}

type harness struct {
	t     *testing.T
	state *mapState
	roles map[command.Type]command.Role
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	roles := make(map[command.Type]command.Role)
	for _, def := range CommandDefinitions() {
		roles[def.Type] = def.Role
	}
	return &harness{t: t, state: newMapState("sudo"), roles: roles}
}

// run decides cmd and applies the resulting event when accepted.
func (h *harness) run(caller Caller, typ command.Type, payload string) command.Decision {
	h.t.Helper()
	cmd := command.Command{Type: typ, ActorID: string(caller.Account), PayloadJSON: []byte(payload)}
	decision, err := Decide(h.state, caller, cmd, h.roles[typ], testTime)
	if err != nil {
		h.t.Fatalf("decide %s: %v", typ, err)
	}
	for _, evt := range decision.Events {
		if err := Apply(h.state, evt); err != nil {
			h.t.Fatalf("apply %s: %v", evt.Type, err)
		}
	}
	return decision
}

func (h *harness) mustAccept(caller Caller, typ command.Type, payload string) command.Decision {
	h.t.Helper()
	decision := h.run(caller, typ, payload)
	if decision.Rejected() {
		h.t.Fatalf("%s rejected: %+v", typ, decision.Rejection)
	}
	if len(decision.Events) != 1 {
		h.t.Fatalf("%s emitted %d events, want 1", typ, len(decision.Events))
	}
	return decision
}

func (h *harness) mustReject(caller Caller, typ command.Type, payload string, code string) {
	h.t.Helper()
	decision := h.run(caller, typ, payload)
	if !decision.Rejected() {
		h.t.Fatalf("%s accepted, want rejection %s", typ, code)
	}
	if len(decision.Events) != 0 {
		h.t.Fatalf("%s rejected with %d events", typ, len(decision.Events))
	}
	if got := string(decision.Rejection.Code); got != code {
		h.t.Fatalf("%s rejection = %s, want %s", typ, got, code)
	}
}

var (
	sudoCaller  = Caller{Account: "sudo", Member: true}
	alice       = Caller{Account: "alice", Member: true}
	bob         = Caller{Account: "bob", Member: true}
	outsider    = Caller{Account: "mallory"}
	validTitle  = "Great new category"
	validDesc   = "A category for testing things"
	validReason = func() string {
		b := make([]byte, 120)
		for i := range b {
			b[i] = 'r'
		}
		return string(b)
	}()
)
