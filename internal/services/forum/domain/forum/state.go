package forum

// Reader exposes the forum state a decision reads. Lookups report a missing
// record with ok=false; errors are reserved for storage failures.
type Reader interface {
	Category(id CategoryID) (Category, bool, error)
	Thread(id ThreadID) (Thread, bool, error)
	Post(id PostID) (Post, bool, error)
	NextCategoryID() (CategoryID, error)
	NextThreadID() (ThreadID, error)
	NextPostID() (PostID, error)
	ForumSudo() (AccountID, bool, error)
	Settings() (Settings, error)
}

// Writer mutates forum state. It is only driven by Apply and genesis.
type Writer interface {
	PutCategory(c Category) error
	PutThread(t Thread) error
	PutPost(p Post) error
	SetNextCategoryID(id CategoryID) error
	SetNextThreadID(id ThreadID) error
	SetNextPostID(id PostID) error
	SetForumSudo(account AccountID, ok bool) error
	SetSettings(s Settings) error
}

// State is a readable and writable view, usually one storage transaction.
type State interface {
	Reader
	Writer
}
