package badger

import (
	"encoding/binary"

	"github.com/OneOfOne/xxhash"
	"golang.org/x/crypto/blake2b"
)

// Keys follow the runtime storage layout:
// twox128(pallet) ++ twox128(item) [++ blake2_128(key) ++ key].
const pallet = "Forum"

const (
	itemCategoryByID   = "CategoryById"
	itemNextCategoryID = "NextCategoryId"
	itemThreadByID     = "ThreadById"
	itemNextThreadID   = "NextThreadId"
	itemPostByID       = "PostById"
	itemNextPostID     = "NextPostId"
	itemForumSudo      = "ForumSudo"
	itemSettings       = "Settings"
	itemJournal        = "Journal"
	itemJournalHead    = "JournalHead"
)

// twox128 is the 128-bit TwoX hash: two seeded xxhash64 sums, little endian.
func twox128(data []byte) []byte {
	first := xxhash.NewS64(0)
	first.Write(data)
	second := xxhash.NewS64(1)
	second.Write(data)

	out := make([]byte, 16)
	binary.LittleEndian.PutUint64(out[0:], first.Sum64())
	binary.LittleEndian.PutUint64(out[8:], second.Sum64())
	return out
}

// blake2_128Concat hashes data to 128 bits and appends data in the clear so
// the key can be recovered from the storage key.
func blake2_128Concat(data []byte) []byte {
	h, err := blake2b.New(16, nil)
	if err != nil {
		// blake2b.New only fails for sizes outside 1..64 or oversized keys.
		panic(err)
	}
	h.Write(data)
	return append(h.Sum(nil), data...)
}

func itemPrefix(item string) []byte {
	key := make([]byte, 0, 32)
	key = append(key, twox128([]byte(pallet))...)
	return append(key, twox128([]byte(item))...)
}

// valueKey addresses a single storage value.
func valueKey(item string) []byte {
	return itemPrefix(item)
}

// mapKey addresses an entry of a map keyed by a little endian u64 id.
func mapKey(item string, id uint64) []byte {
	raw := make([]byte, 8)
	binary.LittleEndian.PutUint64(raw, id)
	return append(itemPrefix(item), blake2_128Concat(raw)...)
}

// journalKey orders journal entries by seq under a shared prefix.
func journalKey(seq uint64) []byte {
	key := itemPrefix(itemJournal)
	return binary.BigEndian.AppendUint64(key, seq)
}
