package encoding

import (
	"encoding/json"
	"testing"
)

func TestCanonicalJSONSortsKeys(t *testing.T) {
	got, err := CanonicalJSON(json.RawMessage(`{"b":1, "a":{"d":true,"c":"<x>"}}`))
	if err != nil {
		t.Fatalf("canonical: %v", err)
	}
	want := `{"a":{"c":"<x>","d":true},"b":1}`
	if string(got) != want {
		t.Fatalf("canonical = %s, want %s", got, want)
	}
}

func TestCanonicalJSONPreservesLargeIntegers(t *testing.T) {
	got, err := CanonicalJSON(struct {
		ID uint64 `json:"id"`
	}{ID: 18446744073709551615})
	if err != nil {
		t.Fatalf("canonical: %v", err)
	}
	if string(got) != `{"id":18446744073709551615}` {
		t.Fatalf("canonical = %s", got)
	}
}

func TestContentHashIsStableAcrossKeyOrder(t *testing.T) {
	first, err := ContentHash(json.RawMessage(`{"a":1,"b":2}`))
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	second, err := ContentHash(json.RawMessage(`{"b":2,"a":1}`))
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if first != second {
		t.Fatalf("hashes differ: %s != %s", first, second)
	}
	if len(first) != 32 {
		t.Fatalf("hash length = %d, want 32", len(first))
	}
}
