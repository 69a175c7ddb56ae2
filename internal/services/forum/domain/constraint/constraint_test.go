package constraint

import (
	"errors"
	"strings"
	"testing"
)

var (
	errShort = errors.New("short")
	errLong  = errors.New("long")
)

func TestEnsureValidBounds(t *testing.T) {
	c := Length{Min: 3, MaxMinDiff: 2}
	tests := []struct {
		name   string
		length int
		want   error
	}{
		{name: "below min", length: 2, want: errShort},
		{name: "at min", length: 3, want: nil},
		{name: "at max", length: 5, want: nil},
		{name: "above max", length: 6, want: errLong},
		{name: "empty", length: 0, want: errShort},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.EnsureValid(tt.length, errShort, errLong); got != tt.want {
				t.Fatalf("EnsureValid(%d) = %v, want %v", tt.length, got, tt.want)
			}
		})
	}
}

func TestMaxDoesNotOverflow(t *testing.T) {
	c := Length{Min: 65535, MaxMinDiff: 65535}
	if got := c.Max(); got != 131070 {
		t.Fatalf("max = %d, want 131070", got)
	}
	if err := c.EnsureValid(70000, errShort, errLong); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEnsureValidCountsBytes(t *testing.T) {
	c := Length{Min: 1, MaxMinDiff: 3}
	text := strings.Repeat("é", 3) // six bytes
	if err := c.EnsureValid(len(text), errShort, errLong); err != errLong {
		t.Fatalf("expected multi-byte text to exceed the byte bound, got %v", err)
	}
}

func TestDefaultSet(t *testing.T) {
	set := DefaultSet()
	if set.PostText.Max() != 1002 {
		t.Fatalf("post text max = %d, want 1002", set.PostText.Max())
	}
	if set.ThreadModerationRationale.Min != 100 {
		t.Fatalf("thread rationale min = %d, want 100", set.ThreadModerationRationale.Min)
	}
}
