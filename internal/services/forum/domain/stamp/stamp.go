// Package stamp composes the block height and wall-clock time attached to
// every record created by a forum call.
package stamp

import (
	"time"
)

// Timestamp is the composite creation stamp. It is taken once per call and
// embedded verbatim; it is never recomputed.
type Timestamp struct {
	Block uint64    `json:"block"`
	Time  time.Time `json:"time"`
}

// IsZero reports whether the stamp was never set.
func (t Timestamp) IsZero() bool {
	return t.Block == 0 && t.Time.IsZero()
}

// Clock yields the stamp for the call being executed.
type Clock interface {
	Now() Timestamp
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() Timestamp

// Now implements Clock.
func (f ClockFunc) Now() Timestamp {
	return f()
}

// Fixed returns a clock that always yields ts.
func Fixed(ts Timestamp) Clock {
	return ClockFunc(func() Timestamp { return ts })
}

// BlockClock derives the block height from elapsed wall-clock time at a fixed
// block interval, anchored at a genesis instant.
type BlockClock struct {
	GenesisTime  time.Time
	GenesisBlock uint64
	BlockTime    time.Duration
	WallClock    func() time.Time
}

// Now implements Clock. Times are truncated to milliseconds, the resolution
// persisted by every storage backend.
func (c BlockClock) Now() Timestamp {
	wall := c.WallClock
	if wall == nil {
		wall = time.Now
	}
	now := wall().UTC().Truncate(time.Millisecond)
	block := c.GenesisBlock
	if c.BlockTime > 0 && now.After(c.GenesisTime) {
		block += uint64(now.Sub(c.GenesisTime) / c.BlockTime)
	}
	return Timestamp{Block: block, Time: now}
}

// FromMillis rebuilds a stamp from its persisted form.
func FromMillis(block uint64, millis int64) Timestamp {
	return Timestamp{Block: block, Time: time.UnixMilli(millis).UTC()}
}

// Millis returns the wall-clock component in Unix milliseconds.
func (t Timestamp) Millis() int64 {
	if t.Time.IsZero() {
		return 0
	}
	return t.Time.UTC().UnixMilli()
}
