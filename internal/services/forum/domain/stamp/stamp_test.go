package stamp

import (
	"testing"
	"time"
)

func TestBlockClockDerivesHeight(t *testing.T) {
	genesis := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := BlockClock{
		GenesisTime:  genesis,
		GenesisBlock: 1,
		BlockTime:    6 * time.Second,
		WallClock:    func() time.Time { return genesis.Add(61*time.Second + 1500*time.Microsecond) },
	}
	ts := clock.Now()
	if ts.Block != 11 {
		t.Fatalf("block = %d, want 11", ts.Block)
	}
	if want := genesis.Add(61*time.Second + time.Millisecond); !ts.Time.Equal(want) {
		t.Fatalf("time = %s, want %s", ts.Time, want)
	}
}

func TestBlockClockBeforeGenesis(t *testing.T) {
	genesis := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := BlockClock{
		GenesisTime:  genesis,
		GenesisBlock: 5,
		BlockTime:    time.Second,
		WallClock:    func() time.Time { return genesis.Add(-time.Hour) },
	}
	if got := clock.Now().Block; got != 5 {
		t.Fatalf("block = %d, want 5", got)
	}
}

func TestMillisRoundTrip(t *testing.T) {
	ts := Timestamp{Block: 9, Time: time.UnixMilli(1_700_000_000_123).UTC()}
	back := FromMillis(ts.Block, ts.Millis())
	if back != ts {
		t.Fatalf("round trip = %+v, want %+v", back, ts)
	}
	if (Timestamp{}).Millis() != 0 {
		t.Fatal("expected zero millis for zero stamp")
	}
	if !(Timestamp{}).IsZero() {
		t.Fatal("expected zero stamp")
	}
}

func TestFixedClock(t *testing.T) {
	ts := Timestamp{Block: 3, Time: time.UnixMilli(10).UTC()}
	if got := Fixed(ts).Now(); got != ts {
		t.Fatalf("fixed = %+v, want %+v", got, ts)
	}
}
