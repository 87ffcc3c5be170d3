package reconcile

import (
	"testing"
	"time"
)

func TestStoreMarkAndClear(t *testing.T) {
	store := NewStore()
	now := time.Now()

	var notified int
	store.Subscribe(func(Snapshot) { notified++ })

	store.mark("b-1", now)
	if !store.IsProcessing("b-1") {
		t.Error("b-1 should be processing after mark")
	}
	if notified != 1 {
		t.Errorf("listeners notified %d times after mark, want 1", notified)
	}

	store.clear("b-1")
	if store.IsProcessing("b-1") {
		t.Error("b-1 should not be processing after clear")
	}
	if notified != 2 {
		t.Errorf("listeners notified %d times after clear, want 2", notified)
	}

	// clearing an absent id must not emit a spurious snapshot
	store.clear("b-1")
	if notified != 2 {
		t.Errorf("clearing an absent id notified listeners, count %d", notified)
	}
}

func TestStoreSnapshotIsACopy(t *testing.T) {
	store := NewStore()
	store.mark("b-1", time.Now())

	snap := store.Snapshot()
	if !snap.Contains("b-1") {
		t.Fatal("snapshot should contain b-1")
	}

	snap.Processing[0] = "mutated"
	if !store.IsProcessing("b-1") {
		t.Error("mutating a snapshot must not affect the store")
	}
}

func TestStoreSweepOlderThan(t *testing.T) {
	store := NewStore()
	now := time.Now()
	store.mark("stale", now.Add(-10*time.Minute))
	store.mark("fresh", now)

	var notified int
	store.Subscribe(func(Snapshot) { notified++ })

	cleared := store.SweepOlderThan(now.Add(-5 * time.Minute))
	if len(cleared) != 1 || cleared[0] != "stale" {
		t.Errorf("SweepOlderThan() = %v, want [stale]", cleared)
	}
	if store.IsProcessing("stale") {
		t.Error("stale flag should be gone")
	}
	if !store.IsProcessing("fresh") {
		t.Error("fresh flag must survive the sweep")
	}
	if notified != 1 {
		t.Errorf("listeners notified %d times, want 1", notified)
	}

	// nothing stale left: no notification either
	if cleared := store.SweepOlderThan(now.Add(-5 * time.Minute)); len(cleared) != 0 {
		t.Errorf("second sweep cleared %v, want nothing", cleared)
	}
	if notified != 1 {
		t.Errorf("an empty sweep notified listeners, count %d", notified)
	}
}
