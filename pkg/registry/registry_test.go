package registry

import (
	"testing"

	"github.com/matzehuels/traitdex/pkg/index"
)

func testTable(t *testing.T) *index.Table {
	t.Helper()
	tbl := index.NewTable()
	if err := tbl.Add("pkgA", index.Record{Text: "impl Drop for X", Types: []string{"pkgA::X"}}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	return tbl
}

func TestRegisterWithConsumer(t *testing.T) {
	r := New()
	tbl := testTable(t)

	calls := 0
	var got *index.Table
	r.SetConsumer(func(t *index.Table) {
		calls++
		got = t
	})

	r.Register(tbl)

	if calls != 1 {
		t.Fatalf("consumer invoked %d times, want exactly 1", calls)
	}
	if got != tbl {
		t.Error("consumer should receive the registered table unchanged")
	}
	if !got.Equal(tbl) {
		t.Error("delivered table differs from registered table")
	}
	if _, ok := r.Pending(); ok {
		t.Error("pending slot must stay untouched when a consumer is installed")
	}
}

func TestRegisterWithoutConsumer(t *testing.T) {
	r := New()
	tbl := testTable(t)

	r.Register(tbl)

	pending, ok := r.Pending()
	if !ok {
		t.Fatal("pending slot should hold the table when no consumer is installed")
	}
	if pending != tbl {
		t.Error("pending slot should hold the registered table unchanged")
	}
}

func TestTakePending(t *testing.T) {
	r := New()
	tbl := testTable(t)
	r.Register(tbl)

	got, ok := r.TakePending()
	if !ok || got != tbl {
		t.Fatal("TakePending should return the parked table")
	}
	if _, ok := r.TakePending(); ok {
		t.Error("TakePending should return nothing on second call")
	}
}

func TestTakePendingEmpty(t *testing.T) {
	r := New()
	if tbl, ok := r.TakePending(); ok || tbl != nil {
		t.Error("TakePending on an empty registry should return nothing")
	}
}

func TestSetConsumerNilIgnored(t *testing.T) {
	r := New()
	called := false
	r.SetConsumer(func(*index.Table) { called = true })
	r.SetConsumer(nil)

	if !r.HasConsumer() {
		t.Error("SetConsumer(nil) should not clear an installed consumer")
	}
	r.Register(testTable(t))
	if !called {
		t.Error("consumer should still be invoked after SetConsumer(nil)")
	}
}

func TestLateConsumerPullsOnce(t *testing.T) {
	r := New()
	tbl := testTable(t)

	// Producer runs first; consumer initializes afterwards.
	r.Register(tbl)

	var got *index.Table
	r.SetConsumer(func(t *index.Table) { got = t })
	if pending, ok := r.TakePending(); ok {
		r.Register(pending)
	}

	if got != tbl {
		t.Error("late consumer should receive the parked table via TakePending")
	}
}

func TestRegisterPreservesOrder(t *testing.T) {
	r := New()
	tbl := index.NewTable()
	for _, crate := range []string{"zeta", "alpha", "mid"} {
		if err := tbl.Add(crate, index.Record{Text: "impl", Types: []string{crate + "::T"}}); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	var keys []string
	r.SetConsumer(func(t *index.Table) { keys = t.Keys() })
	r.Register(tbl)

	want := []string{"zeta", "alpha", "mid"}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("delivered key order %v, want %v", keys, want)
		}
	}
}

func TestConsumerMayCallBackIntoRegistry(t *testing.T) {
	r := New()
	r.SetConsumer(func(*index.Table) {
		// Must not deadlock.
		r.TakePending()
	})
	r.Register(testTable(t))
}
