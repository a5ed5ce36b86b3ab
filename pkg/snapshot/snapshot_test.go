package snapshot

import (
	"context"
	"testing"
	"time"

	"github.com/matzehuels/traitdex/pkg/errors"
	"github.com/matzehuels/traitdex/pkg/index"
)

func sampleTable(t *testing.T) *index.Table {
	t.Helper()
	tbl := index.NewTable()
	if err := tbl.Add("super_analyzer",
		index.Record{Text: "impl Drop for Config", Types: []string{"super_analyzer::config::Config"}},
		index.Record{Text: "impl Drop for Benchmark", Types: []string{"super_analyzer::benchmark::Benchmark"}},
	); err != nil {
		t.Fatalf("Add: %v", err)
	}
	return tbl
}

func TestNew(t *testing.T) {
	tbl := sampleTable(t)
	snap, err := New("core::ops::drop::Drop", "/srv/docs", tbl)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if snap.ID == "" {
		t.Error("snapshot should get a generated id")
	}
	if snap.Crates != 1 || snap.Records != 2 {
		t.Errorf("counts = %d crates, %d records; want 1, 2", snap.Crates, snap.Records)
	}
	if snap.CreatedAt.IsZero() || snap.CreatedAt.After(time.Now().Add(time.Minute)) {
		t.Errorf("CreatedAt = %v", snap.CreatedAt)
	}

	decoded, err := snap.DecodeTable()
	if err != nil {
		t.Fatalf("DecodeTable: %v", err)
	}
	if !decoded.Equal(tbl) {
		t.Error("decoded table differs from original")
	}
}

func TestNewInvalidTrait(t *testing.T) {
	if _, err := New("not a trait", "/docs", sampleTable(t)); !errors.Is(err, errors.ErrCodeInvalidTrait) {
		t.Errorf("error = %v, want INVALID_TRAIT", err)
	}
}

func TestNewMongoStoreBadURI(t *testing.T) {
	_, err := NewMongoStore(context.Background(), MongoConfig{URI: "not-a-uri"})
	if !errors.Is(err, errors.ErrCodeNetwork) {
		t.Errorf("error = %v, want NETWORK_ERROR", err)
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	defer store.Close(ctx)

	if _, err := store.Get(ctx, "core::ops::drop::Drop", "/docs"); !errors.Is(err, errors.ErrCodeSnapshotNotFound) {
		t.Errorf("Get on empty store: error = %v, want SNAPSHOT_NOT_FOUND", err)
	}

	snap, err := New("core::ops::drop::Drop", "/docs", sampleTable(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := store.Put(ctx, snap); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := store.Get(ctx, "core::ops::drop::Drop", "/docs")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != snap.ID {
		t.Errorf("Get returned id %s, want %s", got.ID, snap.ID)
	}

	// Republish replaces.
	replacement, err := New("core::ops::drop::Drop", "/docs", sampleTable(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := store.Put(ctx, replacement); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, _ = store.Get(ctx, "core::ops::drop::Drop", "/docs")
	if got.ID != replacement.ID {
		t.Error("Put should replace the previous snapshot for the same trait and root")
	}

	snaps, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(snaps) != 1 {
		t.Errorf("List returned %d snapshots, want 1", len(snaps))
	}
}

func TestMemoryStoreListOrder(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	older, _ := New("a::A", "/docs", sampleTable(t))
	older.CreatedAt = time.Now().Add(-time.Hour)
	newer, _ := New("b::B", "/docs", sampleTable(t))

	store.Put(ctx, older)
	store.Put(ctx, newer)

	snaps, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(snaps) != 2 || snaps[0].Trait != "b::B" {
		t.Errorf("List should return newest first, got %v then %v", snaps[0].Trait, snaps[1].Trait)
	}
}
