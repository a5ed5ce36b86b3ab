// Package snapshot persists published implementor tables.
//
// A snapshot captures the merged table of one trait within one doc root
// at a point in time. Snapshots are immutable once stored; publishing the
// same trait and doc root again replaces the previous snapshot.
//
// Two store backends are provided:
//   - memory: in-memory storage for development and tests
//   - mongo: MongoDB-backed storage for the hosted docs platform
package snapshot

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/traitdex/pkg/errors"
	"github.com/matzehuels/traitdex/pkg/index"
)

// Snapshot is one published implementor table.
// The table is stored as its order-preserving JSON encoding; BSON maps
// would lose crate key order.
type Snapshot struct {
	ID        string    `bson:"_id" json:"id"`
	Trait     string    `bson:"trait" json:"trait"`
	DocRoot   string    `bson:"doc_root" json:"doc_root"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	Crates    int       `bson:"crates" json:"crates"`
	Records   int       `bson:"records" json:"records"`
	Table     []byte    `bson:"table" json:"table"`
}

// New creates a snapshot of the given table.
func New(trait, docRoot string, table *index.Table) (*Snapshot, error) {
	if err := errors.ValidateTraitPath(trait); err != nil {
		return nil, err
	}
	data, err := json.Marshal(table)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode table for %s", trait)
	}
	return &Snapshot{
		ID:        uuid.NewString(),
		Trait:     trait,
		DocRoot:   docRoot,
		CreatedAt: time.Now().UTC(),
		Crates:    table.Len(),
		Records:   table.RecordCount(),
		Table:     data,
	}, nil
}

// DecodeTable reconstructs the implementor table from the snapshot.
func (s *Snapshot) DecodeTable() (*index.Table, error) {
	return index.UnmarshalTable(s.Table)
}

// Store is the interface for snapshot storage backends.
type Store interface {
	// Put stores a snapshot, replacing any previous snapshot for the
	// same trait and doc root.
	Put(ctx context.Context, snap *Snapshot) error

	// Get retrieves the snapshot for a trait and doc root.
	// Returns SNAPSHOT_NOT_FOUND if none exists.
	Get(ctx context.Context, trait, docRoot string) (*Snapshot, error)

	// List returns all stored snapshots, newest first.
	List(ctx context.Context) ([]*Snapshot, error)

	// Close releases backend resources.
	Close(ctx context.Context) error
}
