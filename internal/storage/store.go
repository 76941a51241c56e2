package storage

import (
	"context"
	"errors"

	"vitrina/internal"
)

var ErrConflict = errors.New("catalog was saved by someone else")

// Snapshot is the stored catalog as it was persisted. Tree is nil when
// nothing has been saved yet; Reconcile turns that into the default catalog.
type Snapshot struct {
	Tree    any
	Version string
}

type Store interface {
	Load(ctx context.Context) (Snapshot, error)
	// Save persists c. Versioned stores reject a baseVersion that is not the
	// latest stored version with ErrConflict.
	Save(ctx context.Context, c internal.Catalog, baseVersion string) (string, error)
}
