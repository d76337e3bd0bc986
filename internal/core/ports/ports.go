package ports

import (
	"context"
	"iter"
	"time"
)

// Handle is an open, provider-specific node. A handle is owned by the
// traversal frame that opened it and is closed once every child of the node
// has been opened or pruned.
type Handle interface {
	Close() error
}

// NodeProvider opens nodes of an external hierarchical namespace.
//
// OpenRoot fails with a ROOT_UNAVAILABLE error when rootID does not name a
// root. Children yields child names lazily; a non-nil error in the second
// position marks a single faulty entry and does not end the sequence.
// OpenChild fails with a CHILD_UNAVAILABLE error when the child cannot be
// opened.
//
// Children and OpenChild may be called concurrently on the same handle.
type NodeProvider interface {
	OpenRoot(rootID string) (Handle, error)
	Children(node Handle) iter.Seq2[string, error]
	OpenChild(node Handle, name string) (Handle, error)
}

// RunRecord describes one completed traversal.
type RunRecord struct {
	ID        string
	Timestamp time.Time
	Root      string
	Provider  string
	Strategy  string
	Threads   int
	Count     int
	Elapsed   time.Duration
}

// RunRecorder abstracts run history persistence.
type RunRecorder interface {
	SaveRun(ctx context.Context, run RunRecord) error
	LoadRuns(ctx context.Context, limit int) ([]RunRecord, error)
}
