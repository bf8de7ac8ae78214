package storage

import (
	"context"

	"coda-server/game"
)

// HistoryStore abstracts persistence of finished rounds.
// Implementations can be swapped for testing or different backends.
type HistoryStore interface {
	// Read
	ListRecent(ctx context.Context, limit int) ([]GameRecord, error)
	ListByPlayerName(ctx context.Context, name string, limit int) ([]GameRecord, error)

	// Write
	RecordResult(ctx context.Context, r game.Result) error

	// Lifecycle
	Close()
}

// Ensure *Store implements HistoryStore at compile time.
var _ HistoryStore = (*Store)(nil)
