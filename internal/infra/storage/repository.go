// Package storage provides the persistence layer for the game server.
// This package implements the repository pattern to keep the domain pure.
package storage

import (
	"context"

	"github.com/MRamiBalles/brainclicker/internal/events"
)

// JournalRepository durably stores applied actions. It is an audit trail:
// nothing reads it back into game state.
type JournalRepository interface {
	// Append adds a new entry to the ledger.
	Append(ctx context.Context, entry events.Entry) error

	// Recent returns up to limit newest entries, oldest first.
	Recent(ctx context.Context, limit int) ([]events.Entry, error)

	// ByType returns up to limit newest entries of one action type, oldest first.
	ByType(ctx context.Context, t events.ActionType, limit int) ([]events.Entry, error)

	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)
}
