package ports

import (
	"context"

	"github.com/aretw0/ayr/pkg/domain"
)

// StateStore defines the interface for persisting controller snapshots.
// This allows a controller to be resumed by a later CLI invocation or HTTP request.
type StateStore interface {
	// Save persists the snapshot for a given workspace key.
	Save(ctx context.Context, key string, snapshot *domain.Snapshot) error

	// Load retrieves the snapshot for a given workspace key.
	// Returns domain.ErrSessionNotFound if nothing was saved under the key.
	Load(ctx context.Context, key string) (*domain.Snapshot, error)

	// Delete removes the snapshot for a given workspace key.
	Delete(ctx context.Context, key string) error

	// List returns all stored workspace keys.
	List(ctx context.Context) ([]string, error)
}
