package contract

import "context"

// Repository defines the interface for contract persistence
type Repository interface {
	// FindAll returns every contract ordered by ID
	FindAll(ctx context.Context) ([]Contract, error)

	// FindByClient returns the contracts of one client ordered by ID
	FindByClient(ctx context.Context, clientID int64) ([]Contract, error)

	// FindByKey finds the contract linking a client to a media
	FindByKey(ctx context.Context, key Key) (*Contract, error)

	// CreateIfAbsent inserts the contract unless one already exists for its key.
	// The store's unique (client_id, media_id) constraint decides: on conflict
	// nothing is written, created is false and c is replaced by the stored row.
	// On success c.ID holds the new identifier.
	CreateIfAbsent(ctx context.Context, c *Contract) (created bool, err error)
}
