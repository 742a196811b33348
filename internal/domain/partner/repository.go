package partner

import "context"

// ClientRepository defines the interface for client persistence
type ClientRepository interface {
	// FindAll returns every client ordered by ID
	FindAll(ctx context.Context) ([]Client, error)
}

// AgencyRepository defines the interface for agency persistence
type AgencyRepository interface {
	// FindAll returns every agency ordered by ID
	FindAll(ctx context.Context) ([]Agency, error)
}
