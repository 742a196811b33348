package media

import "context"

// MediaRepository defines the interface for media persistence
type MediaRepository interface {
	// FindAll returns every media ordered by ID. The order is the heuristic's iteration order.
	FindAll(ctx context.Context) ([]Media, error)
}

// SupportRepository defines the interface for support persistence
type SupportRepository interface {
	// FindAll returns every support ordered by ID
	FindAll(ctx context.Context) ([]Support, error)

	// AssignMedia stores the media link of a support
	AssignMedia(ctx context.Context, supportID, mediaID int64) error
}
