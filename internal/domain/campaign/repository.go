package campaign

import (
	"context"

	"github.com/shopspring/decimal"
)

// CampaignRepository defines the interface for campaign persistence
type CampaignRepository interface {
	// FindAll returns every campaign ordered by ID
	FindAll(ctx context.Context) ([]Campaign, error)

	// FindThemeLinks returns every campaign/theme join row
	FindThemeLinks(ctx context.Context) ([]ThemeLink, error)
}

// ThemeRepository defines the interface for theme persistence
type ThemeRepository interface {
	// FindAll returns every theme ordered by ID
	FindAll(ctx context.Context) ([]Theme, error)
}

// PlanRepository defines the interface for plan persistence
type PlanRepository interface {
	// FindAll returns every plan ordered by ID
	FindAll(ctx context.Context) ([]Plan, error)
}

// AlternativeRepository defines the interface for alternative persistence
type AlternativeRepository interface {
	// FindAll returns every alternative ordered by ID
	FindAll(ctx context.Context) ([]Alternative, error)

	// LinkContract stores the alternative's contract reference
	LinkContract(ctx context.Context, alternativeID, contractID int64) error

	// UpdateShare stores the alternative's cost share
	UpdateShare(ctx context.Context, alternativeID int64, share decimal.Decimal) error
}

// OrderRepository defines the interface for order persistence
type OrderRepository interface {
	// FindAll returns every order ordered by ID, with AlternativeIDs populated
	FindAll(ctx context.Context) ([]Order, error)
}
