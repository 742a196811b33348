package contract

import (
	"fmt"
	"time"

	"github.com/adplan/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Status represents the lifecycle state of a contract
type Status string

const (
	StatusActive        Status = "active"
	StatusPendingReview Status = "pending_review" // synthesized by reconciliation, awaiting commercial data
	StatusExpired       Status = "expired"
	StatusCancelled     Status = "cancelled"
)

// PlaceholderValidity is the validity window given to synthesized contracts
const PlaceholderValidity = 365 * 24 * time.Hour

// Key identifies the (client, media) pair a contract links.
// At most one contract exists per key.
type Key struct {
	ClientID int64
	MediaID  int64
}

// String returns "client/media" for logs and reports
func (k Key) String() string {
	return fmt.Sprintf("%d/%d", k.ClientID, k.MediaID)
}

// Contract links a client to a media, optionally through a provider, with a
// monetary amount and a validity window.
type Contract struct {
	ID         int64
	ClientID   int64
	MediaID    int64
	ProviderID *int64
	Name       string
	Amount     decimal.Decimal
	ValidFrom  time.Time
	ValidTo    time.Time
	Status     Status
	Synthetic  bool // created by reconciliation rather than by a commercial agreement
	CreatedAt  time.Time
}

// NewContract creates a contract with explicit commercial data
func NewContract(clientID, mediaID int64, name string, amount decimal.Decimal, validFrom, validTo time.Time) (*Contract, error) {
	c := &Contract{
		ClientID:  clientID,
		MediaID:   mediaID,
		Name:      name,
		Amount:    amount,
		ValidFrom: validFrom,
		ValidTo:   validTo,
		Status:    StatusActive,
		CreatedAt: time.Now(),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// NewPlaceholderContract synthesizes the contract reconciliation creates when a
// client uses a media it has no contract for. Amount is zero and the validity
// runs one year from now; status stays pending_review until someone fills it in.
func NewPlaceholderContract(clientID, mediaID int64, now time.Time) (*Contract, error) {
	c, err := NewContract(
		clientID,
		mediaID,
		fmt.Sprintf("Contrato automático %d-%d", clientID, mediaID),
		decimal.Zero,
		now,
		now.Add(PlaceholderValidity),
	)
	if err != nil {
		return nil, err
	}
	c.Status = StatusPendingReview
	c.Synthetic = true
	c.CreatedAt = now
	return c, nil
}

// Validate checks the contract's invariants
func (c *Contract) Validate() error {
	if c.ClientID <= 0 {
		return shared.NewDomainError("INVALID_CLIENT", "Contract client ID must be positive")
	}
	if c.MediaID <= 0 {
		return shared.NewDomainError("INVALID_MEDIA", "Contract media ID must be positive")
	}
	if c.Amount.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Contract amount cannot be negative")
	}
	if !c.ValidTo.After(c.ValidFrom) {
		return shared.NewDomainError("INVALID_VALIDITY", "Contract validity must end after it starts")
	}
	return nil
}

// Key returns the (client, media) pair of the contract
func (c *Contract) Key() Key {
	return Key{ClientID: c.ClientID, MediaID: c.MediaID}
}

// Covers reports whether t falls inside [ValidFrom, ValidTo)
func (c *Contract) Covers(t time.Time) bool {
	return !t.Before(c.ValidFrom) && t.Before(c.ValidTo)
}
