package models

import (
	"time"

	"github.com/adplan/backend/internal/domain/contract"
	"github.com/shopspring/decimal"
)

// ContractModel is the persistence model for the Contract entity.
// The (client_id, media_id) unique index is the conflict target of
// CreateIfAbsent.
type ContractModel struct {
	BaseModel
	ClientID   int64           `gorm:"not null;uniqueIndex:idx_contracts_client_media,priority:1" json:"client_id"`
	MediaID    int64           `gorm:"not null;uniqueIndex:idx_contracts_client_media,priority:2" json:"media_id"`
	ProviderID *int64          `json:"provider_id"`
	Name       string          `gorm:"size:200;not null" json:"name"`
	Amount     decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	ValidFrom  time.Time       `gorm:"not null" json:"valid_from"`
	ValidTo    time.Time       `gorm:"not null" json:"valid_to"`
	Status     string          `gorm:"size:20;not null" json:"status"`
	Synthetic  bool            `gorm:"not null" json:"synthetic"`
	CreatedAt  time.Time       `gorm:"not null" json:"created_at"`
}

// TableName returns the table name for GORM
func (ContractModel) TableName() string {
	return "contracts"
}

// ToDomain converts the persistence model to a domain Contract entity
func (m *ContractModel) ToDomain() *contract.Contract {
	return &contract.Contract{
		ID:         m.ID,
		ClientID:   m.ClientID,
		MediaID:    m.MediaID,
		ProviderID: m.ProviderID,
		Name:       m.Name,
		Amount:     m.Amount,
		ValidFrom:  m.ValidFrom,
		ValidTo:    m.ValidTo,
		Status:     contract.Status(m.Status),
		Synthetic:  m.Synthetic,
		CreatedAt:  m.CreatedAt,
	}
}

// FromDomain populates the persistence model from a domain Contract entity
func (m *ContractModel) FromDomain(c *contract.Contract) {
	m.ID = c.ID
	m.ClientID = c.ClientID
	m.MediaID = c.MediaID
	m.ProviderID = c.ProviderID
	m.Name = c.Name
	m.Amount = c.Amount
	m.ValidFrom = c.ValidFrom
	m.ValidTo = c.ValidTo
	m.Status = string(c.Status)
	m.Synthetic = c.Synthetic
	m.CreatedAt = c.CreatedAt
}
