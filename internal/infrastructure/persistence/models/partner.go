package models

import "github.com/adplan/backend/internal/domain/partner"

// ClientModel is the persistence model for the Client entity
type ClientModel struct {
	BaseModel
	LegalName string `gorm:"size:200;not null" json:"legal_name"`
	TaxID     string `gorm:"size:20" json:"tax_id"`
	Email     string `gorm:"size:200" json:"email"`
	Phone     string `gorm:"size:50" json:"phone"`
	Active    bool   `gorm:"not null" json:"active"`
}

// TableName returns the table name for GORM
func (ClientModel) TableName() string {
	return "clients"
}

// ToDomain converts the persistence model to a domain Client entity
func (m *ClientModel) ToDomain() *partner.Client {
	return &partner.Client{
		ID:        m.ID,
		LegalName: m.LegalName,
		TaxID:     m.TaxID,
		Email:     m.Email,
		Phone:     m.Phone,
		Active:    m.Active,
	}
}

// FromDomain populates the persistence model from a domain Client entity
func (m *ClientModel) FromDomain(c *partner.Client) {
	m.ID = c.ID
	m.LegalName = c.LegalName
	m.TaxID = c.TaxID
	m.Email = c.Email
	m.Phone = c.Phone
	m.Active = c.Active
}

// AgencyModel is the persistence model for the Agency entity
type AgencyModel struct {
	BaseModel
	Name string `gorm:"size:200;not null" json:"name"`
}

// TableName returns the table name for GORM
func (AgencyModel) TableName() string {
	return "agencies"
}

// ToDomain converts the persistence model to a domain Agency entity
func (m *AgencyModel) ToDomain() *partner.Agency {
	return &partner.Agency{ID: m.ID, Name: m.Name}
}

// ProviderModel is the persistence model for the Provider entity
type ProviderModel struct {
	BaseModel
	Name  string `gorm:"size:200;not null" json:"name"`
	TaxID string `gorm:"size:20" json:"tax_id"`
}

// TableName returns the table name for GORM
func (ProviderModel) TableName() string {
	return "providers"
}

// ToDomain converts the persistence model to a domain Provider entity
func (m *ProviderModel) ToDomain() *partner.Provider {
	return &partner.Provider{ID: m.ID, Name: m.Name, TaxID: m.TaxID}
}
