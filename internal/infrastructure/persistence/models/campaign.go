package models

import (
	"time"

	"github.com/adplan/backend/internal/domain/campaign"
	"github.com/shopspring/decimal"
)

// CampaignModel is the persistence model for the Campaign entity
type CampaignModel struct {
	BaseModel
	Name      string          `gorm:"size:200;not null" json:"name"`
	ClientID  *int64          `gorm:"index" json:"client_id"`
	AgencyID  *int64          `json:"agency_id"`
	Product   string          `gorm:"size:200" json:"product"`
	Budget    decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"budget"`
	StartDate time.Time       `json:"start_date"`
	EndDate   time.Time       `json:"end_date"`
}

// TableName returns the table name for GORM
func (CampaignModel) TableName() string {
	return "campaigns"
}

// ToDomain converts the persistence model to a domain Campaign entity
func (m *CampaignModel) ToDomain() *campaign.Campaign {
	return &campaign.Campaign{
		ID:        m.ID,
		Name:      m.Name,
		ClientID:  m.ClientID,
		AgencyID:  m.AgencyID,
		Product:   m.Product,
		Budget:    m.Budget,
		StartDate: m.StartDate,
		EndDate:   m.EndDate,
	}
}

// ThemeModel is the persistence model for the Theme entity
type ThemeModel struct {
	BaseModel
	Name    string `gorm:"size:200;not null" json:"name"`
	MediaID *int64 `gorm:"index" json:"media_id"`
}

// TableName returns the table name for GORM
func (ThemeModel) TableName() string {
	return "themes"
}

// ToDomain converts the persistence model to a domain Theme entity
func (m *ThemeModel) ToDomain() *campaign.Theme {
	return &campaign.Theme{ID: m.ID, Name: m.Name, MediaID: m.MediaID}
}

// CampaignThemeModel is one row of the campaign/theme join table
type CampaignThemeModel struct {
	CampaignID int64 `gorm:"primaryKey;autoIncrement:false" json:"campaign_id"`
	ThemeID    int64 `gorm:"primaryKey;autoIncrement:false" json:"theme_id"`
}

// TableName returns the table name for GORM
func (CampaignThemeModel) TableName() string {
	return "campaign_themes"
}

// ToDomain converts the join row to a domain ThemeLink
func (m *CampaignThemeModel) ToDomain() campaign.ThemeLink {
	return campaign.ThemeLink{CampaignID: m.CampaignID, ThemeID: m.ThemeID}
}

// PlanModel is the persistence model for the Plan entity
type PlanModel struct {
	BaseModel
	CampaignID int64           `gorm:"not null;index" json:"campaign_id"`
	Name       string          `gorm:"size:200" json:"name"`
	Month      string          `gorm:"size:7" json:"month"`
	Budget     decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"budget"`
}

// TableName returns the table name for GORM
func (PlanModel) TableName() string {
	return "plans"
}

// ToDomain converts the persistence model to a domain Plan entity
func (m *PlanModel) ToDomain() *campaign.Plan {
	return &campaign.Plan{
		ID:         m.ID,
		CampaignID: m.CampaignID,
		Name:       m.Name,
		Month:      m.Month,
		Budget:     m.Budget,
	}
}

// AlternativeModel is the persistence model for the Alternative entity
type AlternativeModel struct {
	BaseModel
	PlanID     int64           `gorm:"not null;index" json:"plan_id"`
	SupportID  int64           `gorm:"not null" json:"support_id"`
	ContractID *int64          `gorm:"index" json:"contract_id"`
	Cost       decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"cost"`
	Share      decimal.Decimal `gorm:"type:decimal(9,4);not null" json:"share"`
}

// TableName returns the table name for GORM
func (AlternativeModel) TableName() string {
	return "alternatives"
}

// ToDomain converts the persistence model to a domain Alternative entity
func (m *AlternativeModel) ToDomain() *campaign.Alternative {
	return &campaign.Alternative{
		ID:         m.ID,
		PlanID:     m.PlanID,
		SupportID:  m.SupportID,
		ContractID: m.ContractID,
		Cost:       m.Cost,
		Share:      m.Share,
	}
}

// OrderModel is the persistence model for the Order entity
type OrderModel struct {
	BaseModel
	PlanID     int64           `gorm:"not null;index" json:"plan_id"`
	CampaignID *int64          `json:"campaign_id"`
	Status     string          `gorm:"size:20;not null" json:"status"`
	Total      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"total"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order entity.
// AlternativeIDs are loaded separately from the join table.
func (m *OrderModel) ToDomain() *campaign.Order {
	return &campaign.Order{
		ID:         m.ID,
		PlanID:     m.PlanID,
		CampaignID: m.CampaignID,
		Status:     campaign.OrderStatus(m.Status),
		Total:      m.Total,
	}
}

// OrderAlternativeModel is one row of the order/alternative join table
type OrderAlternativeModel struct {
	OrderID       int64 `gorm:"primaryKey;autoIncrement:false" json:"order_id"`
	AlternativeID int64 `gorm:"primaryKey;autoIncrement:false" json:"alternative_id"`
}

// TableName returns the table name for GORM
func (OrderAlternativeModel) TableName() string {
	return "order_alternatives"
}
