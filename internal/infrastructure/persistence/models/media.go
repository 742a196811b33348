package models

import "github.com/adplan/backend/internal/domain/media"

// MediaModel is the persistence model for the Media entity
type MediaModel struct {
	BaseModel
	Name     string `gorm:"size:200;not null" json:"name"`
	Category string `gorm:"size:20" json:"category"`
}

// TableName returns the table name for GORM
func (MediaModel) TableName() string {
	return "media"
}

// ToDomain converts the persistence model to a domain Media entity.
// Unrecognised categories map to CategoryUnknown.
func (m *MediaModel) ToDomain() *media.Media {
	category := media.Category(m.Category)
	if !category.IsValid() {
		category = media.CategoryUnknown
	}
	return &media.Media{ID: m.ID, Name: m.Name, Category: category}
}

// SupportModel is the persistence model for the Support entity
type SupportModel struct {
	BaseModel
	Name       string `gorm:"size:200;not null" json:"name"`
	MediaID    *int64 `gorm:"index" json:"media_id"`
	ProviderID *int64 `json:"provider_id"`
}

// TableName returns the table name for GORM
func (SupportModel) TableName() string {
	return "supports"
}

// ToDomain converts the persistence model to a domain Support entity
func (m *SupportModel) ToDomain() *media.Support {
	return &media.Support{
		ID:         m.ID,
		Name:       m.Name,
		MediaID:    m.MediaID,
		ProviderID: m.ProviderID,
	}
}
