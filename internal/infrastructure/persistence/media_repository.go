package persistence

import (
	"context"

	"github.com/adplan/backend/internal/domain/media"
	"github.com/adplan/backend/internal/infrastructure/persistence/models"
)

// MediaRepository implements media.MediaRepository on a Gateway
type MediaRepository struct {
	gw    Gateway
	table string
}

// NewMediaRepository creates a MediaRepository over the given table
func NewMediaRepository(gw Gateway, table string) *MediaRepository {
	return &MediaRepository{gw: gw, table: table}
}

// FindAll returns every media ordered by ID
func (r *MediaRepository) FindAll(ctx context.Context) ([]media.Media, error) {
	return selectAll[models.MediaModel, media.Media](ctx, r.gw, r.table, Query{}.Ordered("id"))
}

// SupportRepository implements media.SupportRepository on a Gateway
type SupportRepository struct {
	gw    Gateway
	table string
}

// NewSupportRepository creates a SupportRepository over the given table
func NewSupportRepository(gw Gateway, table string) *SupportRepository {
	return &SupportRepository{gw: gw, table: table}
}

// FindAll returns every support ordered by ID
func (r *SupportRepository) FindAll(ctx context.Context) ([]media.Support, error) {
	return selectAll[models.SupportModel, media.Support](ctx, r.gw, r.table, Query{}.Ordered("id"))
}

// AssignMedia stores the media link of a support
func (r *SupportRepository) AssignMedia(ctx context.Context, supportID, mediaID int64) error {
	return updateOne(ctx, r.gw, r.table, supportID, map[string]any{"media_id": mediaID})
}
