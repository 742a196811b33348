package persistence

import (
	"context"

	"github.com/adplan/backend/internal/domain/partner"
	"github.com/adplan/backend/internal/infrastructure/persistence/models"
)

// ClientRepository implements partner.ClientRepository on a Gateway
type ClientRepository struct {
	gw    Gateway
	table string
}

// NewClientRepository creates a ClientRepository over the given table
func NewClientRepository(gw Gateway, table string) *ClientRepository {
	return &ClientRepository{gw: gw, table: table}
}

// FindAll returns every client ordered by ID
func (r *ClientRepository) FindAll(ctx context.Context) ([]partner.Client, error) {
	return selectAll[models.ClientModel, partner.Client](ctx, r.gw, r.table, Query{}.Ordered("id"))
}

// AgencyRepository implements partner.AgencyRepository on a Gateway
type AgencyRepository struct {
	gw    Gateway
	table string
}

// NewAgencyRepository creates an AgencyRepository over the given table
func NewAgencyRepository(gw Gateway, table string) *AgencyRepository {
	return &AgencyRepository{gw: gw, table: table}
}

// FindAll returns every agency ordered by ID
func (r *AgencyRepository) FindAll(ctx context.Context) ([]partner.Agency, error) {
	return selectAll[models.AgencyModel, partner.Agency](ctx, r.gw, r.table, Query{}.Ordered("id"))
}
