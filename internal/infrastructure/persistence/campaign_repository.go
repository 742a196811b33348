package persistence

import (
	"context"

	"github.com/adplan/backend/internal/domain/campaign"
	"github.com/adplan/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
)

// CampaignRepository implements campaign.CampaignRepository on a Gateway
type CampaignRepository struct {
	gw          Gateway
	table       string
	themesTable string
}

// NewCampaignRepository creates a CampaignRepository over the campaigns and campaign/theme join tables
func NewCampaignRepository(gw Gateway, table, themesTable string) *CampaignRepository {
	return &CampaignRepository{gw: gw, table: table, themesTable: themesTable}
}

// FindAll returns every campaign ordered by ID
func (r *CampaignRepository) FindAll(ctx context.Context) ([]campaign.Campaign, error) {
	return selectAll[models.CampaignModel, campaign.Campaign](ctx, r.gw, r.table, Query{}.Ordered("id"))
}

// FindThemeLinks returns every campaign/theme join row
func (r *CampaignRepository) FindThemeLinks(ctx context.Context) ([]campaign.ThemeLink, error) {
	var rows []models.CampaignThemeModel
	if err := r.gw.Select(ctx, r.themesTable, &rows, Query{}.Ordered("campaign_id")); err != nil {
		return nil, err
	}
	links := make([]campaign.ThemeLink, len(rows))
	for i := range rows {
		links[i] = rows[i].ToDomain()
	}
	return links, nil
}

// ThemeRepository implements campaign.ThemeRepository on a Gateway
type ThemeRepository struct {
	gw    Gateway
	table string
}

// NewThemeRepository creates a ThemeRepository over the given table
func NewThemeRepository(gw Gateway, table string) *ThemeRepository {
	return &ThemeRepository{gw: gw, table: table}
}

// FindAll returns every theme ordered by ID
func (r *ThemeRepository) FindAll(ctx context.Context) ([]campaign.Theme, error) {
	return selectAll[models.ThemeModel, campaign.Theme](ctx, r.gw, r.table, Query{}.Ordered("id"))
}

// PlanRepository implements campaign.PlanRepository on a Gateway
type PlanRepository struct {
	gw    Gateway
	table string
}

// NewPlanRepository creates a PlanRepository over the given table
func NewPlanRepository(gw Gateway, table string) *PlanRepository {
	return &PlanRepository{gw: gw, table: table}
}

// FindAll returns every plan ordered by ID
func (r *PlanRepository) FindAll(ctx context.Context) ([]campaign.Plan, error) {
	return selectAll[models.PlanModel, campaign.Plan](ctx, r.gw, r.table, Query{}.Ordered("id"))
}

// AlternativeRepository implements campaign.AlternativeRepository on a Gateway
type AlternativeRepository struct {
	gw    Gateway
	table string
}

// NewAlternativeRepository creates an AlternativeRepository over the given table
func NewAlternativeRepository(gw Gateway, table string) *AlternativeRepository {
	return &AlternativeRepository{gw: gw, table: table}
}

// FindAll returns every alternative ordered by ID
func (r *AlternativeRepository) FindAll(ctx context.Context) ([]campaign.Alternative, error) {
	return selectAll[models.AlternativeModel, campaign.Alternative](ctx, r.gw, r.table, Query{}.Ordered("id"))
}

// LinkContract stores the alternative's contract reference
func (r *AlternativeRepository) LinkContract(ctx context.Context, alternativeID, contractID int64) error {
	return updateOne(ctx, r.gw, r.table, alternativeID, map[string]any{"contract_id": contractID})
}

// UpdateShare stores the alternative's cost share
func (r *AlternativeRepository) UpdateShare(ctx context.Context, alternativeID int64, share decimal.Decimal) error {
	return updateOne(ctx, r.gw, r.table, alternativeID, map[string]any{"share": share})
}

// OrderRepository implements campaign.OrderRepository on a Gateway
type OrderRepository struct {
	gw                Gateway
	table             string
	alternativesTable string
}

// NewOrderRepository creates an OrderRepository over the orders and order/alternative join tables
func NewOrderRepository(gw Gateway, table, alternativesTable string) *OrderRepository {
	return &OrderRepository{gw: gw, table: table, alternativesTable: alternativesTable}
}

// FindAll returns every order ordered by ID, with AlternativeIDs populated
func (r *OrderRepository) FindAll(ctx context.Context) ([]campaign.Order, error) {
	orders, err := selectAll[models.OrderModel, campaign.Order](ctx, r.gw, r.table, Query{}.Ordered("id"))
	if err != nil {
		return nil, err
	}

	var links []models.OrderAlternativeModel
	if err := r.gw.Select(ctx, r.alternativesTable, &links, Query{}.Ordered("order_id")); err != nil {
		return nil, err
	}
	byOrder := make(map[int64][]int64, len(orders))
	for _, l := range links {
		byOrder[l.OrderID] = append(byOrder[l.OrderID], l.AlternativeID)
	}
	for i := range orders {
		orders[i].AlternativeIDs = byOrder[orders[i].ID]
	}
	return orders, nil
}
