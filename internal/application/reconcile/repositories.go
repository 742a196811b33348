// Package reconcile runs the relationship backfill and the read-only
// diagnostics over the agency data graph.
package reconcile

import (
	"context"
	"fmt"

	"github.com/adplan/backend/internal/domain/campaign"
	"github.com/adplan/backend/internal/domain/contract"
	"github.com/adplan/backend/internal/domain/media"
	"github.com/adplan/backend/internal/domain/partner"
	"github.com/adplan/backend/internal/domain/reconcile"
)

// Repositories groups the stores the job reads and writes
type Repositories struct {
	Media        media.MediaRepository
	Supports     media.SupportRepository
	Clients      partner.ClientRepository
	Agencies     partner.AgencyRepository
	Contracts    contract.Repository
	Campaigns    campaign.CampaignRepository
	Themes       campaign.ThemeRepository
	Plans        campaign.PlanRepository
	Alternatives campaign.AlternativeRepository
	Orders       campaign.OrderRepository
	Runs         reconcile.RunRepository
}

// Snapshot is the data graph as loaded at the start of a run, indexed by ID.
// Slices keep the store's ID order; the heuristic depends on media order.
type Snapshot struct {
	Media        []media.Media
	Supports     []media.Support
	Clients      []partner.Client
	Agencies     []partner.Agency
	Contracts    []contract.Contract
	Campaigns    []campaign.Campaign
	Themes       []campaign.Theme
	ThemeLinks   []campaign.ThemeLink
	Plans        []campaign.Plan
	Alternatives []campaign.Alternative
	Orders       []campaign.Order

	mediaByID    map[int64]*media.Media
	supportByID  map[int64]*media.Support
	clientByID   map[int64]*partner.Client
	agencyByID   map[int64]*partner.Agency
	contractByID map[int64]*contract.Contract
	campaignByID map[int64]*campaign.Campaign
	themeByID    map[int64]*campaign.Theme
	planByID     map[int64]*campaign.Plan
	altByID      map[int64]*campaign.Alternative
}

// LoadSnapshot reads every table the job needs. Agencies and orders are only
// loaded when full is set; the backfill never touches them.
func LoadSnapshot(ctx context.Context, repos Repositories, full bool) (*Snapshot, error) {
	var (
		s   Snapshot
		err error
	)
	if s.Media, err = repos.Media.FindAll(ctx); err != nil {
		return nil, fmt.Errorf("load media: %w", err)
	}
	if s.Supports, err = repos.Supports.FindAll(ctx); err != nil {
		return nil, fmt.Errorf("load supports: %w", err)
	}
	if s.Clients, err = repos.Clients.FindAll(ctx); err != nil {
		return nil, fmt.Errorf("load clients: %w", err)
	}
	if s.Contracts, err = repos.Contracts.FindAll(ctx); err != nil {
		return nil, fmt.Errorf("load contracts: %w", err)
	}
	if s.Campaigns, err = repos.Campaigns.FindAll(ctx); err != nil {
		return nil, fmt.Errorf("load campaigns: %w", err)
	}
	if s.ThemeLinks, err = repos.Campaigns.FindThemeLinks(ctx); err != nil {
		return nil, fmt.Errorf("load campaign themes: %w", err)
	}
	if s.Themes, err = repos.Themes.FindAll(ctx); err != nil {
		return nil, fmt.Errorf("load themes: %w", err)
	}
	if s.Plans, err = repos.Plans.FindAll(ctx); err != nil {
		return nil, fmt.Errorf("load plans: %w", err)
	}
	if s.Alternatives, err = repos.Alternatives.FindAll(ctx); err != nil {
		return nil, fmt.Errorf("load alternatives: %w", err)
	}
	if full {
		if s.Agencies, err = repos.Agencies.FindAll(ctx); err != nil {
			return nil, fmt.Errorf("load agencies: %w", err)
		}
		if s.Orders, err = repos.Orders.FindAll(ctx); err != nil {
			return nil, fmt.Errorf("load orders: %w", err)
		}
	}

	s.index()
	return &s, nil
}

func (s *Snapshot) index() {
	s.mediaByID = indexByID(s.Media, func(m *media.Media) int64 { return m.ID })
	s.supportByID = indexByID(s.Supports, func(x *media.Support) int64 { return x.ID })
	s.clientByID = indexByID(s.Clients, func(c *partner.Client) int64 { return c.ID })
	s.agencyByID = indexByID(s.Agencies, func(a *partner.Agency) int64 { return a.ID })
	s.contractByID = indexByID(s.Contracts, func(c *contract.Contract) int64 { return c.ID })
	s.campaignByID = indexByID(s.Campaigns, func(c *campaign.Campaign) int64 { return c.ID })
	s.themeByID = indexByID(s.Themes, func(t *campaign.Theme) int64 { return t.ID })
	s.planByID = indexByID(s.Plans, func(p *campaign.Plan) int64 { return p.ID })
	s.altByID = indexByID(s.Alternatives, func(a *campaign.Alternative) int64 { return a.ID })
}

// indexByID maps IDs to pointers into items, so updates through the map
// are visible in the slice
func indexByID[T any](items []T, id func(*T) int64) map[int64]*T {
	out := make(map[int64]*T, len(items))
	for i := range items {
		out[id(&items[i])] = &items[i]
	}
	return out
}

// ContractKeys returns the set of (client, media) pairs already contracted
func (s *Snapshot) ContractKeys() map[contract.Key]*contract.Contract {
	out := make(map[contract.Key]*contract.Contract, len(s.Contracts))
	for i := range s.Contracts {
		c := &s.Contracts[i]
		out[c.Key()] = c
	}
	return out
}

// AlternativesByPlan groups alternatives by plan, keeping ID order
func (s *Snapshot) AlternativesByPlan() (map[int64][]campaign.Alternative, []int64) {
	groups := make(map[int64][]campaign.Alternative)
	var planIDs []int64
	for _, a := range s.Alternatives {
		if _, ok := groups[a.PlanID]; !ok {
			planIDs = append(planIDs, a.PlanID)
		}
		groups[a.PlanID] = append(groups[a.PlanID], a)
	}
	return groups, planIDs
}

// campaignClient follows campaign -> client, returning a reason when the chain breaks
func (s *Snapshot) campaignClient(campaignID int64) (int64, string) {
	c, ok := s.campaignByID[campaignID]
	if !ok {
		return 0, fmt.Sprintf("campaign %d not found", campaignID)
	}
	clientID, ok := c.Client()
	if !ok {
		return 0, fmt.Sprintf("campaign %d has no client", campaignID)
	}
	if _, ok := s.clientByID[clientID]; !ok {
		return 0, fmt.Sprintf("client %d of campaign %d not found", clientID, campaignID)
	}
	return clientID, ""
}
