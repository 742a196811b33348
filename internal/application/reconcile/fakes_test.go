package reconcile

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/adplan/backend/internal/domain/campaign"
	"github.com/adplan/backend/internal/domain/contract"
	"github.com/adplan/backend/internal/domain/media"
	"github.com/adplan/backend/internal/domain/partner"
	"github.com/adplan/backend/internal/domain/reconcile"
	"github.com/adplan/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

var errStoreDown = errors.New("store unavailable")

// fakeStore is an in-memory data graph with a unique (client, media) contract key
type fakeStore struct {
	mu sync.Mutex

	media     []media.Media
	supports  []media.Support
	clients   []partner.Client
	agencies  []partner.Agency
	contracts []contract.Contract
	campaigns []campaign.Campaign
	themes    []campaign.Theme
	links     []campaign.ThemeLink
	plans     []campaign.Plan
	alts      []campaign.Alternative
	orders    []campaign.Order
	runs      []reconcile.Run

	nextContractID int64
	failInsert     map[contract.Key]bool
	failLoad       bool
	writes         int
}

func (s *fakeStore) repositories() Repositories {
	return Repositories{
		Media:        fakeMediaRepo{s},
		Supports:     fakeSupportRepo{s},
		Clients:      fakeClientRepo{s},
		Agencies:     fakeAgencyRepo{s},
		Contracts:    fakeContractRepo{s},
		Campaigns:    fakeCampaignRepo{s},
		Themes:       fakeThemeRepo{s},
		Plans:        fakePlanRepo{s},
		Alternatives: fakeAlternativeRepo{s},
		Orders:       fakeOrderRepo{s},
		Runs:         fakeRunRepo{s},
	}
}

func cloneOf[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}

func ptr(v int64) *int64 { return &v }

type fakeMediaRepo struct{ s *fakeStore }

func (r fakeMediaRepo) FindAll(context.Context) ([]media.Media, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failLoad {
		return nil, errStoreDown
	}
	return cloneOf(r.s.media), nil
}

type fakeSupportRepo struct{ s *fakeStore }

func (r fakeSupportRepo) FindAll(context.Context) ([]media.Support, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return cloneOf(r.s.supports), nil
}

func (r fakeSupportRepo) AssignMedia(_ context.Context, supportID, mediaID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.supports {
		if r.s.supports[i].ID == supportID {
			r.s.supports[i].MediaID = ptr(mediaID)
			r.s.writes++
			return nil
		}
	}
	return shared.ErrNotFound
}

type fakeClientRepo struct{ s *fakeStore }

func (r fakeClientRepo) FindAll(context.Context) ([]partner.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return cloneOf(r.s.clients), nil
}

type fakeAgencyRepo struct{ s *fakeStore }

func (r fakeAgencyRepo) FindAll(context.Context) ([]partner.Agency, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return cloneOf(r.s.agencies), nil
}

type fakeContractRepo struct{ s *fakeStore }

func (r fakeContractRepo) FindAll(context.Context) ([]contract.Contract, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return cloneOf(r.s.contracts), nil
}

func (r fakeContractRepo) FindByClient(_ context.Context, clientID int64) ([]contract.Contract, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []contract.Contract
	for _, c := range r.s.contracts {
		if c.ClientID == clientID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r fakeContractRepo) FindByKey(_ context.Context, key contract.Key) (*contract.Contract, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.contracts {
		if c.Key() == key {
			return &c, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r fakeContractRepo) CreateIfAbsent(_ context.Context, c *contract.Contract) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.contracts {
		if existing.Key() == c.Key() {
			*c = existing
			return false, nil
		}
	}
	if r.s.failInsert[c.Key()] {
		return false, errStoreDown
	}
	r.s.nextContractID++
	c.ID = r.s.nextContractID
	r.s.contracts = append(r.s.contracts, *c)
	r.s.writes++
	return true, nil
}

type fakeCampaignRepo struct{ s *fakeStore }

func (r fakeCampaignRepo) FindAll(context.Context) ([]campaign.Campaign, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return cloneOf(r.s.campaigns), nil
}

func (r fakeCampaignRepo) FindThemeLinks(context.Context) ([]campaign.ThemeLink, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return cloneOf(r.s.links), nil
}

type fakeThemeRepo struct{ s *fakeStore }

func (r fakeThemeRepo) FindAll(context.Context) ([]campaign.Theme, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return cloneOf(r.s.themes), nil
}

type fakePlanRepo struct{ s *fakeStore }

func (r fakePlanRepo) FindAll(context.Context) ([]campaign.Plan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return cloneOf(r.s.plans), nil
}

type fakeAlternativeRepo struct{ s *fakeStore }

func (r fakeAlternativeRepo) FindAll(context.Context) ([]campaign.Alternative, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return cloneOf(r.s.alts), nil
}

func (r fakeAlternativeRepo) LinkContract(_ context.Context, alternativeID, contractID int64) error {
	return r.update(alternativeID, func(a *campaign.Alternative) { a.ContractID = ptr(contractID) })
}

func (r fakeAlternativeRepo) UpdateShare(_ context.Context, alternativeID int64, share decimal.Decimal) error {
	return r.update(alternativeID, func(a *campaign.Alternative) { a.Share = share })
}

func (r fakeAlternativeRepo) update(id int64, fn func(*campaign.Alternative)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.alts {
		if r.s.alts[i].ID == id {
			fn(&r.s.alts[i])
			r.s.writes++
			return nil
		}
	}
	return shared.ErrNotFound
}

type fakeOrderRepo struct{ s *fakeStore }

func (r fakeOrderRepo) FindAll(context.Context) ([]campaign.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return cloneOf(r.s.orders), nil
}

type fakeRunRepo struct{ s *fakeStore }

func (r fakeRunRepo) Save(_ context.Context, run *reconcile.Run) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.runs = append(r.s.runs, *run)
	return nil
}

func (r fakeRunRepo) FindRecent(_ context.Context, limit int) ([]reconcile.Run, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]reconcile.Run, 0, limit)
	for i := len(r.s.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.s.runs[i])
	}
	return out, nil
}

// fakeLock is a run lock held in memory
type fakeLock struct {
	mu       sync.Mutex
	held     bool
	acquired int
	released int
}

func (l *fakeLock) Name() string { return "reconcile-relationships" }

func (l *fakeLock) Acquire(context.Context) (shared.ReleaseFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held {
		return nil, shared.ErrJobLocked
	}
	l.held = true
	l.acquired++
	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			l.held = false
			l.released++
		})
		return nil
	}, nil
}

// fixedClock returns the same instant on every call
func fixedClock() func() time.Time {
	t := time.Date(2025, 6, 1, 3, 0, 0, 0, time.UTC)
	return func() time.Time { return t }
}

// agencyStore seeds the scenario most tests share: client 5 has a contract
// only with media 2, and its campaign runs a theme on media 7.
func agencyStore() *fakeStore {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return &fakeStore{
		media: []media.Media{
			{ID: 1, Name: "Televisión Abierta", Category: media.CategoryTV},
			{ID: 2, Name: "TV Cable", Category: media.CategoryTV},
			{ID: 3, Name: "Radio FM", Category: media.CategoryRadio},
			{ID: 4, Name: "Radio AM", Category: media.CategoryRadio},
			{ID: 7, Name: "Medios Digitales", Category: media.CategoryDigital},
		},
		supports: []media.Support{
			{ID: 10, Name: "Radio FM Sur"},
			{ID: 11, Name: "Radio AM Norte"},
			{ID: 12, Name: "VTR Cable", MediaID: ptr(2)},
		},
		clients: []partner.Client{
			{ID: 5, LegalName: "Banco Austral", Active: true},
			{ID: 6, LegalName: "Viña Central", Active: true},
		},
		agencies: []partner.Agency{
			{ID: 8, Name: "Agencia Norte"},
		},
		contracts: []contract.Contract{
			{ID: 40, ClientID: 5, MediaID: 2, Name: "Contrato marco", Amount: decimal.NewFromInt(1000),
				ValidFrom: now, ValidTo: now.AddDate(2, 0, 0), Status: contract.StatusActive, CreatedAt: now},
		},
		nextContractID: 40,
		campaigns: []campaign.Campaign{
			{ID: 1, Name: "Verano", ClientID: ptr(5), AgencyID: ptr(8)},
		},
		themes: []campaign.Theme{
			{ID: 100, Name: "Playa", MediaID: ptr(7)},
		},
		links: []campaign.ThemeLink{
			{CampaignID: 1, ThemeID: 100},
		},
	}
}
