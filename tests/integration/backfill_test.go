package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	reconcileapp "github.com/adplan/backend/internal/application/reconcile"
	"github.com/adplan/backend/internal/domain/contract"
	"github.com/adplan/backend/internal/domain/media"
	"github.com/adplan/backend/internal/domain/reconcile"
	"github.com/adplan/backend/internal/domain/shared"
	"github.com/adplan/backend/internal/infrastructure/config"
	"github.com/adplan/backend/internal/infrastructure/lock"
	"github.com/adplan/backend/internal/infrastructure/persistence"
	"github.com/adplan/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// agencyGraph holds the ids of the seeded rows
type agencyGraph struct {
	client     int64
	digital    int64
	cable      int64
	fm         int64
	am         int64
	fmSupport  int64
	amSupport  int64
	commercial int64
}

// seedAgency stores a client with a commercial contract on cable TV, a
// campaign whose theme runs on digital media, and a plan with alternatives
// on an unclassified FM support and on the cable support.
func seedAgency(tdb *TestDB) agencyGraph {
	now := time.Now().UTC()
	var g agencyGraph

	tv := &models.MediaModel{Name: "Televisión Abierta", Category: "tv"}
	cable := &models.MediaModel{Name: "TV Cable", Category: "tv"}
	fm := &models.MediaModel{Name: "Radio FM", Category: "radio"}
	am := &models.MediaModel{Name: "Radio AM", Category: "radio"}
	digital := &models.MediaModel{Name: "Medios Digitales", Category: "digital"}
	tdb.Create(tv, cable, fm, am, digital)
	g.cable, g.fm, g.am, g.digital = cable.ID, fm.ID, am.ID, digital.ID

	client := &models.ClientModel{LegalName: "Banco Austral", TaxID: "761234567", Active: true}
	tdb.Create(client)
	g.client = client.ID

	commercial := &models.ContractModel{
		ClientID: client.ID, MediaID: cable.ID, Name: "Contrato marco",
		Amount: decimal.NewFromInt(1000), ValidFrom: now, ValidTo: now.AddDate(1, 0, 0),
		Status: "active", CreatedAt: now,
	}
	tdb.Create(commercial)
	g.commercial = commercial.ID

	fmSupport := &models.SupportModel{Name: "Radio FM Sur"}
	amSupport := &models.SupportModel{Name: "Radio AM Norte"}
	cableSupport := &models.SupportModel{Name: "VTR Cable", MediaID: &g.cable}
	tdb.Create(fmSupport, amSupport, cableSupport)
	g.fmSupport, g.amSupport = fmSupport.ID, amSupport.ID

	agency := &models.AgencyModel{Name: "Agencia Norte"}
	tdb.Create(agency)

	camp := &models.CampaignModel{Name: "Verano", ClientID: &g.client, AgencyID: &agency.ID, Budget: decimal.NewFromInt(900),
		StartDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), EndDate: time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)}
	theme := &models.ThemeModel{Name: "Playa", MediaID: &g.digital}
	tdb.Create(camp, theme)
	tdb.Create(&models.CampaignThemeModel{CampaignID: camp.ID, ThemeID: theme.ID})

	plan := &models.PlanModel{CampaignID: camp.ID, Month: "2025-01", Budget: decimal.NewFromInt(900)}
	tdb.Create(plan)
	altFM := &models.AlternativeModel{PlanID: plan.ID, SupportID: fmSupport.ID, Cost: decimal.NewFromInt(300)}
	altCable := &models.AlternativeModel{PlanID: plan.ID, SupportID: cableSupport.ID, Cost: decimal.NewFromInt(600)}
	tdb.Create(altFM, altCable)

	order := &models.OrderModel{PlanID: plan.ID, Status: "pending", Total: decimal.NewFromInt(900)}
	tdb.Create(order)
	tdb.Create(
		&models.OrderAlternativeModel{OrderID: order.ID, AlternativeID: altFM.ID},
		&models.OrderAlternativeModel{OrderID: order.ID, AlternativeID: altCable.ID},
	)
	return g
}

func repositories(gw persistence.Gateway, strategy persistence.IDStrategy) reconcileapp.Repositories {
	t := config.DefaultTables()
	return reconcileapp.Repositories{
		Media:        persistence.NewMediaRepository(gw, t.Media),
		Supports:     persistence.NewSupportRepository(gw, t.Supports),
		Clients:      persistence.NewClientRepository(gw, t.Clients),
		Agencies:     persistence.NewAgencyRepository(gw, t.Agencies),
		Contracts:    persistence.NewContractRepository(gw, t.Contracts, strategy),
		Campaigns:    persistence.NewCampaignRepository(gw, t.Campaigns, t.CampaignThemes),
		Themes:       persistence.NewThemeRepository(gw, t.Themes),
		Plans:        persistence.NewPlanRepository(gw, t.Plans),
		Alternatives: persistence.NewAlternativeRepository(gw, t.Alternatives),
		Orders:       persistence.NewOrderRepository(gw, t.Orders, t.OrderAlternatives),
		Runs:         persistence.NewRunRepository(gw, t.ReconcileRuns),
	}
}

func rowLock(t *testing.T, gw persistence.Gateway) shared.RunLock {
	t.Helper()
	cfg := config.ReconcileConfig{Lock: "row", LockName: "reconcile-relationships", LockTTL: time.Minute}
	l, err := lock.New(cfg, config.DefaultTables(), lock.Deps{Gateway: gw})
	require.NoError(t, err)
	return l
}

func TestBackfill_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	tdb := NewTestDB(t)
	g := seedAgency(tdb)

	for _, strategy := range []persistence.IDStrategy{persistence.IDStrategyStore, persistence.IDStrategyMaxPlusOne} {
		t.Run(string(strategy), func(t *testing.T) {
			gw := tdb.Gateway()
			repos := repositories(gw, strategy)
			driver := reconcileapp.NewBackfillDriver(repos, rowLock(t, gw), media.NewClassifier(), nil, zap.NewNop(), reconcileapp.Options{})

			report, err := driver.Run(ctx)
			require.NoError(t, err)
			assert.False(t, report.HasFailures(), report.Summary())

			contracts, err := repos.Contracts.FindByClient(ctx, g.client)
			require.NoError(t, err)
			keys := make(map[contract.Key]int)
			for _, c := range contracts {
				keys[c.Key()]++
			}
			assert.Equal(t, map[contract.Key]int{
				{ClientID: g.client, MediaID: g.cable}:   1,
				{ClientID: g.client, MediaID: g.digital}: 1,
				{ClientID: g.client, MediaID: g.fm}:      1,
			}, keys)

			supports, err := repos.Supports.FindAll(ctx)
			require.NoError(t, err)
			byID := make(map[int64]media.Support)
			for _, s := range supports {
				byID[s.ID] = s
			}
			fmSupport, amSupport := byID[g.fmSupport], byID[g.amSupport]
			require.True(t, fmSupport.HasMedia())
			require.True(t, amSupport.HasMedia())
			assert.Equal(t, g.fm, *byID[g.fmSupport].MediaID)
			assert.Equal(t, g.am, *byID[g.amSupport].MediaID)

			diag, err := reconcileapp.NewDiagnostics(repos, nil).Diagnose(ctx)
			require.NoError(t, err)
			assert.True(t, diag.Healthy(), "issues: %v", diag.Issues)
		})
	}

	// the first subtest did the work, the second found everything in place
	assert.EqualValues(t, 3, tdb.Count("contracts"))
	assert.EqualValues(t, 2, tdb.Count("reconcile_runs"))

	runs, err := persistence.NewRunRepository(tdb.Gateway(), "reconcile_runs").FindRecent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Zero(t, runs[0].Created)
	assert.Zero(t, runs[0].Linked)
	assert.Positive(t, runs[0].Existing)
}

func TestBackfill_PostgresDryRun(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	tdb := NewTestDB(t)
	seedAgency(tdb)
	gw := tdb.Gateway()

	driver := reconcileapp.NewBackfillDriver(repositories(gw, persistence.IDStrategyStore), rowLock(t, gw),
		nil, nil, zap.NewNop(), reconcileapp.Options{DryRun: true})
	report, err := driver.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Totals()[reconcile.OutcomeCreated])
	assert.EqualValues(t, 1, tdb.Count("contracts"))
	assert.EqualValues(t, 0, tdb.Count("reconcile_runs"))
}

func TestContractRepository_ConcurrentCreateIfAbsent(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	tdb := NewTestDB(t)
	g := seedAgency(tdb)

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		ids     = make(map[int64]bool)
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			repo := persistence.NewContractRepository(tdb.Gateway(), "contracts", persistence.IDStrategyStore)
			c, err := contract.NewPlaceholderContract(g.client, g.am, time.Now().UTC())
			if !assert.NoError(t, err) {
				return
			}
			ok, err := repo.CreateIfAbsent(ctx, c)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if ok {
				created++
			}
			ids[c.ID] = true
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created, "exactly one writer wins")
	assert.Len(t, ids, 1, "every writer sees the same contract")

	var n int64
	require.NoError(t, tdb.DB.Table("contracts").
		Where("client_id = ? AND media_id = ?", g.client, g.am).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}
