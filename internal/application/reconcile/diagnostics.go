package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/adplan/backend/internal/domain/campaign"
	"github.com/adplan/backend/internal/domain/contract"
	"github.com/shopspring/decimal"
)

// IssueKind classifies a broken link in the data graph
type IssueKind string

const (
	IssueSupportWithoutMedia        IssueKind = "support_without_media"
	IssueThemeWithoutMedia          IssueKind = "theme_without_media"
	IssueCampaignWithoutClient      IssueKind = "campaign_without_client"
	IssueCampaignWithoutAgency      IssueKind = "campaign_without_agency"
	IssueMissingContract            IssueKind = "missing_contract"
	IssueAlternativeWithoutContract IssueKind = "alternative_without_contract"
	IssueContractMismatch           IssueKind = "contract_mismatch"
	IssuePlanBudgetMismatch         IssueKind = "plan_budget_mismatch"
	IssueOrphanOrderAlternative     IssueKind = "orphan_order_alternative"
	IssueOrderTotalMismatch         IssueKind = "order_total_mismatch"
	IssueExpiredContract            IssueKind = "expired_contract"
)

// IssueKinds lists every kind in report order
func IssueKinds() []IssueKind {
	return []IssueKind{
		IssueSupportWithoutMedia,
		IssueThemeWithoutMedia,
		IssueCampaignWithoutClient,
		IssueCampaignWithoutAgency,
		IssueMissingContract,
		IssueAlternativeWithoutContract,
		IssueContractMismatch,
		IssuePlanBudgetMismatch,
		IssueOrphanOrderAlternative,
		IssueOrderTotalMismatch,
		IssueExpiredContract,
	}
}

// Issue is one broken link
type Issue struct {
	Kind   IssueKind
	Entity string
	ID     int64
	Detail string
}

// Diagnosis is the result of a read-only pass over the data graph
type Diagnosis struct {
	CheckedAt time.Time
	Issues    []Issue
}

// Count returns the number of issues of kind
func (d *Diagnosis) Count(kind IssueKind) int {
	n := 0
	for _, i := range d.Issues {
		if i.Kind == kind {
			n++
		}
	}
	return n
}

// OfKind returns the issues of kind in detection order
func (d *Diagnosis) OfKind(kind IssueKind) []Issue {
	var out []Issue
	for _, i := range d.Issues {
		if i.Kind == kind {
			out = append(out, i)
		}
	}
	return out
}

// Healthy reports whether no issue was found
func (d *Diagnosis) Healthy() bool {
	return len(d.Issues) == 0
}

// Diagnostics lists every broken link without writing anything
type Diagnostics struct {
	repos Repositories
	now   func() time.Time
}

// NewDiagnostics creates a diagnostics pass over repos
func NewDiagnostics(repos Repositories, now func() time.Time) *Diagnostics {
	if now == nil {
		now = time.Now
	}
	return &Diagnostics{repos: repos, now: now}
}

// Diagnose loads the data graph and checks every link
func (d *Diagnostics) Diagnose(ctx context.Context) (*Diagnosis, error) {
	snap, err := LoadSnapshot(ctx, d.repos, true)
	if err != nil {
		return nil, err
	}
	return Inspect(snap, d.now().UTC()), nil
}

// Inspect runs every check over a loaded snapshot
func Inspect(snap *Snapshot, now time.Time) *Diagnosis {
	diag := &Diagnosis{CheckedAt: now}
	add := func(kind IssueKind, entity string, id int64, format string, args ...any) {
		diag.Issues = append(diag.Issues, Issue{Kind: kind, Entity: entity, ID: id, Detail: fmt.Sprintf(format, args...)})
	}

	for _, s := range snap.Supports {
		if !s.HasMedia() {
			add(IssueSupportWithoutMedia, "support", s.ID, "%q has no media", s.Label())
		} else if _, ok := snap.mediaByID[*s.MediaID]; !ok {
			add(IssueSupportWithoutMedia, "support", s.ID, "%q references missing media %d", s.Label(), *s.MediaID)
		}
	}

	for _, t := range snap.Themes {
		if _, ok := t.Media(); !ok {
			add(IssueThemeWithoutMedia, "theme", t.ID, "%q has no media", t.Name)
		}
	}

	for _, c := range snap.Campaigns {
		if _, reason := snap.campaignClient(c.ID); reason != "" {
			add(IssueCampaignWithoutClient, "campaign", c.ID, "%s", reason)
		}
		if agencyID, ok := c.Agency(); !ok {
			add(IssueCampaignWithoutAgency, "campaign", c.ID, "campaign %d has no agency", c.ID)
		} else if _, ok := snap.agencyByID[agencyID]; !ok {
			add(IssueCampaignWithoutAgency, "campaign", c.ID, "agency %d of campaign %d not found", agencyID, c.ID)
		}
	}

	keys := snap.ContractKeys()
	seen := make(map[contract.Key]bool)
	for _, link := range snap.ThemeLinks {
		clientID, reason := snap.campaignClient(link.CampaignID)
		if reason != "" {
			continue
		}
		theme, ok := snap.themeByID[link.ThemeID]
		if !ok {
			continue
		}
		mediaID, ok := theme.Media()
		if !ok {
			continue
		}
		key := contract.Key{ClientID: clientID, MediaID: mediaID}
		if _, ok := keys[key]; ok || seen[key] {
			continue
		}
		seen[key] = true
		add(IssueMissingContract, "theme", theme.ID,
			"client %d has no contract for media %d (campaign %d)", clientID, mediaID, link.CampaignID)
	}

	for _, a := range snap.Alternatives {
		if !a.HasContract() {
			add(IssueAlternativeWithoutContract, "alternative", a.ID, "plan %d, support %d", a.PlanID, a.SupportID)
			continue
		}
		c, ok := snap.contractByID[*a.ContractID]
		if !ok {
			add(IssueAlternativeWithoutContract, "alternative", a.ID, "contract %d not found", *a.ContractID)
			continue
		}
		if plan, ok := snap.planByID[a.PlanID]; ok {
			if clientID, reason := snap.campaignClient(plan.CampaignID); reason == "" && c.ClientID != clientID {
				add(IssueContractMismatch, "alternative", a.ID,
					"contract %d belongs to client %d, campaign client is %d", c.ID, c.ClientID, clientID)
				continue
			}
		}
		if s, ok := snap.supportByID[a.SupportID]; ok && s.HasMedia() && *s.MediaID != c.MediaID {
			add(IssueContractMismatch, "alternative", a.ID,
				"contract %d covers media %d, support %d is on media %d", c.ID, c.MediaID, s.ID, *s.MediaID)
		}
	}

	inspectPlans(snap, add)

	alts := make(map[int64]campaign.Alternative, len(snap.Alternatives))
	for _, a := range snap.Alternatives {
		alts[a.ID] = a
	}
	for _, o := range snap.Orders {
		total, missing := o.ComputeTotal(alts)
		for _, id := range missing {
			add(IssueOrphanOrderAlternative, "order", o.ID, "alternative %d not found", id)
		}
		if len(missing) == 0 && o.Status != campaign.OrderStatusCancelled && !total.Equal(o.Total) {
			add(IssueOrderTotalMismatch, "order", o.ID, "total is %s, alternatives cost %s", o.Total.StringFixed(2), total.StringFixed(2))
		}
	}

	for _, c := range snap.Contracts {
		// contracts that have not started yet are not expired
		if c.Status == contract.StatusCancelled || c.Covers(now) || now.Before(c.ValidFrom) {
			continue
		}
		add(IssueExpiredContract, "contract", c.ID,
			"client %d / media %d ended %s", c.ClientID, c.MediaID, c.ValidTo.Format(time.DateOnly))
	}

	return diag
}

// inspectPlans compares the stored plans of every dated campaign with its
// monthly subdivision: each plan month must fall inside the campaign period
// and the plan budgets must add up to the campaign budget.
func inspectPlans(snap *Snapshot, add func(IssueKind, string, int64, string, ...any)) {
	byCampaign := make(map[int64][]campaign.Plan)
	for _, p := range snap.Plans {
		byCampaign[p.CampaignID] = append(byCampaign[p.CampaignID], p)
	}

	for _, c := range snap.Campaigns {
		stored := byCampaign[c.ID]
		if len(stored) == 0 || !c.HasPeriod() {
			continue
		}
		expected, err := c.MonthlyPlans()
		if err != nil {
			add(IssuePlanBudgetMismatch, "campaign", c.ID, "%v", err)
			continue
		}
		months := make(map[string]bool, len(expected))
		for _, p := range expected {
			months[p.Month] = true
		}

		sum := decimal.Zero
		for _, p := range stored {
			sum = sum.Add(p.Budget)
			if !months[p.Month] {
				add(IssuePlanBudgetMismatch, "plan", p.ID, "month %s is outside campaign %d (%s to %s)",
					p.Month, c.ID, c.StartDate.Format(time.DateOnly), c.EndDate.Format(time.DateOnly))
			}
		}
		if !sum.Equal(c.Budget) {
			add(IssuePlanBudgetMismatch, "campaign", c.ID, "plans add up to %s, budget is %s",
				sum.StringFixed(2), c.Budget.StringFixed(2))
		}
	}
}
