package campaign

import (
	"time"

	"github.com/shopspring/decimal"
)

// Campaign belongs to a client and an agency and carries the total budget.
// ClientID and AgencyID are nil when the stored row lost its reference.
type Campaign struct {
	ID        int64
	Name      string
	ClientID  *int64
	AgencyID  *int64
	Product   string
	Budget    decimal.Decimal
	StartDate time.Time
	EndDate   time.Time
}

// Client returns the owning client ID, if recorded
func (c *Campaign) Client() (int64, bool) {
	if c.ClientID == nil || *c.ClientID <= 0 {
		return 0, false
	}
	return *c.ClientID, true
}

// Agency returns the running agency ID, if recorded
func (c *Campaign) Agency() (int64, bool) {
	if c.AgencyID == nil || *c.AgencyID <= 0 {
		return 0, false
	}
	return *c.AgencyID, true
}

// HasPeriod reports whether both campaign dates are recorded
func (c *Campaign) HasPeriod() bool {
	return !c.StartDate.IsZero() && !c.EndDate.IsZero()
}

// MonthlyPlans subdivides the campaign budget into one plan per calendar month
func (c *Campaign) MonthlyPlans() ([]Plan, error) {
	parts, err := SplitBudget(c.Budget, c.StartDate, c.EndDate)
	if err != nil {
		return nil, err
	}
	plans := make([]Plan, len(parts))
	for i, p := range parts {
		plans[i] = Plan{
			CampaignID: c.ID,
			Name:       c.Name + " " + p.Month,
			Month:      p.Month,
			Budget:     p.Amount,
		}
	}
	return plans, nil
}

// Theme is a creative grouping shown on a media. Campaigns reach themes
// through the campaign_themes join table.
type Theme struct {
	ID      int64
	Name    string
	MediaID *int64
}

// Media returns the theme's media ID, if recorded
func (t *Theme) Media() (int64, bool) {
	if t.MediaID == nil || *t.MediaID <= 0 {
		return 0, false
	}
	return *t.MediaID, true
}

// ThemeLink is one row of the campaign/theme join table
type ThemeLink struct {
	CampaignID int64
	ThemeID    int64
}
