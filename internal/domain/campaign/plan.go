package campaign

import (
	"time"

	"github.com/adplan/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// MonthFormat is the layout of Plan.Month
const MonthFormat = "2006-01"

// Plan is a monthly subdivision of a campaign's budget
type Plan struct {
	ID         int64
	CampaignID int64
	Name       string
	Month      string // YYYY-MM
	Budget     decimal.Decimal
}

// MonthlyBudget is one month's share of a campaign budget
type MonthlyBudget struct {
	Month  string
	Days   int
	Amount decimal.Decimal
}

// SplitBudget divides total across the calendar months touched by [start, end]
// (both inclusive, date precision) in proportion to the days of each month
// inside the window. Amounts are rounded to cents and the last month absorbs
// the rounding remainder so the parts always sum to total.
func SplitBudget(total decimal.Decimal, start, end time.Time) ([]MonthlyBudget, error) {
	if total.IsNegative() {
		return nil, shared.NewDomainError("INVALID_BUDGET", "Budget cannot be negative")
	}
	start = dateOnly(start)
	end = dateOnly(end)
	if end.Before(start) {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Campaign end date is before its start date")
	}

	totalDays := daysBetween(start, end)
	var parts []MonthlyBudget
	for monthStart := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC); !monthStart.After(end); monthStart = monthStart.AddDate(0, 1, 0) {
		monthEnd := monthStart.AddDate(0, 1, -1)
		from := maxTime(start, monthStart)
		to := minTime(end, monthEnd)
		parts = append(parts, MonthlyBudget{
			Month: monthStart.Format(MonthFormat),
			Days:  daysBetween(from, to),
		})
	}

	allocated := decimal.Zero
	for i := range parts {
		if i == len(parts)-1 {
			parts[i].Amount = total.Sub(allocated)
			break
		}
		amount := total.Mul(decimal.NewFromInt(int64(parts[i].Days))).
			Div(decimal.NewFromInt(int64(totalDays))).
			Round(2)
		parts[i].Amount = amount
		allocated = allocated.Add(amount)
	}
	return parts, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// daysBetween counts days in [from, to], both inclusive
func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours()/24) + 1
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
