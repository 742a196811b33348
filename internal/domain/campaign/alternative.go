package campaign

import "github.com/shopspring/decimal"

// shareScale is the number of decimal places kept in cost shares
const shareScale = 4

// Alternative is a costed placement option within a plan, bought on a
// support under a contract. Share is the alternative's fraction of the
// plan's total cost.
type Alternative struct {
	ID         int64
	PlanID     int64
	SupportID  int64
	ContractID *int64
	Cost       decimal.Decimal
	Share      decimal.Decimal
}

// HasContract reports whether the alternative references a contract
func (a *Alternative) HasContract() bool {
	return a.ContractID != nil && *a.ContractID > 0
}

// LinkContract sets the alternative's contract
func (a *Alternative) LinkContract(contractID int64) {
	a.ContractID = &contractID
}

// ComputeShares returns a copy of alts (all of one plan) with Share set to
// cost / total cost. Every share is zero when the total is zero.
func ComputeShares(alts []Alternative) []Alternative {
	total := decimal.Zero
	for _, a := range alts {
		total = total.Add(a.Cost)
	}

	out := make([]Alternative, len(alts))
	copy(out, alts)
	for i := range out {
		if total.IsZero() {
			out[i].Share = decimal.Zero
			continue
		}
		out[i].Share = out[i].Cost.Div(total).Round(shareScale)
	}
	return out
}
