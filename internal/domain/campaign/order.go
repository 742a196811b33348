package campaign

import "github.com/shopspring/decimal"

// OrderStatus represents the lifecycle state of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusActive    OrderStatus = "active"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order commits to one or more alternatives of a plan
type Order struct {
	ID             int64
	PlanID         int64
	CampaignID     *int64
	Status         OrderStatus
	Total          decimal.Decimal
	AlternativeIDs []int64
}

// ComputeTotal sums the cost of the order's alternatives. IDs missing from
// byID are returned and contribute nothing to the total.
func (o *Order) ComputeTotal(byID map[int64]Alternative) (decimal.Decimal, []int64) {
	total := decimal.Zero
	var missing []int64
	for _, id := range o.AlternativeIDs {
		alt, ok := byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		total = total.Add(alt.Cost)
	}
	return total, missing
}
