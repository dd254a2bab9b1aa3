package orders

import "github.com/shopspring/decimal"

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusShipped    Status = "SHIPPED"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
)

var validNext = map[Status]map[Status]bool{
	StatusPending:    {StatusProcessing: true, StatusCancelled: true},
	StatusProcessing: {StatusShipped: true, StatusCancelled: true},
	StatusShipped:    {StatusDelivered: true},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

// CanTransition reports whether status may move from "from" to "to".
// Self-transitions are always rejected.
func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// Deletable reports whether an order in the given status may be soft-deleted.
func Deletable(s Status) bool {
	return s == StatusPending || s == StatusCancelled
}

// IsValid reports whether s is a known order status.
func IsValid(s Status) bool {
	_, ok := validNext[s]
	return ok
}

// ComputeTotal sums quantity x snapshotted unit price over the lines.
// An empty set yields exactly zero.
func ComputeTotal(lines []OrderLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}
