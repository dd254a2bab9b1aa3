package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ecomlabs/order-service/internal/userdir"
)

// Order is the aggregate root. Lines belong exclusively to their order and
// never outlive it.
type Order struct {
	ID         int64
	UserID     int64 // owner; immutable after creation
	Status     Status
	TotalPrice decimal.Decimal
	Deleted    bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Lines      []OrderLine
}

type OrderLine struct {
	ID       int64
	OrderID  int64
	ItemID   int64
	Quantity int
	// UnitPrice is snapshotted from the catalog when the line is added and is
	// unaffected by later catalog price changes.
	UnitPrice decimal.Decimal
}

// LineInput is a requested line before item resolution.
type LineInput struct {
	ItemID   int64 `json:"itemId"`
	Quantity int   `json:"quantity"`
}

// UpdateRequest distinguishes "leave lines alone" (Items == nil) from
// "replace with this set, possibly empty" (Items != nil).
type UpdateRequest struct {
	Status *Status      `json:"status,omitempty"`
	Items  *[]LineInput `json:"items,omitempty"`
}

// ListFilter predicates combine with AND; each one matches everything when
// its input is absent.
type ListFilter struct {
	DateFrom *time.Time
	DateTo   *time.Time
	Statuses []Status
	Page     int
	Size     int
}

// View is an order merged with a freshly fetched (possibly degraded) owner
// snapshot. The snapshot is never persisted.
type View struct {
	Order
	User userdir.UserInfo
}
