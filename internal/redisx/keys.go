package redisx

import "time"

const (
	// Cache of an order's own status: order_status:{order_id} -> status string
	KeyOrderStatus = "order_status:%d"
)

var TTLStatusCache = 5 * time.Minute
