package orders

import "errors"

var (
	ErrNotFound     = errors.New("order not found")
	ErrInvalidState = errors.New("invalid order state")
)
