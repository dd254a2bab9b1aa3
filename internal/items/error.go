package items

import "errors"

var (
	ErrNotFound  = errors.New("item not found")
	ErrNameTaken = errors.New("item name already exists")
)
