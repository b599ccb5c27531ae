package order

import "errors"

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrInvalidState    = errors.New("invalid order state")
	ErrStateDowngraded = errors.New("committed order cannot be aborted")
	ErrOrderNotPending = errors.New("order is not awaiting payment")
)
