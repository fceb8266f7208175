package customer

import "errors"

// Sentinel errors for the customer repository layer.
var (
	ErrNotFound = errors.New("customer not found")
)
