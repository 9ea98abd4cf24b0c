// Package query filters, sorts and groups library items
package query

import "errors"

var (
	// ErrInvalidQuery indicates an unnamed query or an unknown operator or condition
	ErrInvalidQuery = errors.New("query: invalid query")
)
