// Package library indexes the items under one root directory
package library

import "errors"

var (
	// ErrNoPath indicates an operation that needs a library root on a
	// library without one
	ErrNoPath = errors.New("library: no root path set")
)
