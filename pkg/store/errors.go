package store

import "errors"

var (
	// ErrLocked indicates a leftover or concurrent .tmp file for the document
	ErrLocked = errors.New("store: path is locked for writing")
)
