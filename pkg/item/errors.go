// Package item turns filesystem paths into typed library items
package item

import "errors"

var (
	// ErrItem indicates an empty or invalid item path
	ErrItem = errors.New("item: invalid item")

	// ErrItemSave indicates a save would overwrite an existing item the
	// caller did not choose to replace
	ErrItemSave = errors.New("item: destination already exists")

	// ErrItemLoad is reserved for item loaders
	ErrItemLoad = errors.New("item: load failed")

	// ErrInvalidDescriptor indicates a descriptor without a name
	ErrInvalidDescriptor = errors.New("item: invalid descriptor")
)
