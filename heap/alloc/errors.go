package alloc

import "errors"

var (
	// ErrNoSpace indicates that the reserved range cannot hold the growth a request needs.
	ErrNoSpace = errors.New("alloc: reserved range exhausted")

	// ErrCorrupt indicates that Verify found a broken structural invariant.
	ErrCorrupt = errors.New("alloc: heap corrupt")
)
