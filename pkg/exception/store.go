package exception

import "errors"

var (
	ErrStoreConflict    = errors.New("store: compare-and-swap conflict")
	ErrStoreUnavailable = errors.New("store: backend unavailable")
	ErrCorruptRecord    = errors.New("store: corrupt persisted record")
)
