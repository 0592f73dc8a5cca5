package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about documents, not validation failures:
// - ErrNotFound: document does not exist in store
// - ErrVersionMismatch: stored version differs from the expected one
// - ErrAlreadyUsed: a unique key (abbreviation, ticker) is already taken
// - ErrStillReferenced: document is referenced by another collection
// - ErrInvalidReference: a foreign key does not resolve
// - ErrUnavailable: backing service temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound         = errors.New("not found")
	ErrVersionMismatch  = errors.New("version mismatch")
	ErrAlreadyUsed      = errors.New("already used")
	ErrStillReferenced  = errors.New("still referenced")
	ErrInvalidReference = errors.New("invalid reference")
	ErrUnavailable      = errors.New("unavailable")
)
