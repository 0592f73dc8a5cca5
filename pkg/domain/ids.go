// Package domain holds domain primitives shared across modules: typed
// identifiers and the API version enumeration.
package domain

import (
	"github.com/google/uuid"

	dErrors "securitysvc/pkg/domain-errors"
)

// SecurityTypeID identifies a security type document.
type SecurityTypeID uuid.UUID

// SecurityID identifies a security document.
type SecurityID uuid.UUID

// NewSecurityTypeID generates a fresh random identifier.
func NewSecurityTypeID() SecurityTypeID { return SecurityTypeID(uuid.New()) }

// NewSecurityID generates a fresh random identifier.
func NewSecurityID() SecurityID { return SecurityID(uuid.New()) }

// ParseSecurityTypeID parses s, rejecting malformed and nil UUIDs with CodeInvalidInput.
func ParseSecurityTypeID(s string) (SecurityTypeID, error) {
	u, err := parseUUID(s, "securityTypeId")
	return SecurityTypeID(u), err
}

// ParseSecurityID parses s, rejecting malformed and nil UUIDs with CodeInvalidInput.
func ParseSecurityID(s string) (SecurityID, error) {
	u, err := parseUUID(s, "securityId")
	return SecurityID(u), err
}

func (id SecurityTypeID) String() string { return uuid.UUID(id).String() }
func (id SecurityTypeID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id SecurityID) String() string     { return uuid.UUID(id).String() }
func (id SecurityID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }

func parseUUID(s, field string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+field)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+field)
	}
	return u, nil
}
