package models

import (
	"unicode/utf8"

	id "securitysvc/pkg/domain"
	dErrors "securitysvc/pkg/domain-errors"
)

// Field limits, counted in characters.
const (
	MaxAbbreviationLength = 10
	MaxDescriptionLength  = 100
)

// InitialVersion is the version every new document starts at.
const InitialVersion = 1

// SecurityType classifies securities (equity, bond, fund...).
//
// Invariants:
//   - Abbreviation is 1-10 characters and unique across security types
//   - Description is 1-100 characters
//   - Version starts at 1 and grows by one on every successful update
type SecurityType struct {
	ID           id.SecurityTypeID
	Abbreviation string
	Description  string
	Version      int
}

// NewSecurityType builds a security type at InitialVersion.
func NewSecurityType(typeID id.SecurityTypeID, abbreviation, description string) (*SecurityType, error) {
	if err := validateFields(abbreviation, description); err != nil {
		return nil, err
	}
	return &SecurityType{
		ID:           typeID,
		Abbreviation: abbreviation,
		Description:  description,
		Version:      InitialVersion,
	}, nil
}

// WithChanges returns a copy carrying the new field values and the same id and version.
// The store assigns the next version when the conditional write succeeds.
func (t *SecurityType) WithChanges(abbreviation, description string) (*SecurityType, error) {
	if err := validateFields(abbreviation, description); err != nil {
		return nil, err
	}
	next := *t
	next.Abbreviation = abbreviation
	next.Description = description
	return &next, nil
}

// Clone returns an independent copy.
func (t *SecurityType) Clone() *SecurityType {
	c := *t
	return &c
}

func validateFields(abbreviation, description string) error {
	if n := utf8.RuneCountInString(abbreviation); n < 1 || n > MaxAbbreviationLength {
		return dErrors.New(dErrors.CodeInvariantViolation, "abbreviation must be between 1 and 10 characters")
	}
	if n := utf8.RuneCountInString(description); n < 1 || n > MaxDescriptionLength {
		return dErrors.New(dErrors.CodeInvariantViolation, "description must be between 1 and 100 characters")
	}
	return nil
}
