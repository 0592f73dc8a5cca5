package models

import (
	"unicode/utf8"

	stmodels "securitysvc/internal/securitytype/models"
	id "securitysvc/pkg/domain"
	dErrors "securitysvc/pkg/domain-errors"
)

// Field limits, counted in characters.
const (
	MaxTickerLength      = 50
	MaxDescriptionLength = 200
)

// InitialVersion is the version every new security starts at.
const InitialVersion = stmodels.InitialVersion

// Security is a tradable instrument referencing one security type.
//
// Invariants:
//   - Ticker is 1-50 characters, stored as written and unique across securities
//   - Description is 1-200 characters
//   - SecurityTypeID names an existing security type whenever the security is written
//   - Version starts at 1 and grows by one on every successful update
type Security struct {
	ID             id.SecurityID
	Ticker         string
	Description    string
	SecurityTypeID id.SecurityTypeID
	Version        int
}

// SecurityDetails pairs a security with the security type it references,
// resolved when the security is read.
type SecurityDetails struct {
	Security *Security
	Type     *stmodels.SecurityType
}

// NewSecurity builds a security at InitialVersion.
func NewSecurity(securityID id.SecurityID, ticker, description string, typeID id.SecurityTypeID) (*Security, error) {
	if err := validateFields(ticker, description); err != nil {
		return nil, err
	}
	return &Security{
		ID:             securityID,
		Ticker:         ticker,
		Description:    description,
		SecurityTypeID: typeID,
		Version:        InitialVersion,
	}, nil
}

// WithChanges returns a copy carrying the new field values and the same id and version.
func (s *Security) WithChanges(ticker, description string, typeID id.SecurityTypeID) (*Security, error) {
	if err := validateFields(ticker, description); err != nil {
		return nil, err
	}
	next := *s
	next.Ticker = ticker
	next.Description = description
	next.SecurityTypeID = typeID
	return &next, nil
}

func (s *Security) Clone() *Security {
	c := *s
	return &c
}

func validateFields(ticker, description string) error {
	if n := utf8.RuneCountInString(ticker); n < 1 || n > MaxTickerLength {
		return dErrors.New(dErrors.CodeInvariantViolation, "ticker must be between 1 and 50 characters")
	}
	if n := utf8.RuneCountInString(description); n < 1 || n > MaxDescriptionLength {
		return dErrors.New(dErrors.CodeInvariantViolation, "description must be between 1 and 200 characters")
	}
	return nil
}
