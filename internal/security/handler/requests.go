package handler

import (
	"strconv"

	"github.com/asaskevich/govalidator"

	"securitysvc/internal/security/models"
	"securitysvc/internal/security/service"
	id "securitysvc/pkg/domain"
	dErrors "securitysvc/pkg/domain-errors"
)

var (
	tickerMax      = strconv.Itoa(models.MaxTickerLength)
	descriptionMax = strconv.Itoa(models.MaxDescriptionLength)
)

// SecurityRequest is the body of POST /securities and PUT /security/{id}.
// On PUT, Version is the version the client last read; it defaults to 1.
type SecurityRequest struct {
	Ticker         string `json:"ticker"`
	Description    string `json:"description"`
	SecurityTypeID string `json:"securityTypeId"`
	Version        *int   `json:"version,omitempty"`

	typeID id.SecurityTypeID
}

// Validate checks field limits and parses the type reference.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *SecurityRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if !govalidator.StringLength(r.Ticker, "1", tickerMax) {
		return dErrors.New(dErrors.CodeUnprocessable, "ticker must be between 1 and "+tickerMax+" characters")
	}
	if !govalidator.StringLength(r.Description, "1", descriptionMax) {
		return dErrors.New(dErrors.CodeUnprocessable, "description must be between 1 and "+descriptionMax+" characters")
	}
	if r.SecurityTypeID == "" {
		return dErrors.New(dErrors.CodeUnprocessable, "securityTypeId is required")
	}
	if r.Version != nil && *r.Version < models.InitialVersion {
		return dErrors.New(dErrors.CodeUnprocessable, "version must be at least 1")
	}
	// an id that cannot parse cannot resolve either
	typeID, err := id.ParseSecurityTypeID(r.SecurityTypeID)
	if err != nil {
		return dErrors.New(dErrors.CodeInvalidReference, "Invalid securityTypeId")
	}
	r.typeID = typeID
	return nil
}

// ExpectedVersion returns the supplied version or 1 when omitted.
func (r *SecurityRequest) ExpectedVersion() int {
	if r.Version == nil {
		return models.InitialVersion
	}
	return *r.Version
}

func (r *SecurityRequest) toCreateCommand() service.CreateCommand {
	return service.CreateCommand{
		Ticker:         r.Ticker,
		Description:    r.Description,
		SecurityTypeID: r.typeID,
	}
}

func (r *SecurityRequest) toUpdateCommand() service.UpdateCommand {
	return service.UpdateCommand{
		Ticker:         r.Ticker,
		Description:    r.Description,
		SecurityTypeID: r.typeID,
		Version:        r.ExpectedVersion(),
	}
}
