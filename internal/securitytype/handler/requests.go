package handler

import (
	"github.com/asaskevich/govalidator"

	"securitysvc/internal/securitytype/models"
	"securitysvc/internal/securitytype/service"
	dErrors "securitysvc/pkg/domain-errors"
)

var (
	abbreviationMax = itoa(models.MaxAbbreviationLength)
	descriptionMax  = itoa(models.MaxDescriptionLength)
)

// SecurityTypeRequest is the body of POST /securityTypes and PUT /securityType/{id}.
// On PUT, Version is the version the client last read; it defaults to 1.
type SecurityTypeRequest struct {
	Abbreviation string `json:"abbreviation"`
	Description  string `json:"description"`
	Version      *int   `json:"version,omitempty"`
}

// Validate checks field limits.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *SecurityTypeRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if !govalidator.StringLength(r.Abbreviation, "1", abbreviationMax) {
		return dErrors.New(dErrors.CodeUnprocessable, "abbreviation must be between 1 and "+abbreviationMax+" characters")
	}
	if !govalidator.StringLength(r.Description, "1", descriptionMax) {
		return dErrors.New(dErrors.CodeUnprocessable, "description must be between 1 and "+descriptionMax+" characters")
	}
	if r.Version != nil && *r.Version < models.InitialVersion {
		return dErrors.New(dErrors.CodeUnprocessable, "version must be at least 1")
	}
	return nil
}

// ExpectedVersion returns the supplied version or 1 when omitted.
func (r *SecurityTypeRequest) ExpectedVersion() int {
	if r.Version == nil {
		return models.InitialVersion
	}
	return *r.Version
}

func (r *SecurityTypeRequest) toCreateCommand() service.CreateCommand {
	return service.CreateCommand{Abbreviation: r.Abbreviation, Description: r.Description}
}

func (r *SecurityTypeRequest) toUpdateCommand() service.UpdateCommand {
	return service.UpdateCommand{
		Abbreviation: r.Abbreviation,
		Description:  r.Description,
		Version:      r.ExpectedVersion(),
	}
}
