package handler

import (
	"strconv"

	"securitysvc/internal/securitytype/models"
)

// SecurityTypeResponse is the JSON view of a security type.
type SecurityTypeResponse struct {
	SecurityTypeID string `json:"securityTypeId"`
	Abbreviation   string `json:"abbreviation"`
	Description    string `json:"description"`
	Version        int    `json:"version"`
}

// FromSecurityType converts a domain security type to its view.
func FromSecurityType(t *models.SecurityType) SecurityTypeResponse {
	return SecurityTypeResponse{
		SecurityTypeID: t.ID.String(),
		Abbreviation:   t.Abbreviation,
		Description:    t.Description,
		Version:        t.Version,
	}
}

func fromSecurityTypes(types []*models.SecurityType) []SecurityTypeResponse {
	out := make([]SecurityTypeResponse, 0, len(types))
	for _, t := range types {
		out = append(out, FromSecurityType(t))
	}
	return out
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
