package handler

import (
	"securitysvc/internal/security/models"
)

// SecurityTypeSummary is the security type embedded in a v1 security view.
type SecurityTypeSummary struct {
	SecurityTypeID string `json:"securityTypeId"`
	Abbreviation   string `json:"abbreviation"`
	Description    string `json:"description"`
}

// SecurityResponse is the v1 JSON view of a security.
type SecurityResponse struct {
	SecurityID     string              `json:"securityId"`
	Ticker         string              `json:"ticker"`
	Description    string              `json:"description"`
	SecurityTypeID string              `json:"securityTypeId"`
	Version        int                 `json:"version"`
	SecurityType   SecurityTypeSummary `json:"securityType"`
}

// SecurityTypeDetail is the security type embedded in a v2 security view; it
// carries the type's version.
type SecurityTypeDetail struct {
	SecurityTypeID string `json:"securityTypeId"`
	Abbreviation   string `json:"abbreviation"`
	Description    string `json:"description"`
	Version        int    `json:"version"`
}

// SecurityV2Response is the v2 JSON view of a security.
type SecurityV2Response struct {
	SecurityID     string             `json:"securityId"`
	Ticker         string             `json:"ticker"`
	Description    string             `json:"description"`
	SecurityTypeID string             `json:"securityTypeId"`
	Version        int                `json:"version"`
	SecurityType   SecurityTypeDetail `json:"securityType"`
}

type PaginationResponse struct {
	TotalElements int  `json:"totalElements"`
	TotalPages    int  `json:"totalPages"`
	CurrentPage   int  `json:"currentPage"`
	PageSize      int  `json:"pageSize"`
	HasNext       bool `json:"hasNext"`
	HasPrevious   bool `json:"hasPrevious"`
}

// SearchResponse is the body of GET /api/v2/securities.
type SearchResponse struct {
	Securities []SecurityV2Response `json:"securities"`
	Pagination PaginationResponse   `json:"pagination"`
}

func FromSecurityDetails(d *models.SecurityDetails) SecurityResponse {
	return SecurityResponse{
		SecurityID:     d.Security.ID.String(),
		Ticker:         d.Security.Ticker,
		Description:    d.Security.Description,
		SecurityTypeID: d.Security.SecurityTypeID.String(),
		Version:        d.Security.Version,
		SecurityType: SecurityTypeSummary{
			SecurityTypeID: d.Type.ID.String(),
			Abbreviation:   d.Type.Abbreviation,
			Description:    d.Type.Description,
		},
	}
}

func fromSecurityDetailsList(details []*models.SecurityDetails) []SecurityResponse {
	out := make([]SecurityResponse, 0, len(details))
	for _, d := range details {
		out = append(out, FromSecurityDetails(d))
	}
	return out
}

func fromSearchResult(result *models.SearchResult) SearchResponse {
	securities := make([]SecurityV2Response, 0, len(result.Securities))
	for _, d := range result.Securities {
		securities = append(securities, SecurityV2Response{
			SecurityID:     d.Security.ID.String(),
			Ticker:         d.Security.Ticker,
			Description:    d.Security.Description,
			SecurityTypeID: d.Security.SecurityTypeID.String(),
			Version:        d.Security.Version,
			SecurityType: SecurityTypeDetail{
				SecurityTypeID: d.Type.ID.String(),
				Abbreviation:   d.Type.Abbreviation,
				Description:    d.Type.Description,
				Version:        d.Type.Version,
			},
		})
	}
	p := result.Pagination
	return SearchResponse{
		Securities: securities,
		Pagination: PaginationResponse{
			TotalElements: p.TotalElements,
			TotalPages:    p.TotalPages,
			CurrentPage:   p.CurrentPage,
			PageSize:      p.PageSize,
			HasNext:       p.HasNext,
			HasPrevious:   p.HasPrevious,
		},
	}
}
