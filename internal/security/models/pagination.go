package models

// Pagination describes where a page sits in the full result set.
type Pagination struct {
	TotalElements int
	TotalPages    int
	CurrentPage   int
	PageSize      int
	HasNext       bool
	HasPrevious   bool
}

// NewPagination derives page metadata from the matching total and the requested
// window. limit must be at least 1.
func NewPagination(total, limit, offset int) Pagination {
	totalPages := 0
	if total > 0 {
		totalPages = (total-1)/limit + 1
	}
	return Pagination{
		TotalElements: total,
		TotalPages:    totalPages,
		CurrentPage:   offset / limit,
		PageSize:      limit,
		HasNext:       offset < total-limit,
		HasPrevious:   offset > 0,
	}
}

// SearchResult is one page of securities with their types resolved.
type SearchResult struct {
	Securities []*SecurityDetails
	Pagination Pagination
}
