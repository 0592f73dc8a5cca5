package models

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "securitysvc/pkg/domain"
	dErrors "securitysvc/pkg/domain-errors"
)

func TestNewSecurity(t *testing.T) {
	typeID := id.NewSecurityTypeID()

	t.Run("starts at version 1", func(t *testing.T) {
		s, err := NewSecurity(id.NewSecurityID(), "AAPL", "Apple Inc.", typeID)
		require.NoError(t, err)
		assert.Equal(t, 1, s.Version)
		assert.Equal(t, typeID, s.SecurityTypeID)
	})

	t.Run("rejects out of range fields", func(t *testing.T) {
		_, err := NewSecurity(id.NewSecurityID(), "", "Apple", typeID)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
		_, err = NewSecurity(id.NewSecurityID(), strings.Repeat("T", 51), "Apple", typeID)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
		_, err = NewSecurity(id.NewSecurityID(), "AAPL", strings.Repeat("d", 201), typeID)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("with changes keeps id and version", func(t *testing.T) {
		s, err := NewSecurity(id.NewSecurityID(), "AAPL", "Apple", typeID)
		require.NoError(t, err)
		other := id.NewSecurityTypeID()
		next, err := s.WithChanges("AAPL.PF", "Apple preferred", other)
		require.NoError(t, err)
		assert.Equal(t, s.ID, next.ID)
		assert.Equal(t, s.Version, next.Version)
		assert.Equal(t, other, next.SecurityTypeID)
		assert.Equal(t, "AAPL", s.Ticker)
	})
}

func TestTickerFilter(t *testing.T) {
	tests := []struct {
		name   string
		filter TickerFilter
		ticker string
		want   bool
	}{
		{"all matches anything", AllTickers(), "AAPL", true},
		{"exact ignores case", ExactTicker("aapl"), "AAPL", true},
		{"exact is a full match", ExactTicker("AAP"), "AAPL", false},
		{"contains ignores case", TickerContains("app"), "APP.TO", true},
		{"contains treats dot literally", TickerContains("L.P"), "AAPL.PF", true},
		{"dot is not a wildcard", TickerContains("L.P"), "AAPLXPF", false},
		{"contains misses", TickerContains("APP"), "AMZN", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(tt.ticker))
		})
	}
}

func TestSearchQuery_Validate(t *testing.T) {
	assert.NoError(t, SearchQuery{Limit: 1}.Validate())
	assert.True(t, dErrors.HasCode(SearchQuery{Limit: 0}.Validate(), dErrors.CodeUnprocessable))
	assert.True(t, dErrors.HasCode(SearchQuery{Limit: 10, Offset: -1}.Validate(), dErrors.CodeUnprocessable))
}

func TestNewPagination(t *testing.T) {
	tests := []struct {
		total, limit, offset int
		want                 Pagination
	}{
		{8, 3, 0, Pagination{TotalElements: 8, TotalPages: 3, CurrentPage: 0, PageSize: 3, HasNext: true}},
		{8, 3, 3, Pagination{TotalElements: 8, TotalPages: 3, CurrentPage: 1, PageSize: 3, HasNext: true, HasPrevious: true}},
		{8, 3, 6, Pagination{TotalElements: 8, TotalPages: 3, CurrentPage: 2, PageSize: 3, HasPrevious: true}},
		{9, 3, 6, Pagination{TotalElements: 9, TotalPages: 3, CurrentPage: 2, PageSize: 3, HasPrevious: true}},
		{0, 50, 0, Pagination{PageSize: 50}},
		{5, 50, 100, Pagination{TotalElements: 5, TotalPages: 1, CurrentPage: 2, PageSize: 50, HasPrevious: true}},
		{5, 2, 1, Pagination{TotalElements: 5, TotalPages: 3, CurrentPage: 0, PageSize: 2, HasNext: true, HasPrevious: true}},
		{5, 50, math.MaxInt - 10, Pagination{TotalElements: 5, TotalPages: 1, CurrentPage: (math.MaxInt - 10) / 50, PageSize: 50, HasPrevious: true}},
		{5, math.MaxInt, 1, Pagination{TotalElements: 5, TotalPages: 1, CurrentPage: 0, PageSize: math.MaxInt, HasPrevious: true}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NewPagination(tt.total, tt.limit, tt.offset), "total=%d limit=%d offset=%d", tt.total, tt.limit, tt.offset)
	}
}
