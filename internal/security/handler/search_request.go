package handler

import (
	"net/http"

	"github.com/asaskevich/govalidator"

	"securitysvc/internal/security/models"
	dErrors "securitysvc/pkg/domain-errors"
	"securitysvc/pkg/platform/httputil"
)

// Search window bounds.
const (
	DefaultLimit = 50
	MaxLimit     = 1000
)

const tickerPattern = `^[A-Za-z0-9.-]{1,50}$`

// parseSearchQuery reads ticker, ticker_like, limit and offset from the query
// string. Window errors are unprocessable; filter errors are validation errors.
func parseSearchQuery(r *http.Request) (models.SearchQuery, error) {
	limit, err := httputil.IntQuery(r, "limit", DefaultLimit)
	if err != nil {
		return models.SearchQuery{}, err
	}
	if limit < 1 || limit > MaxLimit {
		return models.SearchQuery{}, dErrors.New(dErrors.CodeUnprocessable, "limit must be between 1 and 1000")
	}
	offset, err := httputil.IntQuery(r, "offset", 0)
	if err != nil {
		return models.SearchQuery{}, err
	}
	if offset < 0 {
		return models.SearchQuery{}, dErrors.New(dErrors.CodeUnprocessable, "offset must not be negative")
	}

	q := r.URL.Query()
	hasExact, hasLike := q.Has("ticker"), q.Has("ticker_like")
	for _, name := range []string{"ticker", "ticker_like"} {
		if q.Has(name) && !govalidator.Matches(q.Get(name), tickerPattern) {
			return models.SearchQuery{}, dErrors.New(dErrors.CodeValidation,
				"Ticker must be 1-50 characters and contain only alphanumeric characters, dots, and hyphens")
		}
	}
	if hasExact && hasLike {
		return models.SearchQuery{}, dErrors.New(dErrors.CodeValidation,
			"Only one of 'ticker' or 'ticker_like' parameters can be provided")
	}

	filter := models.AllTickers()
	switch {
	case hasExact:
		filter = models.ExactTicker(q.Get("ticker"))
	case hasLike:
		filter = models.TickerContains(q.Get("ticker_like"))
	}
	return models.SearchQuery{Filter: filter, Limit: limit, Offset: offset}, nil
}
