package handler

import (
	"net/http"

	"securitysvc/pkg/platform/httputil"
	"securitysvc/pkg/requestcontext"
)

// HandleSearch handles GET /api/v2/securities.
//
// Query parameters:
//   - ticker: exact ticker, case-insensitive
//   - ticker_like: ticker substring, case-insensitive (exclusive with ticker)
//   - limit: page size, 1-1000, default 50
//   - offset: documents to skip, default 0
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q, err := parseSearchQuery(r)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid search parameters",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	result, err := h.service.Search(ctx, q)
	if err != nil {
		h.fail(ctx, w, "search securities failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromSearchResult(result))
}
