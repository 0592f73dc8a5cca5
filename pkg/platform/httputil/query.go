package httputil

import (
	"net/http"
	"strconv"

	dErrors "securitysvc/pkg/domain-errors"
)

// RequiredIntQuery parses a mandatory integer query parameter. A missing or
// non-integer value is unprocessable.
func RequiredIntQuery(r *http.Request, name string) (int, error) {
	q := r.URL.Query()
	if !q.Has(name) {
		return 0, dErrors.New(dErrors.CodeUnprocessable, name+" query parameter is required")
	}
	return parseInt(q.Get(name), name)
}

// IntQuery parses an optional integer query parameter, returning def when absent.
func IntQuery(r *http.Request, name string, def int) (int, error) {
	q := r.URL.Query()
	if !q.Has(name) {
		return def, nil
	}
	return parseInt(q.Get(name), name)
}

func parseInt(raw, name string) (int, error) {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeUnprocessable, name+" must be an integer")
	}
	return v, nil
}
