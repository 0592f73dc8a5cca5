package httputil

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "securitysvc/pkg/domain-errors"
)

func TestRequiredIntQuery(t *testing.T) {
	req := func(target string) *http.Request { return httptest.NewRequest(http.MethodDelete, target, nil) }

	v, err := RequiredIntQuery(req("/x?version=3"), "version")
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	_, err = RequiredIntQuery(req("/x"), "version")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnprocessable))

	_, err = RequiredIntQuery(req("/x?version=abc"), "version")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnprocessable))
}

func TestIntQuery(t *testing.T) {
	v, err := IntQuery(httptest.NewRequest(http.MethodGet, "/x", nil), "limit", 50)
	require.NoError(t, err)
	assert.Equal(t, 50, v)

	v, err = IntQuery(httptest.NewRequest(http.MethodGet, "/x?limit=-4", nil), "limit", 50)
	require.NoError(t, err)
	assert.Equal(t, -4, v)

	_, err = IntQuery(httptest.NewRequest(http.MethodGet, "/x?limit=", nil), "limit", 50)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnprocessable))
}
