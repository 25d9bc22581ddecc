package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runWithKey(t *testing.T, configured, provided string) error {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/themes", nil)
	if provided != "" {
		req.Header.Set("X-API-Key", provided)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := APIKey(configured)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	return handler(c)
}

func TestAPIKey_DisabledWhenUnconfigured(t *testing.T) {
	assert.NoError(t, runWithKey(t, "", ""))
}

func TestAPIKey_MatchingKeyPasses(t *testing.T) {
	assert.NoError(t, runWithKey(t, "secret", "secret"))
}

func TestAPIKey_MissingKeyRejected(t *testing.T) {
	err := runWithKey(t, "secret", "")
	require.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestAPIKey_WrongKeyRejected(t *testing.T) {
	err := runWithKey(t, "secret", "wrong")
	require.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}
