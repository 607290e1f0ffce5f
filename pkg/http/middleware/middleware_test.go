package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	applogger "CreditScore/pkg/logger"
)

func newEcho(mw ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	e.Use(mw...)
	e.GET("/api/items/:id", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/panic", func(c echo.Context) error {
		panic("boom")
	})
	return e
}

func TestCORSAllowedOrigin(t *testing.T) {
	e := newEcho(CORS(CORSConfig{
		AllowOrigins: []string{"https://dash.example.com"},
		AllowMethods: []string{http.MethodGet},
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/items/1", nil)
	req.Header.Set(echo.HeaderOrigin, "https://dash.example.com")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://dash.example.com", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}

func TestCORSRejectedOriginGetsNoHeaders(t *testing.T) {
	e := newEcho(CORS(CORSConfig{AllowOrigins: []string{"https://dash.example.com"}}))

	req := httptest.NewRequest(http.MethodGet, "/api/items/1", nil)
	req.Header.Set(echo.HeaderOrigin, "https://evil.example.com")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}

func TestCORSPreflight(t *testing.T) {
	e := newEcho(CORS(CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{echo.HeaderContentType},
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/items/1", nil)
	req.Header.Set(echo.HeaderOrigin, "https://any.example.com")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Equal(t, "GET, POST", rec.Header().Get(echo.HeaderAccessControlAllowMethods))
	assert.Equal(t, "600", rec.Header().Get(echo.HeaderAccessControlMaxAge))
}

func TestRecoverReturns500(t *testing.T) {
	e := newEcho(Recover(applogger.Nop()))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRouteLabelUsesTemplate(t *testing.T) {
	e := echo.New()
	var label string
	e.GET("/api/items/:id", func(c echo.Context) error {
		label = routeLabel(c)
		return nil
	})
	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/items/42", nil))
	assert.Equal(t, "/api/items/:id", label)
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", statusClass(204))
	assert.Equal(t, "4xx", statusClass(429))
	assert.Equal(t, "5xx", statusClass(503))
}
