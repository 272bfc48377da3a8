package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront/internal/middleware"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newContext() (echo.Context, *httptest.ResponseRecorder, *observer.ObservedLogs) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	core, logs := observer.New(zap.InfoLevel)
	c.Set(middleware.CtxLoggerKey, zap.New(core))
	return c, rec, logs
}

func TestWriteError_UnknownErrorIsHidden(t *testing.T) {
	c, rec, logs := newContext()

	require.NoError(t, writeError(c, errors.New("pq: connection refused")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"internal error","code":"INTERNAL_ERROR"}`, rec.Body.String())
	assert.Equal(t, 1, logs.FilterMessage("unhandled error").Len())
}

func TestWriteError_RendersKindAndDetails(t *testing.T) {
	c, rec, logs := newContext()

	err := usecase.NewHTTPErrorWithDetails(usecase.KindConflict, "payment not completed", map[string]string{"payment_status": "unpaid"})
	require.NoError(t, writeError(c, err))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"payment not completed","code":"CONFLICT","details":{"payment_status":"unpaid"}}`, rec.Body.String())
	assert.Zero(t, logs.Len())
}

func TestNewSessionID(t *testing.T) {
	a, err := newSessionID()
	require.NoError(t, err)
	b, err := newSessionID()
	require.NoError(t, err)

	assert.True(t, middleware.ValidSessionID(a))
	assert.NotEqual(t, a, b)
}

func TestSessions_EnsureOnlyForAnonymous(t *testing.T) {
	s := Sessions{}

	c, rec, _ := newContext()
	userID := int64(5)
	c.Set(middleware.CtxUserIDKey, userID)
	id, err := s.ensure(c)
	require.NoError(t, err)
	assert.Equal(t, &userID, id.UserID)
	assert.Empty(t, id.SessionID)
	assert.Empty(t, rec.Header().Get("Set-Cookie"))

	c, rec, _ = newContext()
	id, err = s.ensure(c)
	require.NoError(t, err)
	assert.True(t, middleware.ValidSessionID(id.SessionID))
	assert.Equal(t, id.SessionID, middleware.SessionID(c))
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "cart_session="+id.SessionID)
}
