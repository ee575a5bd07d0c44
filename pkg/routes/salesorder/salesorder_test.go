package salesorder_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dylan-buck/UAF-Auto/pkg/middleware"
	"github.com/dylan-buck/UAF-Auto/pkg/models"
	"github.com/dylan-buck/UAF-Auto/pkg/orders"
	"github.com/dylan-buck/UAF-Auto/pkg/routes/salesorder"
	"github.com/dylan-buck/UAF-Auto/pkg/sage"
	"github.com/dylan-buck/UAF-Auto/pkg/sage/sagetest"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func newTestServer(t *testing.T, driver *sagetest.Driver) (*echo.Echo, *sage.Pool) {
	t.Helper()

	pool := sage.NewPool(sage.PoolConfig{Size: 1, AcquireTimeout: 50 * time.Millisecond}, driver, testLogger())
	t.Cleanup(pool.Close)

	e := echo.New()
	e.HTTPErrorHandler = middleware.Error(testLogger())
	salesorder.NewHandler(orders.NewService(pool, testLogger()), nil).RegisterRoutes(e)
	return e, pool
}

const orderBody = `{
	"customer_number": "01-ACME01",
	"po_number": "PO-9912",
	"lines": [{"item_code": "WIDGET-10", "quantity": 5}]
}`

func TestCreateEndpoint(t *testing.T) {
	driver := sagetest.NewDriver()
	e, _ := newTestServer(t, driver)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(orderBody))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp models.SalesOrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.SalesOrderNumber)
	assert.Len(t, driver.Orders, 1)
}

func TestCreateEndpointWriteFailure(t *testing.T) {
	driver := sagetest.NewDriver()
	driver.FailOrderWrite = "CI_NOF: Customer not on file"
	e, _ := newTestServer(t, driver)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(orderBody))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	// Business failures still answer 200 with the error in the body
	require.Equal(t, http.StatusOK, rec.Code)
	var resp models.SalesOrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, models.OrderErrorWrite, resp.ErrorCode)
}

func TestCreateEndpointPoolExhausted(t *testing.T) {
	driver := sagetest.NewDriver()
	e, pool := newTestServer(t, driver)

	h, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	defer pool.Release(h)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(orderBody))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var resp models.SalesOrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, models.OrderErrorBusy, resp.ErrorCode)
}

func TestCreateEndpointValidation(t *testing.T) {
	e, _ := newTestServer(t, sagetest.NewDriver())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(`{"po_number": "PO-1"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQueueEndpointsDisabledWithoutStore(t *testing.T) {
	e, _ := newTestServer(t, sagetest.NewDriver())

	for _, tc := range []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodPost, "/api/v1/orders/queue", orderBody},
		{http.MethodGet, "/api/v1/orders/queue/stats", ""},
		{http.MethodGet, "/api/v1/orders/queue/job-123", ""},
	} {
		req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, "%s %s", tc.method, tc.path)
	}
}
