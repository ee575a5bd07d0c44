package health_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dylan-buck/UAF-Auto/pkg/routes/health"
	"github.com/dylan-buck/UAF-Auto/pkg/sage"
	"github.com/dylan-buck/UAF-Auto/pkg/sage/sagetest"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func newTestServer(t *testing.T, driver *sagetest.Driver) (*echo.Echo, *health.Checker) {
	t.Helper()

	pool := sage.NewPool(sage.PoolConfig{Size: 1, AcquireTimeout: 100 * time.Millisecond}, driver, testLogger())
	t.Cleanup(pool.Close)

	checker := health.NewChecker(pool, nil, "test")
	e := echo.New()
	checker.RegisterRoutes(e)
	return e, checker
}

func TestLive(t *testing.T) {
	e, _ := newTestServer(t, sagetest.NewDriver())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health/live", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyFollowsSetReady(t *testing.T) {
	e, checker := newTestServer(t, sagetest.NewDriver())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health/ready", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	checker.SetReady(true)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthReportsPoolState(t *testing.T) {
	e, _ := newTestServer(t, sagetest.NewDriver())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var status health.HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "healthy", status.Status)
	require.Contains(t, status.Checks, "sage")
	assert.Equal(t, "healthy", status.Checks["sage"].Status)
	assert.Equal(t, 1, status.Checks["sage"].Capacity)
}

func TestHealthUnhealthyWhenHostDown(t *testing.T) {
	driver := sagetest.NewDriver()
	driver.FailOpen = true
	e, _ := newTestServer(t, driver)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var status health.HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "unhealthy", status.Status)
	assert.Equal(t, "unhealthy", status.Checks["sage"].Status)
}
