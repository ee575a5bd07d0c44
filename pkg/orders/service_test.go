package orders_test

import (
	"context"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dylan-buck/UAF-Auto/pkg/models"
	"github.com/dylan-buck/UAF-Auto/pkg/orders"
	"github.com/dylan-buck/UAF-Auto/pkg/sage"
	"github.com/dylan-buck/UAF-Auto/pkg/sage/sagetest"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func newOrderService(t *testing.T, driver *sagetest.Driver, poolSize int, timeout time.Duration) (*orders.Service, *sage.Pool) {
	t.Helper()
	pool := sage.NewPool(sage.PoolConfig{
		ServerPath:     `C:\Sage\MAS90\Home`,
		Company:        "ABC",
		Username:       "api",
		Password:       "secret",
		Module:         "S/O",
		Size:           poolSize,
		AcquireTimeout: timeout,
	}, driver, testLogger())
	t.Cleanup(pool.Close)
	return orders.NewService(pool, testLogger()), pool
}

func orderRequest() *models.SalesOrderRequest {
	price := 19.99
	return &models.SalesOrderRequest{
		CustomerNumber: "01-ACME01",
		PONumber:       "PO-9912",
		OrderDate:      "20260115",
		Comment:        "Rush order",
		ShipToAddress: &models.Address{
			Name:     "Acme Raleigh Warehouse",
			Address1: "123 Main St",
			City:     "Raleigh",
			State:    "NC",
			ZipCode:  "27601",
		},
		Lines: []models.SalesOrderLine{
			{ItemCode: "WIDGET-10", Quantity: 5, UnitPrice: &price, WarehouseCode: "001"},
			{ItemCode: "GADGET-22", Quantity: 2},
		},
	}
}

func TestCreateOrder(t *testing.T) {
	driver := sagetest.NewDriver()
	svc, _ := newOrderService(t, driver, 1, time.Second)

	resp, err := svc.Create(context.Background(), orderRequest())
	require.NoError(t, err)
	require.True(t, resp.Success)
	assert.NotEmpty(t, resp.SalesOrderNumber)
	assert.Contains(t, resp.Message, resp.SalesOrderNumber)
	assert.Empty(t, resp.LineWarnings)

	require.Len(t, driver.Orders, 1)
	order := driver.Orders[0]
	assert.Equal(t, resp.SalesOrderNumber, order.Number)
	assert.Equal(t, "01", order.Header["ARDivisionNo$"])
	assert.Equal(t, "ACME01", order.Header["CustomerNo$"])
	assert.Equal(t, "PO-9912", order.Header["CustomerPONo$"])
	assert.Equal(t, "20260115", order.Header["OrderDate$"])
	assert.Equal(t, "Rush order", order.Header["Comment$"])
	assert.Equal(t, "Acme Raleigh Warehouse", order.Header["ShipToName$"])
	assert.Equal(t, "Raleigh", order.Header["ShipToCity$"])

	require.Len(t, order.Lines, 2)
	assert.Equal(t, "WIDGET-10", order.Lines[0]["ItemCode$"])
	assert.Equal(t, "001", order.Lines[0]["WarehouseCode$"])
	assert.Equal(t, "5", order.Lines[0]["QuantityOrdered"])
	assert.Equal(t, "19.99", order.Lines[0]["UnitPrice"])
	// A line without a warehouse falls back to the default
	assert.Equal(t, "000", order.Lines[1]["WarehouseCode$"])
}

func TestCreateOrderDefaultsOrderDate(t *testing.T) {
	driver := sagetest.NewDriver()
	svc, _ := newOrderService(t, driver, 1, time.Second)

	req := orderRequest()
	req.OrderDate = ""
	resp, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	require.True(t, resp.Success)

	require.Len(t, driver.Orders, 1)
	assert.Equal(t, time.Now().Format("20060102"), driver.Orders[0].Header["OrderDate$"])
}

func TestCreateOrderBareCustomerNumber(t *testing.T) {
	driver := sagetest.NewDriver()
	svc, _ := newOrderService(t, driver, 1, time.Second)

	req := orderRequest()
	req.CustomerNumber = "ACME01"
	req.DivisionNo = "05"
	resp, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	require.True(t, resp.Success)

	require.Len(t, driver.Orders, 1)
	assert.Equal(t, "05", driver.Orders[0].Header["ARDivisionNo$"])
	assert.Equal(t, "ACME01", driver.Orders[0].Header["CustomerNo$"])
}

func TestCreateOrderWriteFailure(t *testing.T) {
	driver := sagetest.NewDriver()
	driver.FailOrderWrite = "CI_NOF: Customer not on file"
	svc, _ := newOrderService(t, driver, 1, time.Second)

	resp, err := svc.Create(context.Background(), orderRequest())
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, models.OrderErrorWrite, resp.ErrorCode)
	assert.Contains(t, resp.ErrorMessage, "Customer not on file")
	assert.Empty(t, driver.Orders)
}

func TestCreateOrderLineWarningsDoNotFailOrder(t *testing.T) {
	driver := sagetest.NewDriver()
	svc, _ := newOrderService(t, driver, 1, time.Second)

	req := orderRequest()
	// The fake rejects blank string fields, producing a line warning
	req.Lines[0].ItemCode = ""
	resp, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.LineWarnings)
	assert.Len(t, driver.Orders, 1)
}

func TestCreateOrderObjectFailureInvalidatesSession(t *testing.T) {
	driver := sagetest.NewDriver()
	svc, pool := newOrderService(t, driver, 1, time.Second)

	// Warm the pool, then break object creation
	resp, err := svc.Create(context.Background(), orderRequest())
	require.NoError(t, err)
	require.True(t, resp.Success)

	driver.FailNewObject = true
	resp, err = svc.Create(context.Background(), orderRequest())
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, models.OrderErrorSession, resp.ErrorCode)

	// The corrupted session was invalidated rather than returned
	avail, active := pool.Counts()
	assert.Equal(t, 0, avail)
	assert.Equal(t, 0, active)
}

func TestCreateOrderPoolBusy(t *testing.T) {
	driver := sagetest.NewDriver()
	svc, pool := newOrderService(t, driver, 1, 50*time.Millisecond)

	h, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	defer pool.Release(h)

	resp, err := svc.Create(context.Background(), orderRequest())
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, models.OrderErrorBusy, resp.ErrorCode)
	assert.Contains(t, resp.ErrorMessage, "busy")
}
