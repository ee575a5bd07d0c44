package customers_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dylan-buck/UAF-Auto/pkg/customers"
	"github.com/dylan-buck/UAF-Auto/pkg/matching"
	"github.com/dylan-buck/UAF-Auto/pkg/models"
	"github.com/dylan-buck/UAF-Auto/pkg/sage"
	"github.com/dylan-buck/UAF-Auto/pkg/sage/sagetest"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

// fixtureDriver returns a driver loaded with two customers: Acme with two
// ship-to addresses (MAIN is the default) and Riverside with none.
func fixtureDriver() *sagetest.Driver {
	d := sagetest.NewDriver()
	d.Customers = []sagetest.Record{
		{
			"ARDivisionNo$":   "01",
			"CustomerNo$":     "ACME01",
			"CustomerName$":   "ACME MANUFACTURING",
			"CustomerStatus$": "A",
			"AddressLine1$":   "500 Corporate Pkwy",
			"City$":           "Raleigh",
			"State$":          "NC",
			"ZipCode$":        "27601",
			"TelephoneNo$":    "(555) 123-4567",
			"ShipToCode$":     "MAIN",
			"TermsCode$":      "30",
		},
		{
			"ARDivisionNo$": "02",
			"CustomerNo$":   "RIVER1",
			"CustomerName$": "RIVERSIDE SUPPLY",
			"City$":         "Durham",
			"State$":        "NC",
			"TelephoneNo$":  "919-555-0199",
		},
	}
	d.ShipTos = []sagetest.Record{
		{
			"ARDivisionNo$":   "01",
			"CustomerNo$":     "ACME01",
			"ShipToCode$":     "MAIN",
			"ShipToName$":     "Acme Raleigh Warehouse",
			"ShipToAddress1$": "123 Main St",
			"ShipToCity$":     "Raleigh",
			"ShipToState$":    "NC",
			"ShipToZipCode$":  "27601",
			"WarehouseCode$":  "001",
			"ShipVia$":        "UPS GROUND",
		},
		{
			"ARDivisionNo$":   "01",
			"CustomerNo$":     "ACME01",
			"ShipToCode$":     "BR1",
			"ShipToName$":     "Acme Charlotte Warehouse",
			"ShipToAddress1$": "900 Trade St",
			"ShipToCity$":     "Charlotte",
			"ShipToState$":    "NC",
			"ShipToZipCode$":  "28202",
			"WarehouseCode$":  "002",
			"ShipVia$":        "UPS GROUND",
		},
	}
	return d
}

func newService(t *testing.T, driver *sagetest.Driver) (*customers.Service, *sage.Pool) {
	t.Helper()
	pool := sage.NewPool(sage.PoolConfig{
		ServerPath:     `C:\Sage\MAS90\Home`,
		Company:        "ABC",
		Username:       "api",
		Password:       "secret",
		Module:         "S/O",
		Size:           1,
		AcquireTimeout: time.Second,
	}, driver, testLogger())
	t.Cleanup(pool.Close)
	svc := customers.NewService(pool, matching.NewScorer(), customers.Config{}, testLogger())
	return svc, pool
}

func TestSearchByName(t *testing.T) {
	svc, _ := newService(t, fixtureDriver())

	resp, err := svc.Search(context.Background(), &models.CustomerSearchRequest{Name: "Acme Manufacturing"})
	require.NoError(t, err)
	require.Len(t, resp.Customers, 1)
	assert.Equal(t, "01-ACME01", resp.Customers[0].CustomerNumber)
	assert.Equal(t, "ACME MANUFACTURING", resp.Customers[0].Name)
	assert.Equal(t, 1, resp.TotalCount)
}

func TestSearchByNameToleratesTypos(t *testing.T) {
	svc, _ := newService(t, fixtureDriver())

	// Single-character OCR substitution
	resp, err := svc.Search(context.Background(), &models.CustomerSearchRequest{Name: "Acme Manufocturing"})
	require.NoError(t, err)
	require.Len(t, resp.Customers, 1)
	assert.Equal(t, "01-ACME01", resp.Customers[0].CustomerNumber)
}

func TestSearchByCityAndState(t *testing.T) {
	svc, _ := newService(t, fixtureDriver())

	resp, err := svc.Search(context.Background(), &models.CustomerSearchRequest{City: "durham", State: "nc"})
	require.NoError(t, err)
	require.Len(t, resp.Customers, 1)
	assert.Equal(t, "RIVERSIDE SUPPLY", resp.Customers[0].Name)
}

func TestSearchByPhone(t *testing.T) {
	svc, _ := newService(t, fixtureDriver())

	resp, err := svc.Search(context.Background(), &models.CustomerSearchRequest{Phone: "555-123-4567"})
	require.NoError(t, err)
	require.Len(t, resp.Customers, 1)
	assert.Equal(t, "01-ACME01", resp.Customers[0].CustomerNumber)
}

func TestSearchNoCriteriaReturnsUpToLimit(t *testing.T) {
	svc, _ := newService(t, fixtureDriver())

	resp, err := svc.Search(context.Background(), &models.CustomerSearchRequest{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, resp.Customers, 1)
}

func TestSearchEmptyDatabase(t *testing.T) {
	svc, _ := newService(t, sagetest.NewDriver())

	resp, err := svc.Search(context.Background(), &models.CustomerSearchRequest{Name: "Acme"})
	require.NoError(t, err)
	assert.Empty(t, resp.Customers)
	assert.Equal(t, 0, resp.TotalCount)
}

func TestGetReturnsCustomerWithShipTos(t *testing.T) {
	svc, _ := newService(t, fixtureDriver())

	customer, err := svc.Get(context.Background(), "01-ACME01")
	require.NoError(t, err)
	assert.Equal(t, "ACME MANUFACTURING", customer.Name)
	assert.Equal(t, "01", customer.DivisionNo)
	assert.Equal(t, "ACME01", customer.CustomerNo)
	require.Len(t, customer.ShipToAddresses, 2)

	def := customer.DefaultShipTo()
	require.NotNil(t, def)
	assert.Equal(t, "MAIN", def.Code)
	assert.True(t, def.IsDefault)
	assert.Equal(t, "001", def.WarehouseCode)
}

func TestGetBareCustomerNumberDefaultsDivision(t *testing.T) {
	svc, _ := newService(t, fixtureDriver())

	customer, err := svc.Get(context.Background(), "ACME01")
	require.NoError(t, err)
	assert.Equal(t, "01-ACME01", customer.CustomerNumber)
}

func TestGetNotFound(t *testing.T) {
	svc, _ := newService(t, fixtureDriver())

	_, err := svc.Get(context.Background(), "01-NOPE")
	require.Error(t, err)
	assert.True(t, httperror.IsHTTPError(err))
	assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))
}

func TestValidateShipToMatch(t *testing.T) {
	svc, _ := newService(t, fixtureDriver())

	resp, err := svc.ValidateShipTo(context.Background(), "01-ACME01", &models.ValidateShipToRequest{
		Address: models.Address{
			Address1: "123 Main Street",
			City:     "Raleigh",
			State:    "NC",
			ZipCode:  "27601-1234",
		},
	})
	require.NoError(t, err)
	assert.True(t, resp.Matched)
	assert.True(t, resp.IsDefaultShipTo)
	assert.Equal(t, "MAIN", resp.MatchedShipToCode)
	assert.Equal(t, "001", resp.WarehouseCode)
	assert.Equal(t, "UPS GROUND", resp.ShipVia)
	assert.InDelta(t, 1.0, resp.MatchConfidence, 0.001)
	assert.Empty(t, resp.Differences)
}

func TestValidateShipToMismatchReportsDifferences(t *testing.T) {
	svc, _ := newService(t, fixtureDriver())

	resp, err := svc.ValidateShipTo(context.Background(), "01-ACME01", &models.ValidateShipToRequest{
		Address: models.Address{
			Address1: "123 Main St",
			City:     "Greensboro",
			State:    "NC",
			ZipCode:  "27401",
		},
	})
	require.NoError(t, err)
	assert.False(t, resp.Matched)
	assert.Equal(t, "MAIN", resp.MatchedShipToCode)
	assert.NotEmpty(t, resp.Differences)
}

func TestValidateShipToUnknownCustomer(t *testing.T) {
	svc, _ := newService(t, fixtureDriver())

	resp, err := svc.ValidateShipTo(context.Background(), "01-NOPE", &models.ValidateShipToRequest{
		Address: models.Address{City: "Raleigh"},
	})
	require.NoError(t, err)
	assert.False(t, resp.Matched)
	assert.Equal(t, []string{"Customer not found"}, resp.Differences)
}

func TestValidateShipToCustomerWithoutShipTos(t *testing.T) {
	svc, _ := newService(t, fixtureDriver())

	resp, err := svc.ValidateShipTo(context.Background(), "02-RIVER1", &models.ValidateShipToRequest{
		Address: models.Address{City: "Durham"},
	})
	require.NoError(t, err)
	assert.False(t, resp.Matched)
	assert.Equal(t, []string{"No ship-to addresses found for customer"}, resp.Differences)
}

func TestSplitCustomerNumber(t *testing.T) {
	div, no := customers.SplitCustomerNumber("02-RIVER1")
	assert.Equal(t, "02", div)
	assert.Equal(t, "RIVER1", no)

	div, no = customers.SplitCustomerNumber("ACME01")
	assert.Equal(t, "01", div)
	assert.Equal(t, "ACME01", no)
}
