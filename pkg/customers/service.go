// Package customers reads AR customer data from the external system and
// resolves free-text purchase order parties to customer accounts.
package customers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/dylan-buck/UAF-Auto/pkg/matching"
	"github.com/dylan-buck/UAF-Auto/pkg/models"
	"github.com/dylan-buck/UAF-Auto/pkg/normalizers"
	"github.com/dylan-buck/UAF-Auto/pkg/sage"
)

const (
	customerObject = "AR_Customer_svc"
	shipToObject   = "SO_ShipToAddress_svc"

	defaultDivision    = "01"
	defaultSearchLimit = 10
)

// Config bounds the cursor scans. The external system has no query
// pushdown, so every read is a capped forward scan.
type Config struct {
	SearchScanLimit    int
	DetailScanLimit    int
	ShipToCollectLimit int
}

// Service reads customers and ship-to addresses through pooled sessions
type Service struct {
	pool   *sage.Pool
	scorer *matching.Scorer
	cfg    Config
	logger ectologger.Logger
}

func NewService(pool *sage.Pool, scorer *matching.Scorer, cfg Config, logger ectologger.Logger) *Service {
	if cfg.SearchScanLimit <= 0 {
		cfg.SearchScanLimit = 500
	}
	if cfg.DetailScanLimit <= 0 {
		cfg.DetailScanLimit = 1000
	}
	if cfg.ShipToCollectLimit <= 0 {
		cfg.ShipToCollectLimit = 30
	}
	return &Service{pool: pool, scorer: scorer, cfg: cfg, logger: logger}
}

// Search scans customer records against the supplied criteria. The scan is
// bounded, so on large databases a vague query can miss matches; callers
// get better results from more specific criteria.
func (s *Service) Search(ctx context.Context, req *models.CustomerSearchRequest) (*models.CustomerSearchResponse, error) {
	log := s.logger.WithContext(ctx).WithFields(map[string]any{
		"method": "Search",
		"name":   req.Name,
		"city":   req.City,
		"state":  req.State,
	})

	limit := req.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	resp := &models.CustomerSearchResponse{
		Customers:      []models.Customer{},
		SearchCriteria: buildSearchCriteria(req),
	}

	err := sage.WithSession(ctx, s.pool, func(h *sage.SessionHandle) error {
		obj, err := h.NewObject(customerObject)
		if err != nil {
			return sage.Corrupted(err)
		}
		defer obj.Release()

		if obj.MoveFirst() == 0 {
			log.Debug("No customer records to scan")
			return nil
		}

		scanned := 0
		for scanned < s.cfg.SearchScanLimit && len(resp.Customers) < limit {
			if err := ctx.Err(); err != nil {
				return err
			}
			scanned++

			if s.recordMatches(req, obj) {
				resp.Customers = append(resp.Customers, extractCustomer(obj))
			}
			if obj.MoveNext() == 0 {
				break
			}
		}

		if scanned >= s.cfg.SearchScanLimit && len(resp.Customers) < limit {
			log.WithField("scanned", scanned).Warn("Search scan limit reached before result limit")
		}
		return nil
	})
	if err != nil {
		log.WithError(err).Error("Customer search failed")
		return nil, err
	}

	resp.TotalCount = len(resp.Customers)
	log.WithField("found", resp.TotalCount).Info("Customer search completed")
	return resp, nil
}

// Get fetches one customer with its ship-to addresses. The customer number
// accepts both the combined "01-D3375" form and a bare customer number,
// which defaults to division 01.
func (s *Service) Get(ctx context.Context, customerNumber string) (*models.Customer, error) {
	division, customerNo := SplitCustomerNumber(customerNumber)
	log := s.logger.WithContext(ctx).WithFields(map[string]any{
		"method":      "Get",
		"division":    division,
		"customer_no": customerNo,
	})

	var customer *models.Customer
	err := sage.WithSession(ctx, s.pool, func(h *sage.SessionHandle) error {
		obj, err := h.NewObject(customerObject)
		if err != nil {
			return sage.Corrupted(err)
		}
		defer obj.Release()

		if obj.MoveFirst() == 0 {
			return nil
		}

		scanned := 0
		for scanned < s.cfg.DetailScanLimit {
			scanned++
			div := getField(obj, "ARDivisionNo$")
			cust := getField(obj, "CustomerNo$")
			if div == division && cust == customerNo {
				c := extractCustomer(obj)
				customer = &c
				break
			}
			if obj.MoveNext() == 0 {
				break
			}
		}
		if customer == nil {
			log.WithField("scanned", scanned).Warn("Customer not found in scan")
			return nil
		}

		customer.ShipToAddresses = s.collectShipTos(ctx, h, division, customerNo)
		markDefaultShipTo(customer)
		return nil
	})
	if err != nil {
		log.WithError(err).Error("Customer lookup failed")
		return nil, err
	}
	if customer == nil {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "customer %s not found", customerNumber)
	}
	return customer, nil
}

// ValidateShipTo compares a purchase order address against a customer's
// ship-to addresses and reports the best match with field differences
func (s *Service) ValidateShipTo(ctx context.Context, customerNumber string, req *models.ValidateShipToRequest) (*models.ValidateShipToResponse, error) {
	customer, err := s.Get(ctx, customerNumber)
	if err != nil {
		if httperror.IsHTTPError(err) && httperror.GetStatusCode(err) == http.StatusNotFound {
			return &models.ValidateShipToResponse{
				Differences: []string{"Customer not found"},
			}, nil
		}
		return nil, err
	}

	if len(customer.ShipToAddresses) == 0 {
		return &models.ValidateShipToResponse{
			Differences: []string{"No ship-to addresses found for customer"},
		}, nil
	}

	var best *models.ShipTo
	bestConfidence := 0.0
	var differences []string
	for i := range customer.ShipToAddresses {
		shipTo := &customer.ShipToAddresses[i]
		confidence, diffs := s.compareShipTo(&req.Address, shipTo)
		if confidence > bestConfidence || best == nil {
			bestConfidence = confidence
			best = shipTo
			differences = diffs
		}
	}

	return &models.ValidateShipToResponse{
		Matched:           bestConfidence >= 0.8,
		IsDefaultShipTo:   best.IsDefault,
		MatchedShipToCode: best.Code,
		WarehouseCode:     best.WarehouseCode,
		ShipVia:           best.ShipVia,
		MatchConfidence:   bestConfidence,
		MatchedAddress:    best,
		Differences:       differences,
	}, nil
}

// compareShipTo scores field-by-field and records a difference for every
// supplied field that does not match
func (s *Service) compareShipTo(addr *models.Address, shipTo *models.ShipTo) (float64, []string) {
	differences := []string{}
	matched := 0
	total := 0

	if addr.Name != "" {
		total++
		if s.scorer.NameScore(addr.Name, shipTo.Name) >= 0.9 {
			matched++
		} else {
			differences = append(differences, fmt.Sprintf("Name mismatch: '%s' vs '%s'", addr.Name, shipTo.Name))
		}
	}
	if addr.Address1 != "" {
		total++
		if s.scorer.AddressLineMatch(addr.Address1, shipTo.Address1) {
			matched++
		} else {
			differences = append(differences, fmt.Sprintf("Address mismatch: '%s' vs '%s'", addr.Address1, shipTo.Address1))
		}
	}
	if addr.City != "" {
		total++
		if s.scorer.ExactFold(addr.City, shipTo.City) == 1.0 {
			matched++
		} else {
			differences = append(differences, fmt.Sprintf("City mismatch: '%s' vs '%s'", addr.City, shipTo.City))
		}
	}
	if addr.State != "" {
		total++
		if s.scorer.ExactFold(addr.State, shipTo.State) == 1.0 {
			matched++
		} else {
			differences = append(differences, fmt.Sprintf("State mismatch: '%s' vs '%s'", addr.State, shipTo.State))
		}
	}
	if addr.ZipCode != "" {
		total++
		if s.scorer.ZipMatch(addr.ZipCode, shipTo.ZipCode) == 1.0 {
			matched++
		} else {
			differences = append(differences, fmt.Sprintf("ZipCode mismatch: '%s' vs '%s'", addr.ZipCode, shipTo.ZipCode))
		}
	}

	if total == 0 {
		return 0, differences
	}
	return float64(matched) / float64(total), differences
}

// collectShipTos scans the ship-to file for records belonging to the
// customer. Failures here degrade to an empty list; a customer without
// ship-tos is still a valid result.
func (s *Service) collectShipTos(ctx context.Context, h *sage.SessionHandle, division, customerNo string) []models.ShipTo {
	log := s.logger.WithContext(ctx).WithFields(map[string]any{
		"method":      "collectShipTos",
		"division":    division,
		"customer_no": customerNo,
	})

	shipTos := []models.ShipTo{}
	obj, err := h.NewObject(shipToObject)
	if err != nil {
		log.WithError(err).Warn("Could not create ship-to object")
		return shipTos
	}
	defer obj.Release()

	if obj.MoveFirst() == 0 {
		return shipTos
	}

	scanned := 0
	for scanned < s.cfg.DetailScanLimit {
		scanned++
		if getField(obj, "ARDivisionNo$") == division && getField(obj, "CustomerNo$") == customerNo {
			shipTos = append(shipTos, models.ShipTo{
				Code:          getField(obj, "ShipToCode$"),
				Name:          getField(obj, "ShipToName$"),
				Address1:      getField(obj, "ShipToAddress1$"),
				Address2:      getField(obj, "ShipToAddress2$"),
				City:          getField(obj, "ShipToCity$"),
				State:         getField(obj, "ShipToState$"),
				ZipCode:       getField(obj, "ShipToZipCode$"),
				Country:       getField(obj, "ShipToCountryCode$"),
				WarehouseCode: getField(obj, "WarehouseCode$"),
				ShipVia:       getField(obj, "ShipVia$"),
			})
			if len(shipTos) >= s.cfg.ShipToCollectLimit {
				break
			}
		}
		if obj.MoveNext() == 0 {
			break
		}
	}

	log.WithFields(map[string]any{"found": len(shipTos), "scanned": scanned}).Debug("Collected ship-to addresses")
	return shipTos
}

func (s *Service) recordMatches(req *models.CustomerSearchRequest, obj sage.Object) bool {
	if req.Name != "" && !s.scorer.NameMatch(req.Name, getField(obj, "CustomerName$")) {
		return false
	}
	if req.City != "" && !containsFold(getField(obj, "City$"), req.City) {
		return false
	}
	if req.State != "" && !strings.EqualFold(getField(obj, "State$"), req.State) {
		return false
	}
	if req.Phone != "" {
		want := normalizers.DigitsOnly(req.Phone)
		have := normalizers.DigitsOnly(getField(obj, "TelephoneNo$"))
		if want == "" || !strings.Contains(have, want) {
			return false
		}
	}
	if req.Address != "" && !containsFold(getField(obj, "AddressLine1$"), req.Address) {
		return false
	}
	return true
}

// SplitCustomerNumber parses the combined "DD-CUSTNO" form, defaulting the
// division when the prefix is absent
func SplitCustomerNumber(customerNumber string) (division, customerNo string) {
	if len(customerNumber) > 3 && customerNumber[2] == '-' {
		return customerNumber[:2], customerNumber[3:]
	}
	return defaultDivision, customerNumber
}

func extractCustomer(obj sage.Object) models.Customer {
	division := getField(obj, "ARDivisionNo$")
	customerNo := getField(obj, "CustomerNo$")

	// Sage stores the primary ship-to on the customer record; older
	// installs use an alternate field name
	defaultShipTo := getField(obj, "ShipToCode$")
	if defaultShipTo == "" {
		defaultShipTo = getField(obj, "DefaultShipToCode$")
	}

	return models.Customer{
		CustomerNumber:    fmt.Sprintf("%s-%s", division, customerNo),
		DivisionNo:        division,
		CustomerNo:        customerNo,
		Name:              getField(obj, "CustomerName$"),
		Status:            getField(obj, "CustomerStatus$"),
		Address1:          getField(obj, "AddressLine1$"),
		Address2:          getField(obj, "AddressLine2$"),
		City:              getField(obj, "City$"),
		State:             getField(obj, "State$"),
		ZipCode:           getField(obj, "ZipCode$"),
		Country:           getField(obj, "CountryCode$"),
		Phone:             getField(obj, "TelephoneNo$"),
		PriceLevel:        getField(obj, "PriceLevel$"),
		TaxSchedule:       getField(obj, "TaxSchedule$"),
		TermsCode:         getField(obj, "TermsCode$"),
		DefaultShipToCode: defaultShipTo,
	}
}

func markDefaultShipTo(customer *models.Customer) {
	if customer.DefaultShipToCode == "" {
		return
	}
	for i := range customer.ShipToAddresses {
		if customer.ShipToAddresses[i].Code == customer.DefaultShipToCode {
			customer.ShipToAddresses[i].IsDefault = true
			return
		}
	}
}

// getField reads a field, treating call failures as empty values. Partial
// records are common on older data and should not abort a scan.
func getField(obj sage.Object, name string) string {
	v, _ := obj.GetField(name)
	return strings.TrimSpace(v)
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToUpper(haystack), strings.ToUpper(needle))
}

func buildSearchCriteria(req *models.CustomerSearchRequest) string {
	parts := []string{}
	if req.Name != "" {
		parts = append(parts, fmt.Sprintf("name='%s'", req.Name))
	}
	if req.City != "" {
		parts = append(parts, fmt.Sprintf("city='%s'", req.City))
	}
	if req.State != "" {
		parts = append(parts, fmt.Sprintf("state='%s'", req.State))
	}
	if req.Phone != "" {
		parts = append(parts, fmt.Sprintf("phone='%s'", req.Phone))
	}
	if req.Address != "" {
		parts = append(parts, fmt.Sprintf("address='%s'", req.Address))
	}
	return strings.Join(parts, ", ")
}
