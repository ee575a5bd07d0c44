package matching

import (
	"strings"

	"github.com/dylan-buck/UAF-Auto/pkg/models"
)

// Component weights for the composite address score. State carries double
// weight because it is the strongest disambiguator between branches.
const (
	weightState   = 2
	weightCity    = 1
	weightZip     = 1
	weightAddress = 1
)

// AddressScore computes the composite score of a query address against a
// stored address. Only components the query supplies participate; missing
// query fields are excluded from both numerator and denominator.
func (s *Scorer) AddressScore(query *models.Address, address1, address2, city, state, zip string) float64 {
	if query == nil {
		return 0.0
	}

	matched := 0
	total := 0

	if query.State != "" {
		total += weightState
		if s.ExactFold(query.State, state) == 1.0 {
			matched += weightState
		}
	}

	if query.City != "" {
		total += weightCity
		if s.ExactFold(query.City, city) == 1.0 {
			matched += weightCity
		}
	}

	if query.ZipCode != "" {
		total += weightZip
		if s.ZipMatch(query.ZipCode, zip) == 1.0 {
			matched += weightZip
		}
	}

	queryLines := CombineAddressLines(query.Address1, query.Address2)
	if queryLines != "" {
		total += weightAddress
		if s.AddressLineMatch(queryLines, CombineAddressLines(address1, address2)) {
			matched += weightAddress
		}
	}

	if total == 0 {
		return 0.0
	}
	return float64(matched) / float64(total)
}

// ShipToScore scores a query address against one ship-to record
func (s *Scorer) ShipToScore(query *models.Address, shipTo *models.ShipTo) float64 {
	score := s.AddressScore(query, shipTo.Address1, shipTo.Address2, shipTo.City, shipTo.State, shipTo.ZipCode)

	// Average in the location name when both sides carry one
	if query.Name != "" && shipTo.Name != "" {
		score = (score + s.NameScore(query.Name, shipTo.Name)) / 2
	}
	return score
}

// CombineAddressLines joins non-empty address lines, dropping bare
// attention markers that defeat street comparison
func CombineAddressLines(lines ...string) string {
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l == "" || strings.EqualFold(l, "ATTN:") {
			continue
		}
		parts = append(parts, l)
	}
	return strings.Join(parts, " ")
}
