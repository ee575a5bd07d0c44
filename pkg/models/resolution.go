package models

// Recommendation values returned by customer resolution
const (
	RecommendationAutoProcess  = "AUTO_PROCESS"
	RecommendationManualReview = "MANUAL_REVIEW"
	RecommendationRejected     = "REJECTED"
)

// Address is a postal address used for matching
type Address struct {
	Name     string `json:"name,omitempty"`
	Address1 string `json:"address1,omitempty"`
	Address2 string `json:"address2,omitempty"`
	City     string `json:"city,omitempty"`
	State    string `json:"state,omitempty"`
	ZipCode  string `json:"zip_code,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// Empty reports whether no usable field is set
func (a *Address) Empty() bool {
	if a == nil {
		return true
	}
	return a.Address1 == "" && a.Address2 == "" && a.City == "" && a.State == "" && a.ZipCode == ""
}

// ResolutionRequest asks for the best customer match for free-text PO data
type ResolutionRequest struct {
	CustomerName   string   `json:"customer_name" validate:"required"`
	ShipToAddress  *Address `json:"ship_to_address,omitempty"`
	BillingAddress *Address `json:"billing_address,omitempty"`
	Phone          string   `json:"phone,omitempty"`
	// MinConfidence is the auto-process threshold; 0 means the configured default
	MinConfidence float64 `json:"min_confidence,omitempty" validate:"gte=0,lte=1"`
}

// ResolutionResult is the outcome of a customer resolution
type ResolutionResult struct {
	Resolved       bool             `json:"resolved"`
	Confidence     float64          `json:"confidence"`
	Recommendation string           `json:"recommendation"`
	BestMatch      *CandidateMatch  `json:"best_match,omitempty"`
	Candidates     []CandidateMatch `json:"candidates"`
	Message        string           `json:"message,omitempty"`
	ScoringDetails []string         `json:"scoring_details,omitempty"`
}

// CandidateMatch is one scored customer candidate
type CandidateMatch struct {
	CustomerNumber    string         `json:"customer_number"`
	CustomerName      string         `json:"customer_name"`
	Score             float64        `json:"score"`
	Breakdown         ScoreBreakdown `json:"score_breakdown"`
	MatchedShipToCode string         `json:"matched_ship_to_code,omitempty"`
	IsDefaultShipTo   bool           `json:"is_default_ship_to"`
	WarehouseCode     string         `json:"warehouse_code,omitempty"`
	ShipVia           string         `json:"ship_via,omitempty"`
	Customer          *Customer      `json:"customer,omitempty"`
}

// ScoreBreakdown records the weighted components behind a candidate score
type ScoreBreakdown struct {
	NameScore          float64  `json:"name_score"`
	ShipToScore        float64  `json:"ship_to_score"`
	BillingScore       float64  `json:"billing_score"`
	PhoneScore         float64  `json:"phone_score"`
	DefaultShipToBonus float64  `json:"default_ship_to_bonus"`
	Details            []string `json:"details,omitempty"`
}

// ValidateShipToRequest checks a PO address against a known customer
type ValidateShipToRequest struct {
	Address
}

// ValidateShipToResponse reports the best ship-to match for a customer
type ValidateShipToResponse struct {
	Matched           bool     `json:"matched"`
	IsDefaultShipTo   bool     `json:"is_default_ship_to"`
	MatchedShipToCode string   `json:"matched_ship_to_code,omitempty"`
	WarehouseCode     string   `json:"warehouse_code,omitempty"`
	ShipVia           string   `json:"ship_via,omitempty"`
	MatchConfidence   float64  `json:"match_confidence"`
	MatchedAddress    *ShipTo  `json:"matched_address,omitempty"`
	Differences       []string `json:"differences,omitempty"`
}
