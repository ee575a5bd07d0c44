package customers

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/dylan-buck/UAF-Auto/pkg/matching"
	"github.com/dylan-buck/UAF-Auto/pkg/metrics"
	"github.com/dylan-buck/UAF-Auto/pkg/models"
	"github.com/dylan-buck/UAF-Auto/pkg/normalizers"
)

// Composite score weights. Ship-to location is the strongest signal on a
// purchase order; the bill-to name alone is routinely ambiguous between
// branches of the same company.
const (
	weightName    = 0.20
	weightShipTo  = 0.50
	weightBilling = 0.20
	weightPhone   = 0.10

	defaultShipToBonus          = 0.10
	defaultShipToBonusThreshold = 0.7

	shortlistNameScore = 0.5
	manualReviewFloor  = 0.5
)

// ResolverConfig bounds the candidate funnel
type ResolverConfig struct {
	// SearchSize is how many name candidates the initial scan returns
	SearchSize int
	// Shortlist is how many top candidates get a full detail fetch
	Shortlist int
	// MinConfidence is the default auto-process threshold
	MinConfidence float64
}

// Resolver maps free-text purchase order parties to customer accounts
// using weighted fuzzy matching across name, addresses, and phone.
type Resolver struct {
	customers *Service
	scorer    *matching.Scorer
	cfg       ResolverConfig
	logger    ectologger.Logger
}

func NewResolver(customers *Service, scorer *matching.Scorer, cfg ResolverConfig, logger ectologger.Logger) *Resolver {
	if cfg.SearchSize <= 0 {
		cfg.SearchSize = 20
	}
	if cfg.Shortlist <= 0 {
		cfg.Shortlist = 5
	}
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = 0.8
	}
	return &Resolver{customers: customers, scorer: scorer, cfg: cfg, logger: logger}
}

// Resolve runs the candidate funnel: a bounded name search, a name-score
// shortlist, a full detail fetch per shortlisted candidate, then weighted
// composite scoring and a recommendation.
func (r *Resolver) Resolve(ctx context.Context, req *models.ResolutionRequest) (*models.ResolutionResult, error) {
	start := time.Now()
	log := r.logger.WithContext(ctx).WithFields(map[string]any{
		"method":        "Resolve",
		"customer_name": req.CustomerName,
	})

	minConfidence := req.MinConfidence
	if minConfidence <= 0 {
		minConfidence = r.cfg.MinConfidence
	}

	result := &models.ResolutionResult{
		Recommendation: models.RecommendationRejected,
		Candidates:     []models.CandidateMatch{},
	}
	defer func() {
		metrics.RecordResolution(result.Recommendation, time.Since(start).Seconds())
	}()

	search, err := r.customers.Search(ctx, &models.CustomerSearchRequest{
		Name:  normalizers.ExtractSearchName(req.CustomerName),
		Limit: r.cfg.SearchSize,
	})
	if err != nil {
		return nil, err
	}
	if len(search.Customers) == 0 {
		result.Message = fmt.Sprintf("No customers found matching name '%s'", req.CustomerName)
		log.Info("Resolution found no candidates")
		return result, nil
	}

	for _, candidate := range r.shortlist(req.CustomerName, search.Customers) {
		full, err := r.customers.Get(ctx, candidate.CustomerNumber)
		if err != nil {
			log.WithError(err).WithField("customer_number", candidate.CustomerNumber).Warn("Skipping candidate, detail fetch failed")
			continue
		}
		result.Candidates = append(result.Candidates, r.scoreCandidate(req, full))
	}

	sort.SliceStable(result.Candidates, func(i, j int) bool {
		return result.Candidates[i].Score > result.Candidates[j].Score
	})

	if len(result.Candidates) == 0 {
		result.Message = "Could not score any customer matches"
		return result, nil
	}

	best := &result.Candidates[0]
	result.BestMatch = best
	result.Confidence = best.Score

	issues := []string{}
	switch {
	case result.Confidence >= minConfidence:
		result.Resolved = true
		result.Recommendation = models.RecommendationAutoProcess
		result.Message = fmt.Sprintf("High confidence match: %s (Score: %.0f%%)", best.CustomerName, result.Confidence*100)
		if !best.IsDefaultShipTo {
			result.Resolved = false
			result.Recommendation = models.RecommendationManualReview
			issues = append(issues, "PO ship-to does NOT match customer's default ship-to address")
		}
	case result.Confidence >= manualReviewFloor:
		result.Recommendation = models.RecommendationManualReview
		result.Message = fmt.Sprintf("Medium confidence match: %s (Score: %.0f%%). Manual verification recommended.", best.CustomerName, result.Confidence*100)
	default:
		result.Recommendation = models.RecommendationRejected
		result.Message = fmt.Sprintf("Low confidence: Best match is %s (Score: %.0f%%). Cannot auto-process.", best.CustomerName, result.Confidence*100)
	}

	// A match is only auto-processable when the ship-to carries the
	// fields order entry needs
	if best.IsDefaultShipTo || result.Confidence >= manualReviewFloor {
		if best.WarehouseCode == "" {
			result.Resolved = false
			result.Recommendation = models.RecommendationManualReview
			issues = append(issues, "Ship-to address has no warehouse code configured in Sage")
		}
		if best.ShipVia == "" {
			result.Resolved = false
			result.Recommendation = models.RecommendationManualReview
			issues = append(issues, "Ship-to address has no ship via method configured in Sage")
		}
	}

	if len(issues) > 0 {
		result.Message += " - ISSUES: "
		for i, issue := range issues {
			if i > 0 {
				result.Message += "; "
			}
			result.Message += issue
		}
	}

	result.ScoringDetails = append([]string{}, best.Breakdown.Details...)
	for _, issue := range issues {
		result.ScoringDetails = append(result.ScoringDetails, "WARNING: "+issue)
	}

	log.WithFields(map[string]any{
		"recommendation":  result.Recommendation,
		"customer_number": best.CustomerNumber,
		"confidence":      result.Confidence,
	}).Info("Customer resolution completed")
	return result, nil
}

type shortlisted struct {
	CustomerNumber string
	nameScore      float64
}

// shortlist ranks search hits by name score and keeps the top few strong
// ones. Detail fetches are expensive scans, so weak name matches are not
// worth the session time.
func (r *Resolver) shortlist(queryName string, candidates []models.Customer) []shortlisted {
	scored := make([]shortlisted, 0, len(candidates))
	for _, c := range candidates {
		score := r.scorer.NameScore(queryName, c.Name)
		if score >= shortlistNameScore {
			scored = append(scored, shortlisted{CustomerNumber: c.CustomerNumber, nameScore: score})
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].nameScore > scored[j].nameScore
	})
	if len(scored) > r.cfg.Shortlist {
		scored = scored[:r.cfg.Shortlist]
	}
	return scored
}

// scoreCandidate computes the weighted composite score for one customer
func (r *Resolver) scoreCandidate(req *models.ResolutionRequest, customer *models.Customer) models.CandidateMatch {
	match := models.CandidateMatch{
		CustomerNumber: customer.CustomerNumber,
		CustomerName:   customer.Name,
		Customer:       customer,
	}
	breakdown := models.ScoreBreakdown{}

	breakdown.NameScore = r.scorer.NameScore(req.CustomerName, customer.Name)
	breakdown.Details = append(breakdown.Details,
		fmt.Sprintf("Name match: %.0f%% ('%s' vs '%s')", breakdown.NameScore*100, req.CustomerName, customer.Name))

	if !req.ShipToAddress.Empty() && len(customer.ShipToAddresses) > 0 {
		bestShipTo, score := r.bestShipTo(req.ShipToAddress, customer.ShipToAddresses)
		breakdown.ShipToScore = score
		match.MatchedShipToCode = bestShipTo.Code
		match.IsDefaultShipTo = bestShipTo.IsDefault
		match.WarehouseCode = bestShipTo.WarehouseCode
		match.ShipVia = bestShipTo.ShipVia
		breakdown.Details = append(breakdown.Details,
			fmt.Sprintf("Ship-to match: %.0f%% (matched code: %s, isDefault: %t)", score*100, bestShipTo.Code, bestShipTo.IsDefault))

		if bestShipTo.IsDefault && score > defaultShipToBonusThreshold {
			breakdown.DefaultShipToBonus = defaultShipToBonus
			breakdown.Details = append(breakdown.Details,
				fmt.Sprintf("Default ship-to bonus: +%.0f%%", defaultShipToBonus*100))
		}
	} else {
		breakdown.Details = append(breakdown.Details, "Ship-to match: N/A (no ship-to data)")
	}

	if !req.BillingAddress.Empty() {
		breakdown.BillingScore = r.scorer.AddressScore(req.BillingAddress,
			customer.Address1, customer.Address2, customer.City, customer.State, customer.ZipCode)
		breakdown.Details = append(breakdown.Details,
			fmt.Sprintf("Billing address match: %.0f%%", breakdown.BillingScore*100))
	}

	if req.Phone != "" {
		breakdown.PhoneScore = r.scorer.PhoneScore(req.Phone, customer.Phone)
		breakdown.Details = append(breakdown.Details,
			fmt.Sprintf("Phone match: %.0f%%", breakdown.PhoneScore*100))
	}

	match.Score = breakdown.NameScore*weightName +
		breakdown.ShipToScore*weightShipTo +
		breakdown.BillingScore*weightBilling +
		breakdown.PhoneScore*weightPhone +
		breakdown.DefaultShipToBonus
	if match.Score > 1.0 {
		match.Score = 1.0
	}

	breakdown.Details = append(breakdown.Details, fmt.Sprintf("Total weighted score: %.0f%%", match.Score*100))
	match.Breakdown = breakdown
	return match
}

func (r *Resolver) bestShipTo(addr *models.Address, shipTos []models.ShipTo) (*models.ShipTo, float64) {
	best := &shipTos[0]
	bestScore := r.scorer.ShipToScore(addr, best)
	for i := 1; i < len(shipTos); i++ {
		if score := r.scorer.ShipToScore(addr, &shipTos[i]); score > bestScore {
			bestScore = score
			best = &shipTos[i]
		}
	}
	return best, bestScore
}
