package optimize

import "github.com/agrisure/weatherindex/internal/pricing"

// Scoring weights. The composite balances filling the premium budget against
// using the sum insured, with smaller terms for payout stability and coverage
// breadth.
const (
	weightPremiumUtilization = 0.50
	weightSIUtilization      = 0.25
	weightPayoutStability    = 0.10
	weightCoverage           = 0.15

	// Soft constraint scales. Exceeding the cap or the payout-year guard
	// pulls the score negative instead of rejecting the trial outright, so
	// the search keeps exploring near-boundary regions.
	capExcessPenaltyScale    = 10.0
	overtriggerPenaltyScale  = 5.0
	maxPayoutYearsNumerator  = 25
	payoutYearsGuardBaseline = 30
)

// maxPayoutYears is the over-triggering guard: at 30 replayed years a design
// may pay in at most 25 of them.
func maxPayoutYears(totalYears int) int {
	return totalYears * maxPayoutYearsNumerator / payoutYearsGuardBaseline
}

// compositeScore scores a priced trial against its premium cap. Positive
// scores are feasible designs; negative scores carry constraint penalties.
func compositeScore(res *pricing.Result, loadedCost, cap, sumInsured float64, totalYears int) float64 {
	premiumUtilization := 1.0
	if cap > 0 && loadedCost < cap {
		premiumUtilization = loadedCost / cap
	}
	siUtilization := 0.0
	if sumInsured > 0 {
		siUtilization = res.MaxPayout / sumInsured
	}

	score := weightPremiumUtilization*premiumUtilization +
		weightSIUtilization*siUtilization +
		weightPayoutStability*res.PayoutStability +
		weightCoverage*res.CoverageScore

	if cap > 0 && loadedCost > cap {
		score -= capExcessPenaltyScale * (loadedCost - cap) / cap
	}
	if limit := maxPayoutYears(totalYears); res.PayoutYears > limit {
		score -= overtriggerPenaltyScale * float64(res.PayoutYears-limit)
	}
	return round4(score)
}
