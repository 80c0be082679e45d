package ledger

import (
	"fmt"
	"sort"

	"ambassador-portal-server/models"
)

type BenefitResult struct {
	FeeBenefitPercent    float64 `json:"fee_benefit_percent"`
	LongTermExtraPercent float64 `json:"long_term_extra_percent"`
	MatchedThreshold     int     `json:"matched_threshold"`
}

// ValidateSlabs checks the slab-table invariant: thresholds distinct and
// positive. Admin endpoints call this before accepting a new table.
func ValidateSlabs(slabs []models.BenefitSlab) error {
	seen := make(map[int]struct{}, len(slabs))
	for _, s := range slabs {
		if s.Threshold < 1 {
			return &ConfigurationError{Reason: fmt.Sprintf("threshold %d must be at least 1", s.Threshold)}
		}
		if _, dup := seen[s.Threshold]; dup {
			return &ConfigurationError{Reason: fmt.Sprintf("duplicate threshold %d", s.Threshold)}
		}
		seen[s.Threshold] = struct{}{}
	}
	return nil
}

// ResolveBenefit maps a confirmed-referral count to its discount tier: the
// slab with the greatest threshold not exceeding the count. A count below the
// lowest threshold resolves to zero benefit rather than an error.
func ResolveBenefit(confirmedCount int, slabs []models.BenefitSlab) (*BenefitResult, error) {
	if err := ValidateSlabs(slabs); err != nil {
		return nil, err
	}

	sorted := make([]models.BenefitSlab, len(slabs))
	copy(sorted, slabs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Threshold < sorted[j].Threshold })

	result := &BenefitResult{}
	for _, s := range sorted {
		if s.Threshold > confirmedCount {
			break
		}
		result.FeeBenefitPercent = s.FeeBenefitPercent
		result.LongTermExtraPercent = s.LongTermExtraPercent
		result.MatchedThreshold = s.Threshold
	}
	return result, nil
}
