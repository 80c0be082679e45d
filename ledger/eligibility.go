package ledger

import (
	"fmt"
	"strings"
	"time"

	"ambassador-portal-server/models"
)

// Cycle holds everything needed to classify a single lead against the current
// benefit period: the set of active year labels, the cycle start used by the
// time fallback, and any anomalies found in the year configuration.
type Cycle struct {
	activeLabels map[string]struct{}
	knownLabels  map[string]struct{}
	start        time.Time
	anomalies    []Anomaly
}

// NewCycle builds the classification context from the academic-year rows.
// Any year marked current grants eligibility even if its is_active flag was
// left off; the cycle start is the current year's start date, falling back to
// fallbackStart when no year is marked current.
func NewCycle(years []models.AcademicYear, fallbackStart time.Time) *Cycle {
	c := &Cycle{
		activeLabels: make(map[string]struct{}),
		knownLabels:  make(map[string]struct{}),
	}

	currentCount := 0
	var currentStart time.Time
	for _, y := range years {
		if strings.TrimSpace(y.Label) != y.Label {
			c.anomalies = append(c.anomalies, Anomaly{
				Kind:   AnomalyWhitespaceLabel,
				Detail: fmt.Sprintf("academic year %q has leading/trailing whitespace", y.Label),
			})
		}
		c.knownLabels[y.Label] = struct{}{}
		if y.IsActive || y.IsCurrent {
			c.activeLabels[y.Label] = struct{}{}
		}
		if y.IsCurrent {
			currentCount++
			if currentStart.IsZero() || y.StartDate.Before(currentStart) {
				currentStart = y.StartDate
			}
		}
	}

	if currentCount > 1 {
		c.anomalies = append(c.anomalies, Anomaly{
			Kind:   AnomalyMultipleCurrentYears,
			Detail: fmt.Sprintf("%d academic years marked current", currentCount),
		})
	}
	if len(c.activeLabels) == 0 {
		c.anomalies = append(c.anomalies, Anomaly{
			Kind:   AnomalyNoActiveYears,
			Detail: "no active academic years configured; falling back to cycle start date",
		})
	}

	if !currentStart.IsZero() {
		c.start = currentStart
	} else {
		c.start = fallbackStart
	}
	if c.start.IsZero() {
		c.anomalies = append(c.anomalies, Anomaly{
			Kind:   AnomalyNoCycleStart,
			Detail: "no current year and no configured cycle start; time fallback disabled",
		})
	}

	return c
}

// IsLeadEligible reports whether the lead counts toward the current benefit
// period. Label matching is exact and case sensitive; a mismatched label is a
// data defect to surface, not something to fuzz around.
//
// Rule order: admitted-year label first, then the linked student's year, then
// the time heuristic. A mismatched admitted year still falls through to the
// student check, but the time fallback applies only to leads that carry no
// year information at all; a lead stamped with a year that is no longer
// active belongs to a past period and must not re-qualify through its
// creation date.
func (c *Cycle) IsLeadEligible(lead models.ReferralLead) bool {
	if lead.LeadStatus != models.LeadStatusConfirmed {
		return false
	}
	hasYearStamp := false
	if lead.AdmittedYear != "" {
		if _, ok := c.activeLabels[lead.AdmittedYear]; ok {
			return true
		}
		hasYearStamp = true
	}
	if lead.Student != nil && lead.Student.AcademicYear != "" {
		if _, ok := c.activeLabels[lead.Student.AcademicYear]; ok {
			return true
		}
		hasYearStamp = true
	}
	if hasYearStamp || c.start.IsZero() {
		return false
	}
	return lead.CreatedAt.After(c.start)
}

// KnownLabel reports whether any academic-year row carries this label,
// active or not. A Confirmed lead stamped with an unknown label is a data
// defect the recomputation surfaces as an anomaly.
func (c *Cycle) KnownLabel(label string) bool {
	_, ok := c.knownLabels[label]
	return ok
}

// Anomalies returns the data-quality findings collected while building the
// cycle, in detection order.
func (c *Cycle) Anomalies() []Anomaly {
	return c.anomalies
}

// Start returns the resolved start of the current benefit cycle; zero when
// neither a current year nor a fallback was configured.
func (c *Cycle) Start() time.Time {
	return c.start
}
