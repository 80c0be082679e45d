package ledger

import (
	"errors"
	"fmt"
)

// Anomaly kinds surfaced in reconciliation results. Anomalies are data-quality
// findings, not errors: processing continues with best-effort fallback.
const (
	AnomalyMultipleCurrentYears = "multiple_current_years"
	AnomalyNoActiveYears        = "no_active_years"
	AnomalyWhitespaceLabel      = "whitespace_label"
	AnomalyNoCycleStart         = "no_cycle_start"
	AnomalyUnknownAdmittedYear  = "unknown_admitted_year"
)

type Anomaly struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

// ConfigurationError reports invalid benefit-slab data. It is fatal for a
// single benefit resolution, but must not block the count/flag correction.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "benefit slab configuration invalid: " + e.Reason
}

// ErrConcurrentUpdate is returned when the conditional write detects that the
// ambassador's cached values changed between read and write.
var ErrConcurrentUpdate = errors.New("ambassador record changed during recomputation")

func persistenceErr(op string, ambassadorID uint, err error) error {
	return fmt.Errorf("%s for ambassador %d: %w", op, ambassadorID, err)
}
