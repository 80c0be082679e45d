package ledger

import (
	"fmt"
	"log"
	"os"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"ambassador-portal-server/audit"
	"ambassador-portal-server/models"
)

// FiveStarThreshold is the confirmed-referral count at which an ambassador
// becomes a five-star member for the current benefit period.
const FiveStarThreshold = 5

const defaultBatchWorkers = 4

type LedgerState struct {
	ConfirmedCount   int  `json:"confirmed_count"`
	IsFiveStarMember bool `json:"is_five_star_member"`
}

type ReconciliationResult struct {
	AmbassadorID  uint        `json:"ambassador_id"`
	Authoritative LedgerState `json:"authoritative"`
	Cached        LedgerState `json:"cached"`
	Drift         bool        `json:"drift"`

	// Benefit is nil when the slab table failed validation; BenefitError then
	// carries the reason. A benefit failure never blocks the count correction.
	Benefit      *BenefitResult `json:"benefit,omitempty"`
	BenefitError string         `json:"benefit_error,omitempty"`

	Anomalies []Anomaly `json:"anomalies,omitempty"`
}

// Recompute derives the authoritative confirmed count and five-star flag for
// one ambassador from the lead rows, compares them with the cached values on
// the user record, and persists a correction when they have drifted apart.
//
// The whole read-derive-write sequence runs in one transaction on db, so the
// caller can compose it inside a larger unit of work (confirm lead plus
// recompute). The write is conditioned on the cached values read earlier;
// a concurrent writer surfaces as ErrConcurrentUpdate instead of a lost
// update.
func Recompute(db *gorm.DB, ambassadorID uint, actor string) (*ReconciliationResult, error) {
	var result *ReconciliationResult
	err := db.Transaction(func(tx *gorm.DB) error {
		r, err := recomputeTx(tx, ambassadorID, actor)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func recomputeTx(tx *gorm.DB, ambassadorID uint, actor string) (*ReconciliationResult, error) {
	var user models.User
	if err := tx.First(&user, ambassadorID).Error; err != nil {
		return nil, persistenceErr("load ambassador", ambassadorID, err)
	}

	// All year rows, not just the active ones: the full label set is what
	// separates a stale admitted year from one that was never configured.
	var years []models.AcademicYear
	if err := tx.Find(&years).Error; err != nil {
		return nil, persistenceErr("load academic years", ambassadorID, err)
	}
	cycle := NewCycle(years, fallbackCycleStart())

	var leads []models.ReferralLead
	if err := tx.Preload("Student").Where("referrer_id = ?", ambassadorID).Find(&leads).Error; err != nil {
		return nil, persistenceErr("load referral leads", ambassadorID, err)
	}

	count := 0
	anomalies := cycle.Anomalies()
	for _, lead := range leads {
		if cycle.IsLeadEligible(lead) {
			count++
		}
		if lead.LeadStatus == models.LeadStatusConfirmed && lead.AdmittedYear != "" && !cycle.KnownLabel(lead.AdmittedYear) {
			anomalies = append(anomalies, Anomaly{
				Kind:   AnomalyUnknownAdmittedYear,
				Detail: fmt.Sprintf("lead %d admitted year %q matches no academic year", lead.ID, lead.AdmittedYear),
			})
		}
	}

	result := &ReconciliationResult{
		AmbassadorID: ambassadorID,
		Authoritative: LedgerState{
			ConfirmedCount:   count,
			IsFiveStarMember: count >= FiveStarThreshold,
		},
		Cached: LedgerState{
			ConfirmedCount:   user.ConfirmedReferralCount,
			IsFiveStarMember: user.IsFiveStarMember,
		},
		Anomalies: anomalies,
	}
	result.Drift = result.Authoritative != result.Cached

	// Benefit resolution is independent of the correction: a broken slab
	// table must not leave a wrong count in place.
	var slabs []models.BenefitSlab
	if err := tx.Find(&slabs).Error; err != nil {
		result.BenefitError = err.Error()
	} else if benefit, err := ResolveBenefit(count, slabs); err != nil {
		result.BenefitError = err.Error()
	} else {
		result.Benefit = benefit
	}

	for _, a := range result.Anomalies {
		log.Printf("Ledger anomaly for ambassador %d: %s (%s)", ambassadorID, a.Kind, a.Detail)
	}

	if !result.Drift {
		return result, nil
	}

	// Conditional write: only succeeds if the cached values are still the
	// ones we read. RowsAffected 0 means another writer got there first.
	res := tx.Model(&models.User{}).
		Where("id = ? AND confirmed_referral_count = ? AND is_five_star_member = ?",
			ambassadorID, result.Cached.ConfirmedCount, result.Cached.IsFiveStarMember).
		Updates(map[string]interface{}{
			"confirmed_referral_count": result.Authoritative.ConfirmedCount,
			"is_five_star_member":      result.Authoritative.IsFiveStarMember,
		})
	if res.Error != nil {
		return nil, persistenceErr("persist correction", ambassadorID, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrConcurrentUpdate
	}

	recordCorrection(tx, result, actor)
	return result, nil
}

// recordCorrection writes one audit row per corrected field. Audit failure is
// non-fatal: the correction stands and the failure goes to the error log.
func recordCorrection(tx *gorm.DB, r *ReconciliationResult, actor string) {
	if r.Cached.ConfirmedCount != r.Authoritative.ConfirmedCount {
		if err := audit.Record(tx, "ledger-correction", audit.ModuleLedger,
			"corrected confirmed referral count", r.AmbassadorID, actor,
			map[string]interface{}{
				"field":    "confirmed_referral_count",
				"previous": r.Cached.ConfirmedCount,
				"new":      r.Authoritative.ConfirmedCount,
			}); err != nil {
			log.Printf("Failed to record audit entry for ambassador %d: %v", r.AmbassadorID, err)
		}
	}
	if r.Cached.IsFiveStarMember != r.Authoritative.IsFiveStarMember {
		if err := audit.Record(tx, "ledger-correction", audit.ModuleLedger,
			"corrected five-star membership flag", r.AmbassadorID, actor,
			map[string]interface{}{
				"field":    "is_five_star_member",
				"previous": r.Cached.IsFiveStarMember,
				"new":      r.Authoritative.IsFiveStarMember,
			}); err != nil {
			log.Printf("Failed to record audit entry for ambassador %d: %v", r.AmbassadorID, err)
		}
	}
}

// fallbackCycleStart reads BENEFIT_CYCLE_START (YYYY-MM-DD). It is only used
// when no academic year is marked current, so a year rollover configured in
// the database never needs a matching source edit.
func fallbackCycleStart() time.Time {
	raw := os.Getenv("BENEFIT_CYCLE_START")
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		log.Printf("Invalid BENEFIT_CYCLE_START %q: %v", raw, err)
		return time.Time{}
	}
	return t
}

type BatchOptions struct {
	Workers int
	Actor   string
}

type BatchOutcome struct {
	AmbassadorID uint                  `json:"ambassador_id"`
	Result       *ReconciliationResult `json:"result,omitempty"`
	Error        string                `json:"error,omitempty"`
}

type BatchReport struct {
	Corrected  int            `json:"corrected"`
	Consistent int            `json:"consistent"`
	Failed     int            `json:"failed"`
	Outcomes   []BatchOutcome `json:"outcomes"`
}

// RecomputeAll reconciles every ambassador that could have drifted: the union
// of users with a non-zero cached count and users with at least one Confirmed
// lead, so both over-counted and under-counted records are caught. One
// ambassador failing never aborts the batch; the failure is reported in its
// outcome.
func RecomputeAll(db *gorm.DB, opts BatchOptions) (*BatchReport, error) {
	ids, err := candidateIDs(db)
	if err != nil {
		return nil, err
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = defaultBatchWorkers
	}
	actor := opts.Actor
	if actor == "" {
		actor = audit.ActorSystemReconciliation
	}

	report := &BatchReport{}
	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(workers)

	for _, id := range ids {
		id := id
		g.Go(func() error {
			result, err := Recompute(db, id, actor)

			mu.Lock()
			defer mu.Unlock()
			outcome := BatchOutcome{AmbassadorID: id}
			switch {
			case err != nil:
				outcome.Error = err.Error()
				report.Failed++
				log.Printf("Reconciliation failed for ambassador %d: %v", id, err)
			case result.Drift:
				outcome.Result = result
				report.Corrected++
			default:
				outcome.Result = result
				report.Consistent++
			}
			report.Outcomes = append(report.Outcomes, outcome)
			return nil
		})
	}
	g.Wait()

	sort.Slice(report.Outcomes, func(i, j int) bool {
		return report.Outcomes[i].AmbassadorID < report.Outcomes[j].AmbassadorID
	})
	return report, nil
}

func candidateIDs(db *gorm.DB) ([]uint, error) {
	var cached []uint
	if err := db.Model(&models.User{}).
		Where("confirmed_referral_count > 0 OR is_five_star_member = ?", true).
		Pluck("id", &cached).Error; err != nil {
		return nil, persistenceErr("list cached candidates", 0, err)
	}

	var referrers []uint
	if err := db.Model(&models.ReferralLead{}).
		Where("lead_status = ?", models.LeadStatusConfirmed).
		Distinct().
		Pluck("referrer_id", &referrers).Error; err != nil {
		return nil, persistenceErr("list lead candidates", 0, err)
	}

	set := make(map[uint]struct{}, len(cached)+len(referrers))
	for _, id := range cached {
		set[id] = struct{}{}
	}
	for _, id := range referrers {
		set[id] = struct{}{}
	}

	ids := make([]uint, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
