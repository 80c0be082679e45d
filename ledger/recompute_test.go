package ledger

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"ambassador-portal-server/audit"
	"ambassador-portal-server/models"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Student{},
		&models.ReferralLead{},
		&models.AcademicYear{},
		&models.BenefitSlab{},
		&models.AuditLog{},
	))
	return db
}

func createAmbassador(t *testing.T, db *gorm.DB, name string, cachedCount int, fiveStar bool) models.User {
	t.Helper()
	user := models.User{
		Name:                   name,
		Email:                  name + "@example.com",
		Password:               "hashed",
		Role:                   models.RoleParent,
		ReferralCode:           "5SA-P-" + strings.ToUpper(name),
		ConfirmedReferralCount: cachedCount,
		IsFiveStarMember:       fiveStar,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func createLead(t *testing.T, db *gorm.DB, referrerID uint, status, admittedYear string, createdAt time.Time) models.ReferralLead {
	t.Helper()
	lead := models.ReferralLead{
		ReferrerID:   referrerID,
		ParentName:   "Parent",
		ParentPhone:  "0700000000",
		StudentName:  "Student",
		LeadStatus:   status,
		AdmittedYear: admittedYear,
		CreatedAt:    createdAt,
	}
	require.NoError(t, db.Create(&lead).Error)
	return lead
}

func seedYear(t *testing.T, db *gorm.DB, label string, start time.Time, active, current bool) {
	t.Helper()
	require.NoError(t, db.Create(&models.AcademicYear{
		Label:     label,
		StartDate: start,
		EndDate:   start.AddDate(1, 0, 0),
		IsActive:  active,
		IsCurrent: current,
	}).Error)
}

func seedDefaultSlabs(t *testing.T, db *gorm.DB) {
	t.Helper()
	for _, slab := range defaultSlabs() {
		s := slab
		require.NoError(t, db.Create(&s).Error)
	}
}

var cycleStart = time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

func TestRecompute(t *testing.T) {
	t.Run("under-counted cache is corrected upward", func(t *testing.T) {
		db := setupDB(t)
		seedYear(t, db, "2025-2026", cycleStart, true, true)
		seedDefaultSlabs(t, db)

		user := createAmbassador(t, db, "alice", 0, false)
		for i := 0; i < 3; i++ {
			createLead(t, db, user.ID, models.LeadStatusConfirmed, "2025-2026", cycleStart.AddDate(0, 1, i))
		}
		createLead(t, db, user.ID, models.LeadStatusPending, "2025-2026", cycleStart.AddDate(0, 1, 0))
		createLead(t, db, user.ID, models.LeadStatusRejected, "2025-2026", cycleStart.AddDate(0, 1, 0))

		result, err := Recompute(db, user.ID, audit.ActorSystemReconciliation)
		require.NoError(t, err)

		assert.True(t, result.Drift)
		assert.Equal(t, 3, result.Authoritative.ConfirmedCount)
		assert.False(t, result.Authoritative.IsFiveStarMember)
		assert.Equal(t, 0, result.Cached.ConfirmedCount)

		var fresh models.User
		require.NoError(t, db.First(&fresh, user.ID).Error)
		assert.Equal(t, 3, fresh.ConfirmedReferralCount)

		require.NotNil(t, result.Benefit)
		assert.Equal(t, 10.0, result.Benefit.FeeBenefitPercent)

		var logs []models.AuditLog
		require.NoError(t, db.Where("target_id = ?", user.ID).Find(&logs).Error)
		require.Len(t, logs, 1)
		assert.Equal(t, "ledger-correction", logs[0].Action)
		assert.Equal(t, audit.ActorSystemReconciliation, logs[0].Actor)
	})

	t.Run("stale over-count from a past year is corrected downward", func(t *testing.T) {
		db := setupDB(t)
		seedYear(t, db, "2024-2025", cycleStart.AddDate(-1, 0, 0), false, false)
		seedYear(t, db, "2025-2026", cycleStart, true, true)
		seedDefaultSlabs(t, db)

		user := createAmbassador(t, db, "bob", 6, true)
		for i := 0; i < 5; i++ {
			createLead(t, db, user.ID, models.LeadStatusConfirmed, "2024-2025", cycleStart.AddDate(0, 0, i-30))
		}
		createLead(t, db, user.ID, models.LeadStatusConfirmed, "2025-2026", cycleStart.AddDate(0, 2, 0))

		result, err := Recompute(db, user.ID, audit.ActorSystemReconciliation)
		require.NoError(t, err)

		assert.True(t, result.Drift)
		assert.Equal(t, 1, result.Authoritative.ConfirmedCount)
		assert.False(t, result.Authoritative.IsFiveStarMember)
		assert.Equal(t, 6, result.Cached.ConfirmedCount)
		assert.True(t, result.Cached.IsFiveStarMember)

		var fresh models.User
		require.NoError(t, db.First(&fresh, user.ID).Error)
		assert.Equal(t, 1, fresh.ConfirmedReferralCount)
		assert.False(t, fresh.IsFiveStarMember)

		// one audit row per corrected field
		var logs []models.AuditLog
		require.NoError(t, db.Where("target_id = ?", user.ID).Find(&logs).Error)
		assert.Len(t, logs, 2)
	})

	t.Run("second run without lead changes reports no drift", func(t *testing.T) {
		db := setupDB(t)
		seedYear(t, db, "2025-2026", cycleStart, true, true)

		user := createAmbassador(t, db, "carol", 0, false)
		createLead(t, db, user.ID, models.LeadStatusConfirmed, "2025-2026", cycleStart.AddDate(0, 1, 0))

		first, err := Recompute(db, user.ID, audit.ActorSystemReconciliation)
		require.NoError(t, err)
		assert.True(t, first.Drift)

		second, err := Recompute(db, user.ID, audit.ActorSystemReconciliation)
		require.NoError(t, err)
		assert.False(t, second.Drift)
		assert.Equal(t, first.Authoritative, second.Authoritative)
	})

	t.Run("fifth confirmed referral flips the five-star flag", func(t *testing.T) {
		db := setupDB(t)
		seedYear(t, db, "2025-2026", cycleStart, true, true)
		seedDefaultSlabs(t, db)

		user := createAmbassador(t, db, "dina", 4, false)
		for i := 0; i < 5; i++ {
			createLead(t, db, user.ID, models.LeadStatusConfirmed, "2025-2026", cycleStart.AddDate(0, 1, i))
		}

		result, err := Recompute(db, user.ID, audit.ActorSystemReconciliation)
		require.NoError(t, err)

		assert.Equal(t, 5, result.Authoritative.ConfirmedCount)
		assert.True(t, result.Authoritative.IsFiveStarMember)
		require.NotNil(t, result.Benefit)
		assert.Equal(t, 15.0, result.Benefit.FeeBenefitPercent)
	})

	t.Run("two current years count as a union and surface an anomaly", func(t *testing.T) {
		db := setupDB(t)
		seedYear(t, db, "2024-2025", cycleStart.AddDate(-1, 0, 0), true, true)
		seedYear(t, db, "2025-2026", cycleStart, true, true)

		user := createAmbassador(t, db, "eli", 0, false)
		createLead(t, db, user.ID, models.LeadStatusConfirmed, "2024-2025", cycleStart.AddDate(0, -6, 0))
		createLead(t, db, user.ID, models.LeadStatusConfirmed, "2025-2026", cycleStart.AddDate(0, 1, 0))

		result, err := Recompute(db, user.ID, audit.ActorSystemReconciliation)
		require.NoError(t, err)

		assert.Equal(t, 2, result.Authoritative.ConfirmedCount)
		assert.Contains(t, anomalyKinds(result.Anomalies), AnomalyMultipleCurrentYears)
	})

	t.Run("broken slab table never blocks the count correction", func(t *testing.T) {
		db := setupDB(t)
		seedYear(t, db, "2025-2026", cycleStart, true, true)
		// threshold 0 violates the slab invariant but is insertable
		require.NoError(t, db.Create(&models.BenefitSlab{Threshold: 0, FeeBenefitPercent: 5}).Error)

		user := createAmbassador(t, db, "fred", 0, false)
		createLead(t, db, user.ID, models.LeadStatusConfirmed, "2025-2026", cycleStart.AddDate(0, 1, 0))

		result, err := Recompute(db, user.ID, audit.ActorSystemReconciliation)
		require.NoError(t, err)

		assert.True(t, result.Drift)
		assert.Nil(t, result.Benefit)
		assert.NotEmpty(t, result.BenefitError)

		var fresh models.User
		require.NoError(t, db.First(&fresh, user.ID).Error)
		assert.Equal(t, 1, fresh.ConfirmedReferralCount)
	})

	t.Run("unknown ambassador surfaces a persistence error", func(t *testing.T) {
		db := setupDB(t)
		seedYear(t, db, "2025-2026", cycleStart, true, true)

		_, err := Recompute(db, 9999, audit.ActorSystemReconciliation)
		require.Error(t, err)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})

	t.Run("stale year stamp with a current-year student still counts", func(t *testing.T) {
		db := setupDB(t)
		seedYear(t, db, "2024-2025", cycleStart.AddDate(-1, 0, 0), false, false)
		seedYear(t, db, "2025-2026", cycleStart, true, true)

		user := createAmbassador(t, db, "hana", 0, false)
		student := models.Student{Name: "Student", AdmissionNumber: "ADM-002", AcademicYear: "2025-2026"}
		require.NoError(t, db.Create(&student).Error)

		lead := createLead(t, db, user.ID, models.LeadStatusConfirmed, "2024-2025", cycleStart.AddDate(0, 1, 0))
		require.NoError(t, db.Model(&lead).Update("student_id", student.ID).Error)

		result, err := Recompute(db, user.ID, audit.ActorSystemReconciliation)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Authoritative.ConfirmedCount)
	})

	t.Run("unknown admitted year is reported, stale known years are not", func(t *testing.T) {
		db := setupDB(t)
		seedYear(t, db, "2024-2025", cycleStart.AddDate(-1, 0, 0), false, false)
		seedYear(t, db, "2025-2026", cycleStart, true, true)

		user := createAmbassador(t, db, "ivy", 0, false)
		createLead(t, db, user.ID, models.LeadStatusConfirmed, "2024-2025", cycleStart.AddDate(0, -6, 0))
		createLead(t, db, user.ID, models.LeadStatusConfirmed, "2025/2026", cycleStart.AddDate(0, 1, 0))

		result, err := Recompute(db, user.ID, audit.ActorSystemReconciliation)
		require.NoError(t, err)

		assert.Equal(t, 0, result.Authoritative.ConfirmedCount)

		var unknown []Anomaly
		for _, a := range result.Anomalies {
			if a.Kind == AnomalyUnknownAdmittedYear {
				unknown = append(unknown, a)
			}
		}
		require.Len(t, unknown, 1)
		assert.Contains(t, unknown[0].Detail, "2025/2026")
	})

	t.Run("student year qualifies a lead missing its admitted year", func(t *testing.T) {
		db := setupDB(t)
		seedYear(t, db, "2025-2026", cycleStart, true, true)

		user := createAmbassador(t, db, "gina", 0, false)
		student := models.Student{Name: "Student", AdmissionNumber: "ADM-001", AcademicYear: "2025-2026"}
		require.NoError(t, db.Create(&student).Error)

		lead := createLead(t, db, user.ID, models.LeadStatusConfirmed, "", cycleStart.AddDate(0, -3, 0))
		require.NoError(t, db.Model(&lead).Update("student_id", student.ID).Error)

		result, err := Recompute(db, user.ID, audit.ActorSystemReconciliation)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Authoritative.ConfirmedCount)
	})
}

func TestRecomputeAll(t *testing.T) {
	t.Run("one bad ambassador never aborts the batch", func(t *testing.T) {
		db := setupDB(t)
		seedYear(t, db, "2025-2026", cycleStart, true, true)

		for i := 0; i < 9; i++ {
			user := createAmbassador(t, db, fmt.Sprintf("amb%d", i), 0, false)
			createLead(t, db, user.ID, models.LeadStatusConfirmed, "2025-2026", cycleStart.AddDate(0, 1, 0))
		}
		// confirmed lead whose referrer row is gone
		createLead(t, db, 9999, models.LeadStatusConfirmed, "2025-2026", cycleStart.AddDate(0, 1, 0))

		report, err := RecomputeAll(db, BatchOptions{Workers: 1})
		require.NoError(t, err)

		assert.Equal(t, 9, report.Corrected)
		assert.Equal(t, 0, report.Consistent)
		assert.Equal(t, 1, report.Failed)
		assert.Len(t, report.Outcomes, 10)

		last := report.Outcomes[len(report.Outcomes)-1]
		assert.Equal(t, uint(9999), last.AmbassadorID)
		assert.NotEmpty(t, last.Error)
	})

	t.Run("candidates are the union of cached and lead-derived sets", func(t *testing.T) {
		db := setupDB(t)
		seedYear(t, db, "2025-2026", cycleStart, true, true)

		overCounted := createAmbassador(t, db, "over", 2, false)
		underCounted := createAmbassador(t, db, "under", 0, false)
		createLead(t, db, underCounted.ID, models.LeadStatusConfirmed, "2025-2026", cycleStart.AddDate(0, 1, 0))
		bystander := createAmbassador(t, db, "bystander", 0, false)

		report, err := RecomputeAll(db, BatchOptions{Workers: 1})
		require.NoError(t, err)

		assert.Equal(t, 2, report.Corrected)
		assert.Equal(t, 0, report.Failed)
		require.Len(t, report.Outcomes, 2)

		seen := map[uint]bool{}
		for _, outcome := range report.Outcomes {
			seen[outcome.AmbassadorID] = true
		}
		assert.True(t, seen[overCounted.ID])
		assert.True(t, seen[underCounted.ID])
		assert.False(t, seen[bystander.ID])

		var fresh models.User
		require.NoError(t, db.First(&fresh, overCounted.ID).Error)
		assert.Equal(t, 0, fresh.ConfirmedReferralCount)
	})

	t.Run("clean batch reports everything consistent", func(t *testing.T) {
		db := setupDB(t)
		seedYear(t, db, "2025-2026", cycleStart, true, true)

		user := createAmbassador(t, db, "henry", 1, false)
		createLead(t, db, user.ID, models.LeadStatusConfirmed, "2025-2026", cycleStart.AddDate(0, 1, 0))

		report, err := RecomputeAll(db, BatchOptions{Workers: 1})
		require.NoError(t, err)

		assert.Equal(t, 0, report.Corrected)
		assert.Equal(t, 1, report.Consistent)
		assert.Equal(t, 0, report.Failed)
	})
}
