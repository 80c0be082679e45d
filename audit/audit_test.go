package audit

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"ambassador-portal-server/models"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:audit_test?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.AuditLog{}))
	return db
}

func TestRecord(t *testing.T) {
	db := setupDB(t)

	err := Record(db, "ledger-correction", ModuleLedger, "corrected confirmed referral count",
		42, ActorSystemReconciliation, map[string]interface{}{
			"field":    "confirmed_referral_count",
			"previous": 6,
			"new":      1,
		})
	require.NoError(t, err)

	var entry models.AuditLog
	require.NoError(t, db.First(&entry).Error)

	assert.Equal(t, "ledger-correction", entry.Action)
	assert.Equal(t, ModuleLedger, entry.Module)
	assert.Equal(t, uint(42), entry.TargetID)
	assert.Equal(t, ActorSystemReconciliation, entry.Actor)
	assert.False(t, entry.CreatedAt.IsZero())

	var metadata map[string]interface{}
	require.NoError(t, json.Unmarshal(entry.Metadata, &metadata))
	assert.Equal(t, "confirmed_referral_count", metadata["field"])
	assert.Equal(t, float64(6), metadata["previous"])
	assert.Equal(t, float64(1), metadata["new"])
}

func TestRecordWithoutMetadata(t *testing.T) {
	db := setupDB(t)

	err := Record(db, "lead-confirmed", ModuleReferrals, "lead confirmed", 7, "admin:1", nil)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.AuditLog{}).Where("action = ?", "lead-confirmed").Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
