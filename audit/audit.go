package audit

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"ambassador-portal-server/models"
)

// Actor used for ledger corrections applied by the maintenance job rather
// than a signed-in admin.
const ActorSystemReconciliation = "system-reconciliation"

// Modules recorded in audit rows
const (
	ModuleLedger    = "ledger"
	ModuleReferrals = "referrals"
	ModuleAdmin     = "admin"
)

// Record appends one audit row. Callers treat a failure here as non-fatal:
// the primary write stands and the failure is logged locally.
func Record(db *gorm.DB, action, module, description string, targetID uint, actor string, metadata map[string]interface{}) error {
	entry := models.AuditLog{
		Action:      action,
		Module:      module,
		Description: description,
		TargetID:    targetID,
		Actor:       actor,
	}

	if metadata != nil {
		raw, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("marshal audit metadata: %w", err)
		}
		entry.Metadata = datatypes.JSON(raw)
	}

	if err := db.Create(&entry).Error; err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}
