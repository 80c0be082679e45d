package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog is append-only. Every write the ledger performs lands here with
// the actor and the before/after values in Metadata.
type AuditLog struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Action      string         `gorm:"not null;index" json:"action"`
	Module      string         `gorm:"not null" json:"module"`
	Description string         `json:"description"`
	TargetID    uint           `gorm:"column:target_id;index" json:"target_id"`
	Actor       string         `gorm:"not null" json:"actor"`
	Metadata    datatypes.JSON `json:"metadata"`
	CreatedAt   time.Time      `json:"created_at"`
}
