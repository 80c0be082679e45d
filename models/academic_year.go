package models

import "time"

// AcademicYear represents one school-year window, e.g. "2025-2026".
// At most one year should be marked current at a time; the ledger treats
// a violation of that as a data anomaly rather than an error.
type AcademicYear struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Label     string    `gorm:"unique;not null" json:"label"`
	StartDate time.Time `gorm:"column:start_date" json:"start_date"`
	EndDate   time.Time `gorm:"column:end_date" json:"end_date"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	IsCurrent bool      `gorm:"default:false" json:"is_current"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
