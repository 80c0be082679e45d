package models

import "time"

// Lead lifecycle statuses. Only Confirmed leads ever count toward an
// ambassador's benefit total.
const (
	LeadStatusPending   = "Pending"
	LeadStatusContacted = "Contacted"
	LeadStatusVisited   = "Visited"
	LeadStatusConfirmed = "Confirmed"
	LeadStatusRejected  = "Rejected"
)

type ReferralLead struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ReferrerID   uint      `gorm:"column:referrer_id;index" json:"referrer_id"`
	ParentName   string    `gorm:"column:parent_name" json:"parent_name"`
	ParentPhone  string    `gorm:"column:parent_phone" json:"parent_phone"`
	StudentName  string    `gorm:"column:student_name" json:"student_name"`
	ClassApplied string    `gorm:"column:class_applied" json:"class_applied"`
	LeadStatus   string    `gorm:"column:lead_status;default:Pending" json:"lead_status"`
	AdmittedYear string    `gorm:"column:admitted_year" json:"admitted_year"`
	FeeAmount    float64   `gorm:"column:fee_amount" json:"fee_amount"`
	StudentID    *uint     `gorm:"column:student_id" json:"student_id"`
	Student      *Student  `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ResetForSubmission clears every server-owned field before a freshly bound
// lead is stored. The request payload binds straight into the struct, so
// status, year stamp, fee, student link and timestamps must all be forced
// back to their initial values here.
func (l *ReferralLead) ResetForSubmission(referrerID uint) {
	l.ID = 0
	l.ReferrerID = referrerID
	l.LeadStatus = LeadStatusPending
	l.AdmittedYear = ""
	l.StudentID = nil
	l.Student = nil
	l.FeeAmount = 0
	l.CreatedAt = time.Time{}
	l.UpdatedAt = time.Time{}
}
