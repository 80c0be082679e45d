package models

import "time"

// Student is the enrollment record created once a referred student is
// admitted. AcademicYear holds the label of the year of admission.
type Student struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Name            string    `gorm:"not null" json:"name"`
	AdmissionNumber string    `gorm:"column:admission_number;unique" json:"admission_number"`
	AcademicYear    string    `gorm:"column:academic_year" json:"academic_year"`
	CreatedAt       time.Time `json:"created_at"`
}
