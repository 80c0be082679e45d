package models

import (
	"time"

	"gorm.io/gorm"
)

// Ambassador roles
const (
	RoleParent = "Parent"
	RoleStaff  = "Staff"
	RoleAlumni = "Alumni"
	RoleOther  = "Other"
	RoleAdmin  = "Admin"
)

type User struct {
	gorm.Model
	Name         string `gorm:"not null" json:"name"`
	Email        string `gorm:"unique;not null" json:"email"`
	PhoneNumber  string `json:"phone_number"`
	Password     string `gorm:"not null" json:"-"`
	Role         string `gorm:"not null;default:Parent" json:"role"`
	ReferralCode string `gorm:"unique;not null" json:"referral_code"`

	// Cached derived values. Source of truth is always the referral_leads
	// rows; only the ledger recomputation writes these.
	ConfirmedReferralCount int  `gorm:"default:0" json:"confirmed_referral_count"`
	IsFiveStarMember       bool `gorm:"default:false" json:"is_five_star_member"`

	Verified       bool       `gorm:"default:false" json:"verified"`
	PushToken      string     `gorm:"column:push_token" json:"push_token"`
	RefreshToken   string     `json:"-"`
	OTP            string     `json:"-"`
	OTPGeneratedAt *time.Time `json:"-"`
}
