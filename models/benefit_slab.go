package models

// BenefitSlab maps a confirmed-referral threshold to a fee discount.
// Thresholds must be distinct; resolution picks the highest threshold
// not exceeding the ambassador's confirmed count.
type BenefitSlab struct {
	ID                   uint    `gorm:"primaryKey" json:"id"`
	Threshold            int     `gorm:"unique;not null" json:"threshold"`
	FeeBenefitPercent    float64 `gorm:"column:fee_benefit_percent" json:"fee_benefit_percent"`
	LongTermExtraPercent float64 `gorm:"column:long_term_extra_percent" json:"long_term_extra_percent"`
}
