// seed/seed.go
package seed

import (
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"ambassador-portal-server/models"
	"ambassador-portal-server/utils"
)

// SeedBenefitSlabs installs the default tier table when none exists.
func SeedBenefitSlabs() error {
	var count int64
	if err := utils.DB.Model(&models.BenefitSlab{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Println("Benefit slabs already exist. Skipping seeding.")
		return nil
	}

	slabs := []models.BenefitSlab{
		{Threshold: 1, FeeBenefitPercent: 5, LongTermExtraPercent: 0},
		{Threshold: 2, FeeBenefitPercent: 7, LongTermExtraPercent: 0},
		{Threshold: 3, FeeBenefitPercent: 10, LongTermExtraPercent: 1},
		{Threshold: 4, FeeBenefitPercent: 12, LongTermExtraPercent: 2},
		{Threshold: 5, FeeBenefitPercent: 15, LongTermExtraPercent: 3},
	}

	for _, slab := range slabs {
		if err := utils.DB.Create(&slab).Error; err != nil {
			return err
		}
	}

	log.Println("Default benefit slabs seeded successfully.")
	return nil
}

// SeedAcademicYear makes sure a current academic year exists so eligibility
// never has to lean on the time fallback right after a fresh install.
func SeedAcademicYear() error {
	var existing models.AcademicYear
	err := utils.DB.Where("is_current = ?", true).First(&existing).Error
	if err == nil {
		log.Println("Current academic year already exists. Skipping seeding.")
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	now := time.Now()
	startYear := now.Year()
	// School years run June to May
	if now.Month() < time.June {
		startYear--
	}

	year := models.AcademicYear{
		Label:     fmt.Sprintf("%d-%d", startYear, startYear+1),
		StartDate: time.Date(startYear, time.June, 1, 0, 0, 0, 0, time.Local),
		EndDate:   time.Date(startYear+1, time.May, 31, 0, 0, 0, 0, time.Local),
		IsActive:  true,
		IsCurrent: true,
	}

	if err := utils.DB.Create(&year).Error; err != nil {
		return err
	}

	log.Printf("Academic year %s seeded as current.", year.Label)
	return nil
}
