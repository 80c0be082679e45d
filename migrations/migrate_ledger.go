package migrations

import (
	"ambassador-portal-server/models"
	"ambassador-portal-server/utils"
)

func MigrateLedger() {
	utils.DB.AutoMigrate(
		&models.User{},
		&models.Student{},
		&models.ReferralLead{},
		&models.AcademicYear{},
		&models.BenefitSlab{},
		&models.AuditLog{},
	)
}
