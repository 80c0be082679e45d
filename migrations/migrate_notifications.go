package migrations

import (
	"ambassador-portal-server/models"
	"ambassador-portal-server/utils"
)

func MigrateNotifications() {
	utils.DB.AutoMigrate(&models.Notification{})
}
