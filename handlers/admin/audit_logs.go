package admin

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ambassador-portal-server/models"
	"ambassador-portal-server/utils"
)

func ListAuditLogs(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 1000 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Limit must be between 1 and 1000"})
			return
		}
		limit = parsed
	}

	query := utils.DB.Order("created_at DESC").Limit(limit)
	if action := c.Query("action"); action != "" {
		query = query.Where("action = ?", action)
	}
	if target := c.Query("target_id"); target != "" {
		query = query.Where("target_id = ?", target)
	}

	var logs []models.AuditLog
	if err := query.Find(&logs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch audit logs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"audit_logs": logs})
}
