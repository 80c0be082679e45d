package admin

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"ambassador-portal-server/audit"
	"ambassador-portal-server/models"
	"ambassador-portal-server/utils"
)

func ListAcademicYears(c *gin.Context) {
	var years []models.AcademicYear
	if err := utils.DB.Order("start_date DESC").Find(&years).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch academic years"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"academic_years": years})
}

// UpsertAcademicYear creates or updates a year by label. Marking a year
// current clears the flag on every other year in the same transaction, so
// the single-current invariant survives a rollover.
func UpsertAcademicYear(c *gin.Context) {
	admin := c.MustGet("user").(models.User)

	var input struct {
		Label     string    `json:"label"`
		StartDate time.Time `json:"start_date"`
		EndDate   time.Time `json:"end_date"`
		IsActive  *bool     `json:"is_active"`
		IsCurrent bool      `json:"is_current"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}
	if input.Label == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Label is required"})
		return
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	var year models.AcademicYear
	err := utils.DB.Transaction(func(tx *gorm.DB) error {
		if input.IsCurrent {
			if err := tx.Model(&models.AcademicYear{}).
				Where("is_current = ?", true).
				Update("is_current", false).Error; err != nil {
				return err
			}
		}

		err := tx.Where("label = ?", input.Label).First(&year).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			year = models.AcademicYear{
				Label:     input.Label,
				StartDate: input.StartDate,
				EndDate:   input.EndDate,
				IsActive:  isActive,
				IsCurrent: input.IsCurrent,
			}
			return tx.Create(&year).Error
		}
		if err != nil {
			return err
		}

		return tx.Model(&year).Updates(map[string]interface{}{
			"start_date": input.StartDate,
			"end_date":   input.EndDate,
			"is_active":  isActive,
			"is_current": input.IsCurrent,
		}).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save academic year"})
		return
	}

	if err := audit.Record(utils.DB, "academic-year-upserted", audit.ModuleAdmin,
		"academic year created or updated", year.ID, actorLabel(admin),
		map[string]interface{}{
			"label":      input.Label,
			"is_active":  isActive,
			"is_current": input.IsCurrent,
		}); err != nil {
		log.Printf("Failed to record audit entry for academic year %q: %v", input.Label, err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Academic year saved", "academic_year": year})
}
