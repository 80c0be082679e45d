package admin

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"ambassador-portal-server/audit"
	"ambassador-portal-server/ledger"
	"ambassador-portal-server/models"
	"ambassador-portal-server/utils"
)

func ListBenefitSlabs(c *gin.Context) {
	var slabs []models.BenefitSlab
	if err := utils.DB.Order("threshold ASC").Find(&slabs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch benefit slabs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"slabs": slabs})
}

// ReplaceBenefitSlabs swaps the whole slab table for a new one. The new
// table is validated first; a rejected table leaves the old one untouched.
func ReplaceBenefitSlabs(c *gin.Context) {
	admin := c.MustGet("user").(models.User)

	var input struct {
		Slabs []models.BenefitSlab `json:"slabs"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}
	if len(input.Slabs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "At least one slab is required"})
		return
	}

	if err := ledger.ValidateSlabs(input.Slabs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := utils.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.BenefitSlab{}).Error; err != nil {
			return err
		}
		for i := range input.Slabs {
			input.Slabs[i].ID = 0
			if err := tx.Create(&input.Slabs[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to replace benefit slabs"})
		return
	}

	if err := audit.Record(utils.DB, "benefit-slabs-replaced", audit.ModuleAdmin,
		"benefit slab table replaced", 0, actorLabel(admin),
		map[string]interface{}{"slab_count": len(input.Slabs)}); err != nil {
		log.Printf("Failed to record audit entry for slab replacement: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Benefit slabs replaced", "slabs": input.Slabs})
}
