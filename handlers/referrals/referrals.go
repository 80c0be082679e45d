package referrals

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ambassador-portal-server/ledger"
	"ambassador-portal-server/models"
	"ambassador-portal-server/utils"
)

// SubmitReferral records a new referral lead for the signed-in ambassador.
// Leads always start Pending; only an admin confirmation moves them on.
func SubmitReferral(c *gin.Context) {
	var lead models.ReferralLead
	if err := c.ShouldBindJSON(&lead); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if lead.ParentName == "" || lead.StudentName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Parent name and student name are required"})
		return
	}

	// Get the user from the context
	userInterface, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in context"})
		return
	}
	user := userInterface.(models.User)

	lead.ResetForSubmission(user.ID)

	if err := utils.DB.Create(&lead).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit referral"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Referral submitted successfully", "lead": lead})
}

func GetUserReferrals(c *gin.Context) {
	userInterface, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in context"})
		return
	}
	user := userInterface.(models.User)

	var leads []models.ReferralLead
	if err := utils.DB.Preload("Student").Where("referrer_id = ?", user.ID).Order("created_at DESC").Find(&leads).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch referrals"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"referrals": leads})
}

// GetBenefitSummary reports the signed-in ambassador's confirmed count,
// five-star status and the fee benefit their count currently resolves to.
func GetBenefitSummary(c *gin.Context) {
	userInterface, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in context"})
		return
	}
	user := userInterface.(models.User)

	// Re-read: the cached count may have been corrected since the token's
	// user snapshot was loaded.
	var fresh models.User
	if err := utils.DB.First(&fresh, user.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load ambassador record"})
		return
	}

	var slabs []models.BenefitSlab
	if err := utils.DB.Find(&slabs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load benefit slabs"})
		return
	}

	benefit, err := ledger.ResolveBenefit(fresh.ConfirmedReferralCount, slabs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"confirmed_referral_count": fresh.ConfirmedReferralCount,
		"is_five_star_member":      fresh.IsFiveStarMember,
		"benefit":                  benefit,
	})
}
