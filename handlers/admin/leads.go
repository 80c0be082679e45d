package admin

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"ambassador-portal-server/audit"
	"ambassador-portal-server/ledger"
	"ambassador-portal-server/models"
	"ambassador-portal-server/utils"
)

func actorLabel(user models.User) string {
	return fmt.Sprintf("admin:%d", user.ID)
}

func ListLeads(c *gin.Context) {
	status := c.Query("status")

	query := utils.DB.Preload("Student").Order("created_at DESC")
	if status != "" {
		query = query.Where("lead_status = ?", status)
	}

	var leads []models.ReferralLead
	if err := query.Find(&leads).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch leads"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"leads": leads})
}

// ConfirmLead finalizes an admission: it creates the enrollment record,
// stamps the lead with the admitted year label and recomputes the referring
// ambassador's ledger, all as one transaction.
func ConfirmLead(c *gin.Context) {
	admin := c.MustGet("user").(models.User)

	var input struct {
		AdmissionNumber string  `json:"admission_number"`
		AcademicYear    string  `json:"academic_year"`
		FeeAmount       float64 `json:"fee_amount"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	var result *ledger.ReconciliationResult
	var lead models.ReferralLead
	var wasFiveStar bool

	err := utils.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&lead, c.Param("id")).Error; err != nil {
			return fmt.Errorf("lead not found: %w", err)
		}
		if lead.LeadStatus == models.LeadStatusConfirmed {
			return fmt.Errorf("lead %d is already confirmed", lead.ID)
		}

		yearLabel := input.AcademicYear
		if yearLabel == "" {
			var current models.AcademicYear
			if err := tx.Where("is_current = ?", true).First(&current).Error; err != nil {
				return fmt.Errorf("no current academic year configured: %w", err)
			}
			yearLabel = current.Label
		} else {
			var year models.AcademicYear
			if err := tx.Where("label = ?", yearLabel).First(&year).Error; err != nil {
				return fmt.Errorf("unknown academic year %q: %w", yearLabel, err)
			}
		}

		student := models.Student{
			Name:            lead.StudentName,
			AdmissionNumber: input.AdmissionNumber,
			AcademicYear:    yearLabel,
		}
		if err := tx.Create(&student).Error; err != nil {
			return fmt.Errorf("failed to create student record: %w", err)
		}

		updates := map[string]interface{}{
			"lead_status":   models.LeadStatusConfirmed,
			"admitted_year": yearLabel,
			"student_id":    student.ID,
		}
		if input.FeeAmount > 0 {
			updates["fee_amount"] = input.FeeAmount
		}
		if err := tx.Model(&lead).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to confirm lead: %w", err)
		}

		if err := audit.Record(tx, "lead-confirmed", audit.ModuleReferrals,
			"lead confirmed and student enrolled", lead.ID, actorLabel(admin),
			map[string]interface{}{
				"student_id":    student.ID,
				"admitted_year": yearLabel,
			}); err != nil {
			log.Printf("Failed to record audit entry for lead %d: %v", lead.ID, err)
		}

		var referrer models.User
		if err := tx.First(&referrer, lead.ReferrerID).Error; err != nil {
			return fmt.Errorf("referrer not found: %w", err)
		}
		wasFiveStar = referrer.IsFiveStarMember

		r, err := ledger.Recompute(tx, lead.ReferrerID, actorLabel(admin))
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	if result.Authoritative.IsFiveStarMember && !wasFiveStar {
		notifyFiveStar(lead.ReferrerID, result)
	}

	c.JSON(http.StatusOK, gin.H{
		"message":        "Lead confirmed successfully",
		"reconciliation": result,
	})
}

// RejectLead marks a lead rejected and recomputes the ambassador's ledger in
// the same transaction, so a mistaken earlier confirmation is corrected too.
func RejectLead(c *gin.Context) {
	admin := c.MustGet("user").(models.User)

	var result *ledger.ReconciliationResult

	err := utils.DB.Transaction(func(tx *gorm.DB) error {
		var lead models.ReferralLead
		if err := tx.First(&lead, c.Param("id")).Error; err != nil {
			return fmt.Errorf("lead not found: %w", err)
		}

		previous := lead.LeadStatus
		if err := tx.Model(&lead).Update("lead_status", models.LeadStatusRejected).Error; err != nil {
			return fmt.Errorf("failed to reject lead: %w", err)
		}

		if err := audit.Record(tx, "lead-rejected", audit.ModuleReferrals,
			"lead rejected", lead.ID, actorLabel(admin),
			map[string]interface{}{"previous_status": previous}); err != nil {
			log.Printf("Failed to record audit entry for lead %d: %v", lead.ID, err)
		}

		r, err := ledger.Recompute(tx, lead.ReferrerID, actorLabel(admin))
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":        "Lead rejected",
		"reconciliation": result,
	})
}

func notifyFiveStar(ambassadorID uint, result *ledger.ReconciliationResult) {
	var ambassador models.User
	if err := utils.DB.First(&ambassador, ambassadorID).Error; err != nil {
		log.Printf("Failed to load ambassador %d for five-star notification: %v", ambassadorID, err)
		return
	}

	percent := 0.0
	if result.Benefit != nil {
		percent = result.Benefit.FeeBenefitPercent
	}

	notification := models.Notification{
		UserID: ambassador.ID,
		Title:  "5-Star Ambassador",
		Body:   "Congratulations! You are now a 5-Star Ambassador.",
	}
	if err := utils.DB.Create(&notification).Error; err != nil {
		log.Printf("Failed to create five-star notification for user %d: %v", ambassador.ID, err)
	}

	utils.SendFiveStarEmail(ambassador.Email, ambassador.Name, percent)
	if ambassador.PushToken != "" {
		utils.SendPushNotification(ambassador.PushToken, "5-Star Ambassador", "Congratulations! You are now a 5-Star Ambassador.")
	}
}
