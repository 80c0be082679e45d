package admin

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ambassador-portal-server/ledger"
	"ambassador-portal-server/models"
	"ambassador-portal-server/utils"
)

// RunReconciliation recomputes the ledger for every ambassador that could
// have drifted and returns the batch report. Individual failures are part of
// the report, never a failed response.
func RunReconciliation(c *gin.Context) {
	admin := c.MustGet("user").(models.User)

	report, err := ledger.RecomputeAll(utils.DB, ledger.BatchOptions{
		Actor: actorLabel(admin),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": report})
}

// ReconcileAmbassador recomputes a single ambassador's ledger on demand.
func ReconcileAmbassador(c *gin.Context) {
	admin := c.MustGet("user").(models.User)

	ambassadorID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ambassador id"})
		return
	}

	result, err := ledger.Recompute(utils.DB, uint(ambassadorID), actorLabel(admin))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reconciliation": result})
}
