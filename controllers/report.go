// controllers/report.go
package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"salonreach-backend/services"
	"salonreach-backend/utils"
)

// ReportController serves outreach analytics.
type ReportController struct {
	Reports *services.ReportService
}

// GetDailySummary returns yesterday's outreach numbers.
func (rc *ReportController) GetDailySummary(c *gin.Context) {
	summary, err := rc.Reports.DailySummary(c.Request.Context())
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to build daily summary")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetWeeklySummary returns the last seven days of outreach numbers.
func (rc *ReportController) GetWeeklySummary(c *gin.Context) {
	summary, err := rc.Reports.WeeklySummary(c.Request.Context())
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to build weekly summary")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetRangeSummary returns numbers for an arbitrary date range.
func (rc *ReportController) GetRangeSummary(c *gin.Context) {
	start, err := time.Parse("2006-01-02", c.Query("from"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid from date, expected YYYY-MM-DD")
		return
	}
	end, err := time.Parse("2006-01-02", c.Query("to"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid to date, expected YYYY-MM-DD")
		return
	}
	if !end.After(start) {
		utils.RespondWithError(c, http.StatusBadRequest, "to must be after from")
		return
	}

	summary, err := rc.Reports.Summarize(c.Request.Context(), start, end)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to build summary")
		return
	}
	c.JSON(http.StatusOK, summary)
}
