package handlers

import (
	"net/http"
	"time"

	"cafe_backoffice/internal/models"
	"cafe_backoffice/internal/services"
	"cafe_backoffice/pkg/utils"

	"github.com/gin-gonic/gin"
)

const defaultReportPeriod = models.PeriodMonth

// ReportHandler serves the aggregated sales reports.
type ReportHandler struct {
	reportService services.ReportService
	loc           *time.Location
}

// NewReportHandler creates a new ReportHandler. The date parameter is read in loc.
func NewReportHandler(rs services.ReportService, loc *time.Location) *ReportHandler {
	if loc == nil {
		loc = time.Local
	}
	return &ReportHandler{reportService: rs, loc: loc}
}

// parseReportParams reads period (default month) and date (default today).
func (h *ReportHandler) parseReportParams(c *gin.Context) (string, time.Time, bool) {
	period := c.DefaultQuery("period", defaultReportPeriod)
	date, err := utils.OptionalDate(c.Query("date"), h.loc)
	if err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return "", time.Time{}, false
	}
	ref := time.Now().In(h.loc)
	if date != nil {
		ref = *date
	}
	return period, ref, true
}

// GetReport handles GET /reports/:type for sales, products, customers and categories.
func (h *ReportHandler) GetReport(c *gin.Context) {
	period, ref, ok := h.parseReportParams(c)
	if !ok {
		return
	}
	report, err := h.reportService.Report(c.Request.Context(), c.Param("type"), period, ref)
	if err != nil {
		respondServiceError(c, err, "Build report")
		return
	}
	utils.RespondOK(c, http.StatusOK, report)
}

func (h *ReportHandler) GetDashboardSummary(c *gin.Context) {
	period, ref, ok := h.parseReportParams(c)
	if !ok {
		return
	}
	summary, err := h.reportService.DashboardSummary(c.Request.Context(), period, ref)
	if err != nil {
		respondServiceError(c, err, "Dashboard summary")
		return
	}
	utils.RespondOK(c, http.StatusOK, summary)
}
