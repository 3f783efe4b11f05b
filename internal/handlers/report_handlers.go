package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	common *CommonServices
}

func NewReportHandler(common *CommonServices) *ReportHandler {
	return &ReportHandler{common: common}
}

// AgingReport godoc
// @Summary Receivables aging report
// @Description Buckets outstanding (Invoiced and Sent) amounts by days past due.
// @Tags reports
// @Produce json
// @Success 200 {object} business.AgingReport
// @Security BearerAuth
// @Router /reports/aging [get]
func (h *ReportHandler) AgingReport(c *gin.Context) {
	report, err := h.common.reports.AgingReport(c.Request.Context(), time.Now())
	if err != nil {
		handleServiceError(c, err, "Report not found")
		return
	}

	c.JSON(http.StatusOK, report)
}

// Dashboard godoc
// @Summary Dashboard summary
// @Description Returns receivables totals, overdue counts, monthly revenue and per-dimension aggregates. The summary is cached and invalidated on writes.
// @Tags reports
// @Produce json
// @Success 200 {object} business.DashboardSummary
// @Security BearerAuth
// @Router /reports/dashboard [get]
func (h *ReportHandler) Dashboard(c *gin.Context) {
	summary, err := h.common.reports.Dashboard(c.Request.Context(), time.Now())
	if err != nil {
		handleServiceError(c, err, "Report not found")
		return
	}

	c.JSON(http.StatusOK, summary)
}
