package controller

import (
	"net/http"

	"github.com/booktime/booktime-backend/internal/app/service"
	apperrors "github.com/booktime/booktime-backend/internal/errors"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReportController struct {
	reportService service.ReportService
}

func NewReportController(reportService service.ReportService) *ReportController {
	return &ReportController{
		reportService: reportService,
	}
}

func reportParams(c *gin.Context) (days, period int, ok bool) {
	if days, ok = intQuery(c, "days"); !ok {
		return 0, 0, false
	}
	if period, ok = intQuery(c, "period"); !ok {
		return 0, 0, false
	}
	return days, period, true
}

// Sales returns orders per day and the most bought products
// GET /api/v1/admin/reports/sales?days=180&period=30
func (ctrl *ReportController) Sales(c *gin.Context) {
	days, period, ok := reportParams(c)
	if !ok {
		return
	}

	report, err := ctrl.reportService.Sales(c.Request.Context(), days, period)
	if err != nil {
		apperrors.RespondServiceError(c, err, "sales report")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"report":  report,
		"periods": service.TopProductPeriods,
	})
}

// Export returns the sales report as a spreadsheet
// GET /api/v1/admin/reports/sales/export?days=180&period=30
func (ctrl *ReportController) Export(c *gin.Context) {
	days, period, ok := reportParams(c)
	if !ok {
		return
	}

	data, err := ctrl.reportService.ExportXLSX(c.Request.Context(), days, period)
	if err != nil {
		apperrors.RespondServiceError(c, err, "sales report")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="sales-report.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}
