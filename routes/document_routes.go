package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/labdesk/labdesk_backend/controllers"
)

// RegisterDocumentRoutes sets up prescription uploads and report management
func RegisterDocumentRoutes(protected *echo.Group, prescriptions *controllers.PrescriptionController, reports *controllers.ReportController) {
	protected.POST("/prescriptions/upload", prescriptions.UploadPrescription)
	protected.GET("/prescriptions/mine", prescriptions.GetMyPrescriptions)

	protected.POST("/reports/upload", reports.UploadReport, staffOnly)
	protected.PUT("/reports/:id/publish", reports.PublishReport, staffOnly)
}
