package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/labdesk/labdesk_backend/controllers"
)

// RegisterAuthRoutes sets up the phone OTP login routes
func RegisterAuthRoutes(api *echo.Group, authController *controllers.AuthController) {
	auth := api.Group("/auth")
	auth.POST("/send-otp", authController.SendOTP)
	auth.POST("/verify-otp", authController.VerifyOTP)
}

// RegisterPublicReportRoutes exposes OTP-gated report download
func RegisterPublicReportRoutes(api *echo.Group, reportController *controllers.ReportController) {
	api.POST("/reports/send-otp", reportController.SendReportOTP)
	api.POST("/reports/download", reportController.DownloadReport)
}
