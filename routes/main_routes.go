package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/labdesk/labdesk_backend/controllers"
	"github.com/labdesk/labdesk_backend/middleware"
	"github.com/labdesk/labdesk_backend/models"
	"github.com/labdesk/labdesk_backend/websocket"
)

// Controllers bundles every handler set the router mounts
type Controllers struct {
	Auth         *controllers.AuthController
	Admin        *controllers.AdminController
	Staff        *controllers.StaffController
	Booking      *controllers.BookingController
	Commission   *controllers.CommissionController
	Attendance   *controllers.AttendanceController
	Payroll      *controllers.PayrollController
	Prescription *controllers.PrescriptionController
	Report       *controllers.ReportController
	Inventory    *controllers.InventoryController
}

var (
	adminOnly = middleware.RequireRole(models.RoleAdmin)
	staffOnly = middleware.RequireRole(models.RoleAdmin, models.RoleEmployee)
)

// SetupRoutes configures all API routes by calling individual route registration functions
func SetupRoutes(e *echo.Echo, h Controllers, hub *websocket.Hub) {
	api := e.Group("/api")

	// public
	RegisterAuthRoutes(api, h.Auth)
	RegisterPublicReportRoutes(api, h.Report)

	protected := api.Group("")
	protected.Use(middleware.JWTMiddleware())

	protected.GET("/auth/me", h.Auth.Me)
	RegisterAdminRoutes(protected, h.Admin, h.Inventory)
	RegisterStaffRoutes(protected, h.Staff, h.Attendance, h.Payroll)
	RegisterBookingRoutes(protected, h.Booking, h.Commission)
	RegisterDocumentRoutes(protected, h.Prescription, h.Report)

	RegisterWebSocketRoutes(api, hub)
	RegisterFileRoutes(e)
}
