package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/labdesk/labdesk_backend/controllers"
)

// RegisterBookingRoutes sets up booking and commission routes
func RegisterBookingRoutes(protected *echo.Group, bookings *controllers.BookingController, commissions *controllers.CommissionController) {
	b := protected.Group("/bookings")
	b.POST("", bookings.CreateBooking)
	b.GET("/mine", bookings.GetMyBookings)
	b.GET("", bookings.ListBookings, staffOnly)
	b.GET("/:id", bookings.GetBooking)
	b.PUT("/:id/status", bookings.UpdateBookingStatus, adminOnly)
	b.GET("/:id/label", bookings.GetSampleLabel)

	rules := protected.Group("/commission-rules", adminOnly)
	rules.POST("", commissions.CreateRule)
	rules.GET("", commissions.ListRules)
	rules.DELETE("/:id", commissions.DeactivateRule)
	rules.POST("/preview", commissions.Preview)

	protected.GET("/doctors/:id/commission-report", commissions.CommissionReport, adminOnly)
	protected.GET("/doctors/:id/commission-summary", commissions.CommissionSummary, adminOnly)
}
