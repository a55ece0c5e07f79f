package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/labdesk/labdesk_backend/controllers"
)

// RegisterAdminRoutes sets up user administration, commission maintenance
// and inventory routes
func RegisterAdminRoutes(protected *echo.Group, adminController *controllers.AdminController, inventoryController *controllers.InventoryController) {
	admin := protected.Group("/admin")

	// any signed-in user who knows ADMIN_SECRET_KEY
	admin.POST("/claim-admin", adminController.ClaimAdmin)

	admin.POST("/assign-role", adminController.AssignRole, adminOnly)
	admin.GET("/users", adminController.ListUsers, adminOnly)
	admin.POST("/bookings/:id/recalculate-commission", adminController.RecalculateCommission, adminOnly)
	admin.POST("/commissions/retry", adminController.RetryCommissions, adminOnly)

	inventory := protected.Group("/inventory", staffOnly)
	inventory.POST("", inventoryController.AddItem)
	inventory.GET("", inventoryController.ListItems)
	inventory.PATCH("/:id/adjust", inventoryController.AdjustStock)
}
