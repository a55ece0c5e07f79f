package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/labdesk/labdesk_backend/controllers"
	"github.com/labdesk/labdesk_backend/middleware"
	"github.com/labdesk/labdesk_backend/models"
)

// RegisterStaffRoutes sets up doctor, employee, attendance and payroll routes
func RegisterStaffRoutes(protected *echo.Group, staff *controllers.StaffController, attendance *controllers.AttendanceController, payroll *controllers.PayrollController) {
	protected.POST("/doctors", staff.CreateDoctor, adminOnly)
	protected.GET("/doctors", staff.ListDoctors, staffOnly)
	protected.POST("/employees", staff.CreateEmployee, adminOnly)
	protected.GET("/employees", staff.ListEmployees, adminOnly)

	att := protected.Group("/attendance")
	att.POST("/mark", attendance.MarkAttendance, adminOnly)
	att.POST("/punch-in", attendance.PunchIn, middleware.RequireRole(models.RoleEmployee))
	att.POST("/punch-out", attendance.PunchOut, middleware.RequireRole(models.RoleEmployee))
	att.POST("/:id/approve", attendance.ApproveAttendance, adminOnly)
	att.GET("/employee/:id", attendance.GetEmployeeAttendance, adminOnly)
	att.GET("/date/:date", attendance.GetAttendanceByDate, adminOnly)

	pay := protected.Group("/payroll")
	pay.POST("/generate-salary", payroll.GenerateSalary, adminOnly)
	pay.GET("/slips/:id", payroll.GetSalarySlips, staffOnly)
}
