package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/labdesk/labdesk_backend/middleware"
	"github.com/labdesk/labdesk_backend/models"
	"github.com/labdesk/labdesk_backend/repositories"
	"github.com/labdesk/labdesk_backend/utils"
)

// PayrollController generates salary slips from attendance
type PayrollController struct {
	employees  EmployeeStore
	attendance AttendanceStore
	slips      SalarySlipStore
	mailer     SlipMailer
}

// NewPayrollController creates a new payroll controller. mailer may be nil.
func NewPayrollController(employees EmployeeStore, attendance AttendanceStore, slips SalarySlipStore, mailer SlipMailer) *PayrollController {
	return &PayrollController{employees: employees, attendance: attendance, slips: slips, mailer: mailer}
}

// GenerateSalary computes the slip of one employee for a month. Generating the
// same month again replaces the figures.
func (pc *PayrollController) GenerateSalary(c echo.Context) error {
	var req models.GenerateSalaryRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	from, to, label, err := utils.MonthRange(req.Year, req.Month)
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	employee, err := pc.employees.FindByID(ctx, req.EmployeeID)
	if errors.Is(err, repositories.ErrNotFound) {
		return fail(c, http.StatusNotFound, "Employee not found")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to load employee")
	}

	records, err := pc.attendance.ListByEmployeeBetween(ctx, employee.ID, from, to)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to load attendance")
	}
	days := utils.PayableDays(records)

	slip := &models.SalarySlip{
		EmployeeID:  employee.ID,
		Month:       label,
		PresentDays: days,
		BaseSalary:  employee.BaseSalary,
		Amount:      utils.CalculateSalary(employee.BaseSalary, days),
		CreatedAt:   time.Now(),
	}
	if err := pc.slips.Upsert(ctx, slip); err != nil {
		c.Logger().Errorf("Failed to save salary slip for employee %d: %v", employee.ID, err)
		return fail(c, http.StatusInternalServerError, "Failed to save salary slip")
	}

	emailed := false
	if pc.mailer != nil && pc.mailer.Configured() && employee.Email != "" {
		if err := pc.mailer.SendSalarySlip(employee.Email, employee.Name, label, days, slip.Amount); err != nil {
			c.Logger().Warnf("Salary slip email to %s failed: %v", employee.Email, err)
		} else {
			emailed = true
		}
	}

	return respond(c, http.StatusOK, "Salary generated", map[string]interface{}{
		"slip":    slip,
		"emailed": emailed,
	})
}

// GetSalarySlips lists an employee's slips. Employees may only read their own.
func (pc *PayrollController) GetSalarySlips(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "Invalid employee ID")
	}

	ctx := c.Request().Context()
	if middleware.ExtractRole(c) != models.RoleAdmin {
		userID, err := middleware.ExtractUserID(c)
		if err != nil {
			return fail(c, http.StatusUnauthorized, "Unauthorized")
		}
		own, err := pc.employees.FindByUserID(ctx, userID)
		if err != nil || own.ID != id {
			return fail(c, http.StatusForbidden, "Access denied")
		}
	}

	slips, err := pc.slips.ListByEmployee(ctx, id)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to load salary slips")
	}
	return respond(c, http.StatusOK, "Salary slips retrieved", slips)
}
