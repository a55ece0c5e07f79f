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

// AttendanceController records employee attendance
type AttendanceController struct {
	attendance AttendanceStore
	employees  EmployeeStore
	now        func() time.Time
}

// NewAttendanceController creates a new attendance controller
func NewAttendanceController(attendance AttendanceStore, employees EmployeeStore) *AttendanceController {
	return &AttendanceController{attendance: attendance, employees: employees, now: time.Now}
}

// MarkAttendance lets an admin record a day directly. Admin entries are approved.
func (ac *AttendanceController) MarkAttendance(c echo.Context) error {
	var req models.MarkAttendanceRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	date := req.Date
	if date == "" {
		date = ac.now().Format(models.DateLayout)
	} else if _, err := time.Parse(models.DateLayout, date); err != nil {
		return fail(c, http.StatusBadRequest, "date must be YYYY-MM-DD")
	}
	present := true
	if req.Present != nil {
		present = *req.Present
	}

	ctx := c.Request().Context()
	if ok, err := ac.checkEmployee(c, req.EmployeeID); !ok {
		return err
	}

	adminID, _ := middleware.ExtractUserID(c)
	now := ac.now()
	record := &models.Attendance{
		EmployeeID: req.EmployeeID,
		Date:       date,
		Present:    present,
		Status:     models.AttendanceApproved,
		ApprovedBy: &adminID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	err := ac.attendance.Create(ctx, record)
	if errors.Is(err, repositories.ErrDuplicate) {
		return fail(c, http.StatusConflict, "Attendance already recorded for this day")
	}
	if err != nil {
		c.Logger().Errorf("Failed to mark attendance: %v", err)
		return fail(c, http.StatusInternalServerError, "Failed to mark attendance")
	}
	return respond(c, http.StatusCreated, "Attendance marked", record)
}

// PunchIn opens today's record for the calling employee
func (ac *AttendanceController) PunchIn(c echo.Context) error {
	employee, ok, err := ac.currentEmployee(c)
	if !ok {
		return err
	}

	now := ac.now()
	record := &models.Attendance{
		EmployeeID: employee.ID,
		Date:       now.Format(models.DateLayout),
		Present:    true,
		EntryTime:  &now,
		Status:     models.AttendancePending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	err = ac.attendance.Create(c.Request().Context(), record)
	if errors.Is(err, repositories.ErrDuplicate) {
		return fail(c, http.StatusConflict, "Already punched in today")
	}
	if err != nil {
		c.Logger().Errorf("Punch in failed for employee %d: %v", employee.ID, err)
		return fail(c, http.StatusInternalServerError, "Failed to punch in")
	}
	return respond(c, http.StatusCreated, "Punched in", record)
}

// PunchOut closes today's record and credits the worked minutes
func (ac *AttendanceController) PunchOut(c echo.Context) error {
	employee, ok, err := ac.currentEmployee(c)
	if !ok {
		return err
	}

	ctx := c.Request().Context()
	now := ac.now()
	record, err := ac.attendance.FindByEmployeeDate(ctx, employee.ID, now.Format(models.DateLayout))
	if errors.Is(err, repositories.ErrNotFound) {
		return fail(c, http.StatusConflict, "Not punched in today")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to load attendance")
	}
	if record.ExitTime != nil {
		return fail(c, http.StatusConflict, "Already punched out today")
	}

	worked := utils.WorkedMinutes(record.EntryTime, &now)
	if err := ac.attendance.SetExit(ctx, record.ID, now, worked); err != nil {
		c.Logger().Errorf("Punch out failed for employee %d: %v", employee.ID, err)
		return fail(c, http.StatusInternalServerError, "Failed to punch out")
	}
	record.ExitTime = &now
	record.WorkedMinutes = worked
	record.UpdatedAt = now
	return respond(c, http.StatusOK, "Punched out", record)
}

// ApproveAttendance approves or rejects an employee's day
func (ac *AttendanceController) ApproveAttendance(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "Invalid attendance ID")
	}
	var req models.ApproveAttendanceRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	status := models.AttendanceApproved
	if req.Approve != nil && !*req.Approve {
		status = models.AttendanceRejected
	}

	adminID, _ := middleware.ExtractUserID(c)
	ctx := c.Request().Context()
	err := ac.attendance.SetStatus(ctx, id, status, adminID)
	if errors.Is(err, repositories.ErrNotFound) {
		return fail(c, http.StatusNotFound, "Attendance not found")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to update attendance")
	}

	record, err := ac.attendance.FindByID(ctx, id)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to load attendance")
	}
	return respond(c, http.StatusOK, "Attendance "+status, record)
}

// GetEmployeeAttendance lists one employee's records
func (ac *AttendanceController) GetEmployeeAttendance(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "Invalid employee ID")
	}
	records, err := ac.attendance.ListByEmployee(c.Request().Context(), id)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to load attendance")
	}
	return respond(c, http.StatusOK, "Attendance retrieved", records)
}

// GetAttendanceByDate lists every record of the :date path parameter or
// ?date=, defaulting to today
func (ac *AttendanceController) GetAttendanceByDate(c echo.Context) error {
	date := c.Param("date")
	if date == "" {
		date = c.QueryParam("date")
	}
	if date == "" {
		date = ac.now().Format(models.DateLayout)
	} else if _, err := time.Parse(models.DateLayout, date); err != nil {
		return fail(c, http.StatusBadRequest, "date must be YYYY-MM-DD")
	}
	records, err := ac.attendance.ListByDate(c.Request().Context(), date)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to load attendance")
	}
	return respond(c, http.StatusOK, "Attendance retrieved", records)
}

func (ac *AttendanceController) checkEmployee(c echo.Context, id int64) (bool, error) {
	_, err := ac.employees.FindByID(c.Request().Context(), id)
	if errors.Is(err, repositories.ErrNotFound) {
		return false, fail(c, http.StatusNotFound, "Employee not found")
	}
	if err != nil {
		return false, fail(c, http.StatusInternalServerError, "Failed to load employee")
	}
	return true, nil
}

func (ac *AttendanceController) currentEmployee(c echo.Context) (*models.Employee, bool, error) {
	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return nil, false, fail(c, http.StatusUnauthorized, "Unauthorized")
	}
	employee, err := ac.employees.FindByUserID(c.Request().Context(), userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, false, fail(c, http.StatusForbidden, "No employee profile linked to this account")
	}
	if err != nil {
		return nil, false, fail(c, http.StatusInternalServerError, "Failed to load employee")
	}
	return employee, true, nil
}
