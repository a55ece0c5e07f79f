package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/labdesk/labdesk_backend/models"
	"github.com/labdesk/labdesk_backend/repositories"
	"github.com/labdesk/labdesk_backend/utils"
)

// The interfaces below are satisfied by the Mongo repositories and by the
// in-memory fakes used in tests.

type UserStore interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByPhone(ctx context.Context, phone string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateRole(ctx context.Context, id int64, role string) error
	List(ctx context.Context) ([]models.User, error)
}

type DoctorStore interface {
	Create(ctx context.Context, doctor *models.Doctor) error
	FindByID(ctx context.Context, id int64) (*models.Doctor, error)
	List(ctx context.Context) ([]models.Doctor, error)
}

type EmployeeStore interface {
	Create(ctx context.Context, employee *models.Employee) error
	FindByID(ctx context.Context, id int64) (*models.Employee, error)
	FindByUserID(ctx context.Context, userID int64) (*models.Employee, error)
	List(ctx context.Context) ([]models.Employee, error)
}

type BookingQueryStore interface {
	FindByID(ctx context.Context, id int64) (*models.Booking, error)
	List(ctx context.Context, f repositories.BookingFilter) ([]models.Booking, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
}

type RuleStore interface {
	Create(ctx context.Context, rule *models.CommissionRule) error
	FindByID(ctx context.Context, id int64) (*models.CommissionRule, error)
	List(ctx context.Context, all bool) ([]models.CommissionRule, error)
	Deactivate(ctx context.Context, id int64) error
}

type RecordQueryStore interface {
	ListByDoctor(ctx context.Context, doctorID int64, from, to time.Time) ([]models.CommissionRecord, error)
}

type AttendanceStore interface {
	Create(ctx context.Context, a *models.Attendance) error
	FindByID(ctx context.Context, id int64) (*models.Attendance, error)
	FindByEmployeeDate(ctx context.Context, employeeID int64, date string) (*models.Attendance, error)
	SetExit(ctx context.Context, id int64, exit time.Time, workedMinutes int) error
	SetStatus(ctx context.Context, id int64, status string, approvedBy int64) error
	ListByEmployee(ctx context.Context, employeeID int64) ([]models.Attendance, error)
	ListByDate(ctx context.Context, date string) ([]models.Attendance, error)
	ListByEmployeeBetween(ctx context.Context, employeeID int64, fromDate, toDate string) ([]models.Attendance, error)
}

type SalarySlipStore interface {
	Upsert(ctx context.Context, slip *models.SalarySlip) error
	ListByEmployee(ctx context.Context, employeeID int64) ([]models.SalarySlip, error)
}

type PrescriptionStore interface {
	Create(ctx context.Context, p *models.Prescription) error
	ListByUser(ctx context.Context, userID int64) ([]models.Prescription, error)
}

type ReportStore interface {
	Create(ctx context.Context, report *models.Report) error
	FindByID(ctx context.Context, id int64) (*models.Report, error)
	Publish(ctx context.Context, id int64, at time.Time) (*models.Report, error)
}

type InventoryStore interface {
	Create(ctx context.Context, item *models.InventoryItem) error
	List(ctx context.Context, itemType string) ([]models.InventoryItem, error)
	Adjust(ctx context.Context, id int64, delta int) (*models.InventoryItem, error)
}

// OTPSender delivers a one-time code to a phone
type OTPSender interface {
	SendOTP(phone, code string) error
}

// UserNotifier pushes an event to one user's open connections
type UserNotifier interface {
	NotifyUser(userID int64, eventType, message string, data interface{}) bool
}

// SlipMailer emails salary slips
type SlipMailer interface {
	Configured() bool
	SendSalarySlip(to, name, month string, days int, amount decimal.Decimal) error
}

func respond(c echo.Context, status int, message string, data interface{}) error {
	return c.JSON(status, models.Response{
		Status:  status,
		Message: message,
		Data:    data,
	})
}

func fail(c echo.Context, status int, message string) error {
	return respond(c, status, message, nil)
}

// bindAndValidate binds the request body into req and runs struct validation.
// When ok is false the error response has already been written.
func bindAndValidate(c echo.Context, req interface{}) (ok bool, err error) {
	if err := c.Bind(req); err != nil {
		return false, fail(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return false, fail(c, http.StatusBadRequest, utils.ValidationMessage(err))
	}
	return true, nil
}

func pathID(c echo.Context, name string) (int64, bool) {
	id, err := utils.ParseID(c.Param(name))
	return id, err == nil
}
