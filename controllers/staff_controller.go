package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/labdesk/labdesk_backend/models"
	"github.com/labdesk/labdesk_backend/repositories"
	"github.com/labdesk/labdesk_backend/utils"
)

// StaffController manages referring doctors and employees
type StaffController struct {
	doctors   DoctorStore
	employees EmployeeStore
	users     UserStore
}

// NewStaffController creates a new staff controller
func NewStaffController(doctors DoctorStore, employees EmployeeStore, users UserStore) *StaffController {
	return &StaffController{doctors: doctors, employees: employees, users: users}
}

func (sc *StaffController) CreateDoctor(c echo.Context) error {
	var req models.DoctorRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	phone, ok, err := optionalPhone(c, req.Phone)
	if !ok {
		return err
	}
	if ok, err := sc.checkLinkedUser(c, req.UserID); !ok {
		return err
	}

	doctor := &models.Doctor{
		UserID:         req.UserID,
		Name:           utils.SanitizeInput(req.Name),
		Specialization: utils.SanitizeInput(req.Specialization),
		Phone:          phone,
		CreatedAt:      time.Now(),
	}
	if err := sc.doctors.Create(c.Request().Context(), doctor); err != nil {
		c.Logger().Errorf("Failed to create doctor: %v", err)
		return fail(c, http.StatusInternalServerError, "Failed to create doctor")
	}
	return respond(c, http.StatusCreated, "Doctor created", doctor)
}

func (sc *StaffController) ListDoctors(c echo.Context) error {
	doctors, err := sc.doctors.List(c.Request().Context())
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to list doctors")
	}
	return respond(c, http.StatusOK, "Doctors retrieved", doctors)
}

func (sc *StaffController) CreateEmployee(c echo.Context) error {
	var req models.EmployeeRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	if req.BaseSalary.IsNegative() {
		return fail(c, http.StatusBadRequest, "baseSalary must not be negative")
	}

	phone, ok, err := optionalPhone(c, req.Phone)
	if !ok {
		return err
	}
	if ok, err := sc.checkLinkedUser(c, req.UserID); !ok {
		return err
	}

	employee := &models.Employee{
		UserID:     req.UserID,
		Name:       utils.SanitizeInput(req.Name),
		Phone:      phone,
		Email:      strings.ToLower(strings.TrimSpace(req.Email)),
		BaseSalary: req.BaseSalary.Round(2),
		CreatedAt:  time.Now(),
	}
	if err := sc.employees.Create(c.Request().Context(), employee); err != nil {
		c.Logger().Errorf("Failed to create employee: %v", err)
		return fail(c, http.StatusInternalServerError, "Failed to create employee")
	}
	return respond(c, http.StatusCreated, "Employee created", employee)
}

func (sc *StaffController) ListEmployees(c echo.Context) error {
	employees, err := sc.employees.List(c.Request().Context())
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to list employees")
	}
	return respond(c, http.StatusOK, "Employees retrieved", employees)
}

func (sc *StaffController) checkLinkedUser(c echo.Context, userID *int64) (bool, error) {
	if userID == nil {
		return true, nil
	}
	_, err := sc.users.FindByID(c.Request().Context(), *userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return false, fail(c, http.StatusBadRequest, "Linked user not found")
	}
	if err != nil {
		return false, fail(c, http.StatusInternalServerError, "Failed to load user")
	}
	return true, nil
}

func optionalPhone(c echo.Context, raw string) (string, bool, error) {
	if strings.TrimSpace(raw) == "" {
		return "", true, nil
	}
	phone, err := utils.SanitizePhone(raw)
	if err != nil {
		return "", false, fail(c, http.StatusBadRequest, err.Error())
	}
	return phone, true, nil
}
