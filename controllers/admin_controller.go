package controllers

import (
	"errors"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"

	"github.com/labdesk/labdesk_backend/models"
	"github.com/labdesk/labdesk_backend/repositories"
	"github.com/labdesk/labdesk_backend/security"
	"github.com/labdesk/labdesk_backend/services"
)

// AdminController handles user administration and commission maintenance
type AdminController struct {
	users    UserStore
	bookings *services.BookingService
}

// NewAdminController creates a new admin controller
func NewAdminController(users UserStore, bookings *services.BookingService) *AdminController {
	return &AdminController{users: users, bookings: bookings}
}

// AssignRole changes the role of a user
func (ac *AdminController) AssignRole(c echo.Context) error {
	var req models.AssignRoleRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	role, known := models.NormalizeRole(req.Role)
	if !known {
		return fail(c, http.StatusBadRequest, "Invalid role")
	}

	err := ac.users.UpdateRole(c.Request().Context(), req.UserID, role)
	if errors.Is(err, repositories.ErrNotFound) {
		return fail(c, http.StatusNotFound, "User not found")
	}
	if err != nil {
		c.Logger().Errorf("Failed to assign role: %v", err)
		return fail(c, http.StatusInternalServerError, "Failed to assign role")
	}
	return respond(c, http.StatusOK, "Role assigned", map[string]interface{}{
		"userId": req.UserID,
		"role":   role,
	})
}

// ListUsers returns every user
func (ac *AdminController) ListUsers(c echo.Context) error {
	users, err := ac.users.List(c.Request().Context())
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to list users")
	}
	return respond(c, http.StatusOK, "Users retrieved", users)
}

// ClaimAdmin promotes a user to admin when the caller knows ADMIN_SECRET_KEY.
// The endpoint is disabled while the variable is unset.
func (ac *AdminController) ClaimAdmin(c echo.Context) error {
	secret := os.Getenv("ADMIN_SECRET_KEY")
	if secret == "" {
		return fail(c, http.StatusNotFound, "Not found")
	}

	var req models.ClaimAdminRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	if !security.CompareSecret(req.SecretKey, secret) {
		c.Logger().Warnf("Rejected admin claim for user %d from %s", req.UserID, c.RealIP())
		return fail(c, http.StatusForbidden, "Invalid secret key")
	}

	err := ac.users.UpdateRole(c.Request().Context(), req.UserID, models.RoleAdmin)
	if errors.Is(err, repositories.ErrNotFound) {
		return fail(c, http.StatusNotFound, "User not found")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to update role")
	}
	c.Logger().Infof("User %d claimed admin", req.UserID)
	return respond(c, http.StatusOK, "User promoted to admin", map[string]interface{}{
		"userId": req.UserID,
		"role":   models.RoleAdmin,
	})
}

// RecalculateCommission settles one booking's commission again
func (ac *AdminController) RecalculateCommission(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "Invalid booking ID")
	}

	booking, err := ac.bookings.Recalculate(c.Request().Context(), id)
	switch {
	case errors.Is(err, repositories.ErrNotFound) && booking == nil:
		return fail(c, http.StatusNotFound, "Booking not found")
	case errors.Is(err, services.ErrRuleConfiguration), errors.Is(err, services.ErrValidation):
		return respond(c, http.StatusUnprocessableEntity, err.Error(), booking)
	case err != nil:
		c.Logger().Errorf("Recalculate commission for booking %d: %v", id, err)
		return respond(c, http.StatusServiceUnavailable, "Commission left pending for retry", booking)
	}
	return respond(c, http.StatusOK, "Commission settled", booking)
}

// RetryCommissions settles every booking still pending or failed
func (ac *AdminController) RetryCommissions(c echo.Context) error {
	settled, err := ac.bookings.RetryFailedCommissions(c.Request().Context(), 500)
	if err != nil {
		c.Logger().Errorf("Retry commissions: %v", err)
		return fail(c, http.StatusInternalServerError, "Failed to retry commissions")
	}
	return respond(c, http.StatusOK, "Retry complete", map[string]int{"settled": settled})
}
