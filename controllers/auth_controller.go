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

// AuthController handles phone OTP login
type AuthController struct {
	users UserStore
	otps  utils.OTPStore
	sms   OTPSender
}

// NewAuthController creates a new auth controller
func NewAuthController(users UserStore, otps utils.OTPStore, sms OTPSender) *AuthController {
	return &AuthController{users: users, otps: otps, sms: sms}
}

// SendOTP generates a login code for a phone number and delivers it by SMS
func (ac *AuthController) SendOTP(c echo.Context) error {
	var req models.SendOTPRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	phone, err := utils.SanitizePhone(req.Phone)
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	if ok, err := issueOTP(c, ac.otps, ac.sms, phone, models.OTPPurposeLogin); !ok {
		return err
	}
	return respond(c, http.StatusOK, "OTP sent", map[string]interface{}{
		"expiresIn": int(utils.OTPTTL.Seconds()),
	})
}

// VerifyOTP exchanges a valid code for an access token, registering the
// phone as a patient on first login
func (ac *AuthController) VerifyOTP(c echo.Context) error {
	var req models.VerifyOTPRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	phone, err := utils.SanitizePhone(req.Phone)
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	if err := ac.otps.Verify(ctx, phone, models.OTPPurposeLogin, req.OTP); err != nil {
		return otpFailure(c, err)
	}

	user, err := ac.users.FindByPhone(ctx, phone)
	if errors.Is(err, repositories.ErrNotFound) {
		now := time.Now()
		user = &models.User{
			Phone:     phone,
			Role:      models.RolePatient,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		err = ac.users.Create(ctx, user)
		if errors.Is(err, repositories.ErrDuplicate) {
			// registered by a parallel verification
			user, err = ac.users.FindByPhone(ctx, phone)
		}
	}
	if err != nil {
		c.Logger().Errorf("Failed to load user for %s: %v", phone, err)
		return fail(c, http.StatusInternalServerError, "Failed to sign in")
	}
	if !user.IsActive {
		return fail(c, http.StatusForbidden, "Account is disabled")
	}

	token, err := middleware.GenerateJWT(user.ID, user.Phone, user.Role)
	if err != nil {
		c.Logger().Errorf("Failed to sign token: %v", err)
		return fail(c, http.StatusInternalServerError, "Failed to sign in")
	}

	return respond(c, http.StatusOK, "Login successful", models.AuthResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        *user,
	})
}

// Me returns the authenticated user
func (ac *AuthController) Me(c echo.Context) error {
	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "Unauthorized")
	}
	user, err := ac.users.FindByID(c.Request().Context(), userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return fail(c, http.StatusNotFound, "User not found")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to load user")
	}
	return respond(c, http.StatusOK, "User retrieved", user)
}

// issueOTP stores a fresh code and sends it. When ok is false the error
// response has already been written.
func issueOTP(c echo.Context, store utils.OTPStore, sms OTPSender, phone, purpose string) (ok bool, err error) {
	code, err := utils.GenerateNumericOTP()
	if err != nil {
		c.Logger().Errorf("Failed to generate OTP: %v", err)
		return false, fail(c, http.StatusInternalServerError, "Failed to generate OTP")
	}

	ctx := c.Request().Context()
	if err := store.Save(ctx, phone, purpose, code, utils.OTPTTL); err != nil {
		c.Logger().Errorf("Failed to store OTP: %v", err)
		return false, fail(c, http.StatusInternalServerError, "Failed to generate OTP")
	}
	if err := sms.SendOTP(phone, code); err != nil {
		c.Logger().Errorf("Failed to send OTP to %s: %v", phone, err)
		return false, fail(c, http.StatusBadGateway, "Failed to send OTP")
	}
	return true, nil
}

func otpFailure(c echo.Context, err error) error {
	switch {
	case errors.Is(err, utils.ErrOTPTooManyAttempts):
		return fail(c, http.StatusTooManyRequests, "Too many attempts, request a new OTP")
	case errors.Is(err, utils.ErrOTPNotFound), errors.Is(err, utils.ErrOTPInvalid):
		return fail(c, http.StatusUnauthorized, "Invalid or expired OTP")
	}
	c.Logger().Errorf("OTP verification failed: %v", err)
	return fail(c, http.StatusInternalServerError, "Failed to verify OTP")
}
