package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/labdesk/labdesk_backend/middleware"
	"github.com/labdesk/labdesk_backend/models"
	"github.com/labdesk/labdesk_backend/repositories"
	"github.com/labdesk/labdesk_backend/services"
	"github.com/labdesk/labdesk_backend/utils"
)

const maxBookingPageSize = 100

// BookingController handles booking-related API endpoints
type BookingController struct {
	service  *services.BookingService
	bookings BookingQueryStore
	notifier UserNotifier
}

// NewBookingController creates a new booking controller. notifier may be nil.
func NewBookingController(service *services.BookingService, bookings BookingQueryStore, notifier UserNotifier) *BookingController {
	return &BookingController{service: service, bookings: bookings, notifier: notifier}
}

// CreateBooking books a test or package for the authenticated patient
func (bc *BookingController) CreateBooking(c echo.Context) error {
	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "Unauthorized")
	}

	var req models.BookingRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	req.BookingType = strings.ToUpper(strings.TrimSpace(req.BookingType))
	req.PaymentMode = strings.ToUpper(strings.TrimSpace(req.PaymentMode))
	req.TestName = utils.SanitizeInput(req.TestName)
	req.Address = utils.SanitizeInput(req.Address)
	if err := c.Validate(&req); err != nil {
		return fail(c, http.StatusBadRequest, utils.ValidationMessage(err))
	}

	booking, err := bc.service.CreateBooking(c.Request().Context(), userID, req)
	if err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			return fail(c, http.StatusBadRequest, verr.Error())
		}
		c.Logger().Errorf("Failed to create booking: %v", err)
		return fail(c, http.StatusInternalServerError, "Failed to create booking")
	}

	return respond(c, http.StatusCreated, "Booking created", models.BookingCreated{
		BookingID:        booking.ID,
		Commission:       booking.CommissionAmount,
		CommissionStatus: booking.CommissionStatus,
	})
}

// GetMyBookings lists the authenticated user's bookings
func (bc *BookingController) GetMyBookings(c echo.Context) error {
	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "Unauthorized")
	}
	bookings, err := bc.bookings.List(c.Request().Context(), repositories.BookingFilter{UserID: userID})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to list bookings")
	}
	return respond(c, http.StatusOK, "Bookings retrieved", bookings)
}

// GetBooking returns one booking to its owner or to staff
func (bc *BookingController) GetBooking(c echo.Context) error {
	booking, ok, err := bc.loadVisibleBooking(c)
	if !ok {
		return err
	}
	return respond(c, http.StatusOK, "Booking retrieved", booking)
}

// ListBookings lists bookings filtered by ?status=, ?doctorId=, ?page= and ?limit=
func (bc *BookingController) ListBookings(c echo.Context) error {
	filter := repositories.BookingFilter{
		Status: strings.ToUpper(c.QueryParam("status")),
	}
	if v := c.QueryParam("doctorId"); v != "" {
		id, err := utils.ParseID(v)
		if err != nil {
			return fail(c, http.StatusBadRequest, "Invalid doctorId")
		}
		filter.DoctorID = id
	}

	limit, err := utils.ParseInt(c.QueryParam("limit"), 50)
	if err != nil || limit < 1 || limit > maxBookingPageSize {
		return fail(c, http.StatusBadRequest, fmt.Sprintf("limit must be between 1 and %d", maxBookingPageSize))
	}
	page, err := utils.ParseInt(c.QueryParam("page"), 1)
	if err != nil || page < 1 {
		return fail(c, http.StatusBadRequest, "Invalid page")
	}
	filter.Limit = int64(limit)
	filter.Skip = int64((page - 1) * limit)

	bookings, err := bc.bookings.List(c.Request().Context(), filter)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to list bookings")
	}
	return respond(c, http.StatusOK, "Bookings retrieved", bookings)
}

// UpdateBookingStatus moves a booking along its lifecycle
func (bc *BookingController) UpdateBookingStatus(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "Invalid booking ID")
	}

	var req models.BookingStatusUpdateRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	status := strings.ToUpper(strings.TrimSpace(req.Status))

	ctx := c.Request().Context()
	booking, err := bc.bookings.FindByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return fail(c, http.StatusNotFound, "Booking not found")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to load booking")
	}

	if !models.CanTransitionBooking(booking.Status, status) {
		return fail(c, http.StatusConflict, fmt.Sprintf("Cannot move booking from %s to %s", booking.Status, status))
	}
	if err := bc.bookings.UpdateStatus(ctx, id, status); err != nil {
		c.Logger().Errorf("Failed to update booking %d: %v", id, err)
		return fail(c, http.StatusInternalServerError, "Failed to update booking")
	}
	booking.Status = status

	if bc.notifier != nil {
		bc.notifier.NotifyUser(booking.UserID, "booking_status", "Your booking status has been updated", map[string]interface{}{
			"bookingId": booking.ID,
			"status":    status,
		})
	}
	return respond(c, http.StatusOK, "Booking status updated", booking)
}

// GetSampleLabel renders the Code128 label for a booking's sample tube
func (bc *BookingController) GetSampleLabel(c echo.Context) error {
	booking, ok, err := bc.loadVisibleBooking(c)
	if !ok {
		return err
	}
	png, err := utils.SampleLabelPNG(booking.ID)
	if err != nil {
		c.Logger().Errorf("Failed to render label for booking %d: %v", booking.ID, err)
		return fail(c, http.StatusInternalServerError, "Failed to render label")
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", utils.SampleCode(booking.ID)+".png"))
	return c.Blob(http.StatusOK, "image/png", png)
}

func (bc *BookingController) loadVisibleBooking(c echo.Context) (*models.Booking, bool, error) {
	id, ok := pathID(c, "id")
	if !ok {
		return nil, false, fail(c, http.StatusBadRequest, "Invalid booking ID")
	}
	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return nil, false, fail(c, http.StatusUnauthorized, "Unauthorized")
	}

	booking, err := bc.bookings.FindByID(c.Request().Context(), id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, false, fail(c, http.StatusNotFound, "Booking not found")
	}
	if err != nil {
		return nil, false, fail(c, http.StatusInternalServerError, "Failed to load booking")
	}

	role := middleware.ExtractRole(c)
	if booking.UserID != userID && role != models.RoleAdmin && role != models.RoleEmployee {
		return nil, false, fail(c, http.StatusForbidden, "Access denied")
	}
	return booking, true, nil
}
