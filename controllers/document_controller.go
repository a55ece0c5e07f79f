package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/labdesk/labdesk_backend/middleware"
	"github.com/labdesk/labdesk_backend/models"
	"github.com/labdesk/labdesk_backend/repositories"
	"github.com/labdesk/labdesk_backend/utils"
)

// PrescriptionController stores prescriptions uploaded by patients
type PrescriptionController struct {
	prescriptions PrescriptionStore
}

// NewPrescriptionController creates a new prescription controller
func NewPrescriptionController(prescriptions PrescriptionStore) *PrescriptionController {
	return &PrescriptionController{prescriptions: prescriptions}
}

// UploadPrescription accepts a multipart "file" field
func (pc *PrescriptionController) UploadPrescription(c echo.Context) error {
	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "Unauthorized")
	}

	stored, ok, err := saveFormFile(c, fmt.Sprintf("prescriptions/%d", userID))
	if !ok {
		return err
	}

	p := &models.Prescription{
		UserID:       userID,
		FilePath:     stored.URL,
		ThumbnailURL: stored.ThumbnailURL,
		UploadedAt:   time.Now(),
	}
	if err := pc.prescriptions.Create(c.Request().Context(), p); err != nil {
		c.Logger().Errorf("Failed to save prescription: %v", err)
		return fail(c, http.StatusInternalServerError, "Failed to save prescription")
	}
	return respond(c, http.StatusCreated, "Prescription uploaded", p)
}

// GetMyPrescriptions lists the caller's prescriptions
func (pc *PrescriptionController) GetMyPrescriptions(c echo.Context) error {
	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "Unauthorized")
	}
	list, err := pc.prescriptions.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to load prescriptions")
	}
	return respond(c, http.StatusOK, "Prescriptions retrieved", list)
}

// ReportController handles lab report upload, publication and OTP-gated download
type ReportController struct {
	reports  ReportStore
	bookings BookingQueryStore
	users    UserStore
	otps     utils.OTPStore
	sms      OTPSender
	notifier UserNotifier
}

// NewReportController creates a new report controller. notifier may be nil.
func NewReportController(reports ReportStore, bookings BookingQueryStore, users UserStore, otps utils.OTPStore, sms OTPSender, notifier UserNotifier) *ReportController {
	return &ReportController{reports: reports, bookings: bookings, users: users, otps: otps, sms: sms, notifier: notifier}
}

// UploadReport attaches a report file to the booking in form field "bookingId".
// Reports start unpublished.
func (rc *ReportController) UploadReport(c echo.Context) error {
	bookingID, err := utils.ParseID(c.FormValue("bookingId"))
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid bookingId")
	}

	ctx := c.Request().Context()
	_, err = rc.bookings.FindByID(ctx, bookingID)
	if errors.Is(err, repositories.ErrNotFound) {
		return fail(c, http.StatusNotFound, "Booking not found")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to load booking")
	}

	stored, ok, err := saveFormFile(c, fmt.Sprintf("reports/%d", bookingID))
	if !ok {
		return err
	}

	uploader, _ := middleware.ExtractUserID(c)
	report := &models.Report{
		BookingID:  bookingID,
		ReportURL:  stored.URL,
		UploadedBy: uploader,
		CreatedAt:  time.Now(),
	}
	if err := rc.reports.Create(ctx, report); err != nil {
		c.Logger().Errorf("Failed to save report: %v", err)
		return fail(c, http.StatusInternalServerError, "Failed to save report")
	}
	return respond(c, http.StatusCreated, "Report uploaded", report)
}

// PublishReport makes a report downloadable and tells the patient
func (rc *ReportController) PublishReport(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "Invalid report ID")
	}

	ctx := c.Request().Context()
	report, err := rc.reports.Publish(ctx, id, time.Now())
	if errors.Is(err, repositories.ErrNotFound) {
		return fail(c, http.StatusNotFound, "Report not found")
	}
	if err != nil {
		c.Logger().Errorf("Failed to publish report %d: %v", id, err)
		return fail(c, http.StatusInternalServerError, "Failed to publish report")
	}

	data := map[string]interface{}{"report": report}
	if portal := os.Getenv("REPORT_PORTAL_URL"); portal != "" {
		link := fmt.Sprintf("%s?reportId=%d", strings.TrimRight(portal, "/"), report.ID)
		if qr, err := utils.QRCodeDataURL(link); err == nil {
			data["downloadLink"] = link
			data["qrCode"] = qr
		} else {
			c.Logger().Warnf("QR code for report %d: %v", report.ID, err)
		}
	}

	if rc.notifier != nil {
		if booking, err := rc.bookings.FindByID(ctx, report.BookingID); err == nil {
			rc.notifier.NotifyUser(booking.UserID, "report_published", "Your lab report is ready", map[string]interface{}{
				"reportId":  report.ID,
				"bookingId": report.BookingID,
			})
		}
	}
	return respond(c, http.StatusOK, "Report published", data)
}

// SendReportOTP sends the code required to download a report
func (rc *ReportController) SendReportOTP(c echo.Context) error {
	var req models.SendOTPRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	phone, err := utils.SanitizePhone(req.Phone)
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	if ok, err := issueOTP(c, rc.otps, rc.sms, phone, models.OTPPurposeReport); !ok {
		return err
	}
	return respond(c, http.StatusOK, "OTP sent", map[string]interface{}{
		"expiresIn": int(utils.OTPTTL.Seconds()),
	})
}

// DownloadReport serves a published report to the phone that owns its booking
func (rc *ReportController) DownloadReport(c echo.Context) error {
	var req models.ReportDownloadRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	phone, err := utils.SanitizePhone(req.Phone)
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	if err := rc.otps.Verify(ctx, phone, models.OTPPurposeReport, req.OTP); err != nil {
		return otpFailure(c, err)
	}

	report, err := rc.reports.FindByID(ctx, req.ReportID)
	if errors.Is(err, repositories.ErrNotFound) || (err == nil && !report.IsPublished) {
		return fail(c, http.StatusNotFound, "Report not found")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to load report")
	}

	booking, err := rc.bookings.FindByID(ctx, report.BookingID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to load booking")
	}
	owner, err := rc.users.FindByID(ctx, booking.UserID)
	if err != nil || owner.Phone != phone {
		c.Logger().Warnf("Report %d download refused for %s", report.ID, phone)
		return fail(c, http.StatusForbidden, "Access denied")
	}

	path, err := utils.LocalPath(report.ReportURL)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Report file unavailable")
	}
	if _, err := os.Stat(path); err != nil {
		c.Logger().Errorf("Report %d file missing: %v", report.ID, err)
		return fail(c, http.StatusNotFound, "Report file not found")
	}
	return c.Attachment(path, fmt.Sprintf("report_%d%s", report.ID, filepath.Ext(path)))
}

// saveFormFile stores the multipart "file" field. When ok is false the error
// response has already been written.
func saveFormFile(c echo.Context, subDir string) (*utils.StoredFile, bool, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, false, fail(c, http.StatusBadRequest, "File is required")
	}

	stored, err := utils.SaveUpload(fh, subDir)
	switch {
	case errors.Is(err, utils.ErrFileTooLarge), errors.Is(err, utils.ErrFileTypeInvalid):
		return nil, false, fail(c, http.StatusBadRequest, err.Error())
	case err != nil && stored != nil:
		c.Logger().Warnf("Stored %s without thumbnail: %v", stored.URL, err)
	case err != nil:
		c.Logger().Errorf("Failed to store upload: %v", err)
		return nil, false, fail(c, http.StatusInternalServerError, "Failed to store file")
	}
	return stored, true, nil
}
