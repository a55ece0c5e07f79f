package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/labdesk/labdesk_backend/models"
	"github.com/labdesk/labdesk_backend/repositories"
)

// Notification event types published to admin dashboards
const (
	EventBookingCreated     = "booking_created"
	EventCommissionRecorded = "commission_recorded"
	EventCommissionFailed   = "commission_failed"
)

// BookingStore persists bookings
type BookingStore interface {
	Create(ctx context.Context, booking *models.Booking) error
	FindByID(ctx context.Context, id int64) (*models.Booking, error)
	UpdateCommission(ctx context.Context, id int64, status string, amount decimal.Decimal, reason string) error
	ListByCommissionStatus(ctx context.Context, statuses []string, updatedBefore time.Time, limit int64) ([]models.Booking, error)
}

// CommissionRecordStore persists commission records. Create must fail with
// repositories.ErrDuplicate when the booking already has a record.
type CommissionRecordStore interface {
	Create(ctx context.Context, record *models.CommissionRecord) error
	FindByBookingID(ctx context.Context, bookingID int64) (*models.CommissionRecord, error)
}

// DoctorLookup resolves referring doctors
type DoctorLookup interface {
	FindByID(ctx context.Context, id int64) (*models.Doctor, error)
}

// Notifier pushes events to connected users of a role
type Notifier interface {
	Publish(role, eventType, message string, data interface{})
}

// BookingService creates bookings and settles the commission each one owes
type BookingService struct {
	bookings    BookingStore
	records     CommissionRecordStore
	doctors     DoctorLookup
	commissions *CommissionService
	notifier    Notifier
	now         func() time.Time
}

// NewBookingService creates a new booking service. notifier may be nil.
func NewBookingService(bookings BookingStore, records CommissionRecordStore, doctors DoctorLookup, commissions *CommissionService, notifier Notifier) *BookingService {
	return &BookingService{
		bookings:    bookings,
		records:     records,
		doctors:     doctors,
		commissions: commissions,
		notifier:    notifier,
		now:         time.Now,
	}
}

// CreateBooking stores a new booking for userID and settles its commission.
// A commission failure never fails the booking; it is recorded on the booking
// and picked up again by the retry sweeps.
func (s *BookingService) CreateBooking(ctx context.Context, userID int64, req models.BookingRequest) (*models.Booking, error) {
	if !req.Amount.IsPositive() {
		return nil, &ValidationError{Field: "amount", Reason: "must be positive"}
	}
	if req.TestID == nil && req.PackageID == nil && strings.TrimSpace(req.TestName) == "" {
		return nil, &ValidationError{Field: "testId", Reason: "a test, package or test name is required"}
	}
	if req.TestID != nil && req.PackageID != nil {
		return nil, &ValidationError{Field: "packageId", Reason: "book either a test or a package"}
	}

	if req.DoctorID != nil {
		if _, err := s.doctors.FindByID(ctx, *req.DoctorID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, &ValidationError{Field: "doctorId", Reason: "doctor not found"}
			}
			return nil, fmt.Errorf("look up doctor: %w", err)
		}
	}

	now := s.now()
	booking := &models.Booking{
		UserID:           userID,
		DoctorID:         req.DoctorID,
		TestID:           req.TestID,
		PackageID:        req.PackageID,
		TestName:         strings.TrimSpace(req.TestName),
		Amount:           req.Amount.Round(2),
		BookingType:      strings.ToUpper(req.BookingType),
		PaymentMode:      strings.ToUpper(req.PaymentMode),
		ScheduledAt:      req.ScheduledAt,
		Address:          req.Address,
		Status:           models.BookingPending,
		CommissionStatus: models.CommissionStatusPending,
		CommissionAmount: decimal.Zero,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}

	// subscribers encode the payload on their own goroutine, so they get a copy
	s.publish(EventBookingCreated, "New booking received", *booking)

	if err := s.SettleCommission(ctx, booking); err != nil {
		log.Printf("Commission for booking %d left %s: %v", booking.ID, booking.CommissionStatus, err)
	}
	return booking, nil
}

// SettleCommission resolves and records the commission of a booking and updates
// the booking's commission status in place. Running it again for a booking
// that already has a record reuses the stored record.
func (s *BookingService) SettleCommission(ctx context.Context, booking *models.Booking) error {
	if booking.DoctorID == nil {
		return s.finish(ctx, booking, models.CommissionStatusNone, decimal.Zero, "")
	}

	existing, err := s.records.FindByBookingID(ctx, booking.ID)
	switch {
	case err == nil:
		return s.finish(ctx, booking, models.CommissionStatusRecorded, existing.CommissionAmount, "")
	case !errors.Is(err, repositories.ErrNotFound):
		s.markPending(ctx, booking, err)
		return fmt.Errorf("look up commission record: %w", err)
	}

	res, err := s.commissions.Calculate(ctx, booking.Attributes())
	if err != nil {
		if errors.Is(err, ErrRuleConfiguration) || errors.Is(err, ErrValidation) {
			repeated := booking.CommissionStatus == models.CommissionStatusFailed && booking.CommissionError == err.Error()
			if ferr := s.finish(ctx, booking, models.CommissionStatusFailed, decimal.Zero, err.Error()); ferr != nil {
				return ferr
			}
			if repeated {
				return err
			}
			s.publish(EventCommissionFailed, "Commission calculation failed", map[string]interface{}{
				"bookingId": booking.ID,
				"error":     err.Error(),
			})
			return err
		}
		s.markPending(ctx, booking, err)
		return err
	}

	if res.Tied {
		log.Printf("Booking %d: %d-point commission rules tied, applied rule %d", booking.ID, res.Score, res.Rule.ID)
	}

	if !res.Amount.IsPositive() {
		return s.finish(ctx, booking, models.CommissionStatusNone, decimal.Zero, "")
	}

	record := &models.CommissionRecord{
		DoctorID:         *booking.DoctorID,
		BookingID:        booking.ID,
		RuleID:           res.Rule.ID,
		TestAmount:       booking.Amount,
		CommissionAmount: res.Amount,
		CreatedAt:        s.now(),
	}
	if err := s.records.Create(ctx, record); err != nil {
		if !errors.Is(err, repositories.ErrDuplicate) {
			s.markPending(ctx, booking, err)
			return fmt.Errorf("record commission: %w", err)
		}
		// another request recorded it first
		stored, ferr := s.records.FindByBookingID(ctx, booking.ID)
		if ferr != nil {
			s.markPending(ctx, booking, ferr)
			return fmt.Errorf("load existing commission record: %w", ferr)
		}
		record = stored
	}

	if err := s.finish(ctx, booking, models.CommissionStatusRecorded, record.CommissionAmount, ""); err != nil {
		return err
	}
	s.publish(EventCommissionRecorded, "Doctor commission recorded", *record)
	return nil
}

// Recalculate settles the commission of one stored booking again
func (s *BookingService) Recalculate(ctx context.Context, bookingID int64) (*models.Booking, error) {
	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	err = s.SettleCommission(ctx, booking)
	return booking, err
}

// RetryPendingCommissions settles bookings whose commission is still pending
// and that have not been touched for at least minAge. Failed bookings wait for
// an admin to fix the rule and call RetryFailedCommissions. It returns the
// number of bookings that reached a final state.
func (s *BookingService) RetryPendingCommissions(ctx context.Context, minAge time.Duration, limit int64) (int, error) {
	return s.retry(ctx, []string{models.CommissionStatusPending}, minAge, limit)
}

// RetryFailedCommissions settles every pending or failed booking
func (s *BookingService) RetryFailedCommissions(ctx context.Context, limit int64) (int, error) {
	return s.retry(ctx, []string{models.CommissionStatusPending, models.CommissionStatusFailed}, 0, limit)
}

func (s *BookingService) retry(ctx context.Context, statuses []string, minAge time.Duration, limit int64) (int, error) {
	bookings, err := s.bookings.ListByCommissionStatus(ctx, statuses, s.now().Add(-minAge), limit)
	if err != nil {
		return 0, fmt.Errorf("list unsettled bookings: %w", err)
	}

	settled := 0
	for i := range bookings {
		if err := s.SettleCommission(ctx, &bookings[i]); err != nil {
			log.Printf("Retry commission for booking %d: %v", bookings[i].ID, err)
			continue
		}
		settled++
	}
	return settled, nil
}

func (s *BookingService) finish(ctx context.Context, booking *models.Booking, status string, amount decimal.Decimal, reason string) error {
	if err := s.bookings.UpdateCommission(ctx, booking.ID, status, amount, reason); err != nil {
		return fmt.Errorf("update booking %d commission status: %w", booking.ID, err)
	}
	booking.CommissionStatus = status
	booking.CommissionAmount = amount
	booking.CommissionError = reason
	booking.UpdatedAt = s.now()
	return nil
}

func (s *BookingService) markPending(ctx context.Context, booking *models.Booking, cause error) {
	if err := s.bookings.UpdateCommission(ctx, booking.ID, models.CommissionStatusPending, decimal.Zero, cause.Error()); err != nil {
		log.Printf("Failed to flag booking %d for commission retry: %v", booking.ID, err)
	}
	booking.CommissionStatus = models.CommissionStatusPending
	booking.CommissionError = cause.Error()
}

func (s *BookingService) publish(eventType, message string, data interface{}) {
	if s.notifier == nil {
		return
	}
	s.notifier.Publish(models.RoleAdmin, eventType, message, data)
}
