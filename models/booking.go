package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Booking statuses
const (
	BookingPending         = "PENDING"
	BookingConfirmed       = "CONFIRMED"
	BookingSampleCollected = "SAMPLE_COLLECTED"
	BookingCompleted       = "COMPLETED"
	BookingCancelled       = "CANCELLED"
)

// Commission processing states of a booking
const (
	CommissionStatusPending  = "PENDING"
	CommissionStatusRecorded = "RECORDED"
	CommissionStatusNone     = "NONE"
	CommissionStatusFailed   = "FAILED"
)

// Booking channels and payment modes
const (
	BookingTypeHome = "HOME"
	BookingTypeLab  = "LAB"

	PaymentModeCash   = "CASH"
	PaymentModeOnline = "ONLINE"
)

// Booking model
type Booking struct {
	ID               int64           `json:"id" bson:"_id"`
	UserID           int64           `json:"userId" bson:"userId"`
	DoctorID         *int64          `json:"doctorId,omitempty" bson:"doctorId"`
	TestID           *int64          `json:"testId,omitempty" bson:"testId"`
	PackageID        *int64          `json:"packageId,omitempty" bson:"packageId"`
	TestName         string          `json:"testName,omitempty" bson:"testName,omitempty"`
	Amount           decimal.Decimal `json:"amount" bson:"amount"`
	BookingType      string          `json:"bookingType" bson:"bookingType"`
	PaymentMode      string          `json:"paymentMode" bson:"paymentMode"`
	ScheduledAt      *time.Time      `json:"scheduledAt,omitempty" bson:"scheduledAt,omitempty"`
	Address          string          `json:"address,omitempty" bson:"address,omitempty"`
	Status           string          `json:"status" bson:"status"`
	CommissionStatus string          `json:"commissionStatus" bson:"commissionStatus"`
	CommissionError  string          `json:"commissionError,omitempty" bson:"commissionError,omitempty"`
	CommissionAmount decimal.Decimal `json:"commissionAmount" bson:"commissionAmount"`
	CreatedAt        time.Time       `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt" bson:"updatedAt"`
}

// Attributes returns the fields commission resolution looks at
func (b Booking) Attributes() BookingAttributes {
	return BookingAttributes{
		DoctorID:    b.DoctorID,
		TestID:      b.TestID,
		PackageID:   b.PackageID,
		Amount:      b.Amount,
		BookingType: b.BookingType,
		PaymentMode: b.PaymentMode,
	}
}

// BookingRequest model
type BookingRequest struct {
	DoctorID    *int64          `json:"doctorId"`
	TestID      *int64          `json:"testId"`
	PackageID   *int64          `json:"packageId"`
	TestName    string          `json:"testName" validate:"max=200"`
	Amount      decimal.Decimal `json:"amount"`
	BookingType string          `json:"bookingType" validate:"required,oneof=HOME LAB"`
	PaymentMode string          `json:"paymentMode" validate:"required,oneof=CASH ONLINE"`
	ScheduledAt *time.Time      `json:"scheduledAt"`
	Address     string          `json:"address" validate:"max=500"`
}

// BookingStatusUpdateRequest model for updating booking status
type BookingStatusUpdateRequest struct {
	Status string `json:"status" validate:"required"`
}

// BookingCreated is returned by the booking endpoint
type BookingCreated struct {
	BookingID        int64           `json:"bookingId"`
	Commission       decimal.Decimal `json:"commission"`
	CommissionStatus string          `json:"commissionStatus"`
}

var bookingTransitions = map[string][]string{
	BookingPending:         {BookingConfirmed, BookingCancelled},
	BookingConfirmed:       {BookingSampleCollected, BookingCancelled},
	BookingSampleCollected: {BookingCompleted, BookingCancelled},
}

// CanTransitionBooking reports whether a booking may move from one status to another
func CanTransitionBooking(from, to string) bool {
	for _, next := range bookingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
