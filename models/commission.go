package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CommissionType selects how a rule's value is applied to the test amount
type CommissionType string

const (
	CommissionPercentage CommissionType = "PERCENTAGE"
	CommissionFlat       CommissionType = "FLAT"
)

// Valid reports whether t is one of the supported commission types
func (t CommissionType) Valid() bool {
	return t == CommissionPercentage || t == CommissionFlat
}

// CommissionRule maps a (possibly partial) set of booking attributes to a payout.
// A nil constraint matches any booking value.
type CommissionRule struct {
	ID              int64           `json:"id" bson:"_id"`
	DoctorID        *int64          `json:"doctorId" bson:"doctorId"`
	TestID          *int64          `json:"testId" bson:"testId"`
	PackageID       *int64          `json:"packageId" bson:"packageId"`
	CommissionType  CommissionType  `json:"commissionType" bson:"commissionType"`
	CommissionValue decimal.Decimal `json:"commissionValue" bson:"commissionValue"`
	BookingType     *string         `json:"bookingType" bson:"bookingType"`
	PaymentMode     *string         `json:"paymentMode" bson:"paymentMode"`
	IsActive        bool            `json:"isActive" bson:"isActive"`
	CreatedBy       int64           `json:"createdBy,omitempty" bson:"createdBy,omitempty"`
	CreatedAt       time.Time       `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt" bson:"updatedAt"`
}

// BookingAttributes are the booking fields a commission rule can constrain
type BookingAttributes struct {
	DoctorID    *int64          `json:"doctorId,omitempty"`
	TestID      *int64          `json:"testId,omitempty"`
	PackageID   *int64          `json:"packageId,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	BookingType string          `json:"bookingType,omitempty"`
	PaymentMode string          `json:"paymentMode,omitempty"`
}

// IsGlobal reports whether the rule constrains nothing and so applies to every booking
func (r CommissionRule) IsGlobal() bool {
	return r.DoctorID == nil && r.TestID == nil && r.PackageID == nil &&
		r.BookingType == nil && r.PaymentMode == nil
}

// Matches reports whether the rule is active and every constraint it carries
// equals the corresponding booking value.
func (r CommissionRule) Matches(attrs BookingAttributes) bool {
	if !r.IsActive {
		return false
	}
	return idMatches(r.DoctorID, attrs.DoctorID) &&
		idMatches(r.TestID, attrs.TestID) &&
		idMatches(r.PackageID, attrs.PackageID) &&
		stringMatches(r.BookingType, attrs.BookingType) &&
		stringMatches(r.PaymentMode, attrs.PaymentMode)
}

func idMatches(constraint, value *int64) bool {
	if constraint == nil {
		return true
	}
	return value != nil && *value == *constraint
}

func stringMatches(constraint *string, value string) bool {
	if constraint == nil {
		return true
	}
	return value != "" && *constraint == value
}

// CommissionRecord is the money owed to a referring doctor for one booking
type CommissionRecord struct {
	ID               int64           `json:"id" bson:"_id"`
	DoctorID         int64           `json:"doctorId" bson:"doctorId"`
	BookingID        int64           `json:"bookingId" bson:"bookingId"`
	RuleID           int64           `json:"ruleId" bson:"ruleId"`
	TestAmount       decimal.Decimal `json:"testAmount" bson:"testAmount"`
	CommissionAmount decimal.Decimal `json:"commissionAmount" bson:"commissionAmount"`
	CreatedAt        time.Time       `json:"createdAt" bson:"createdAt"`
}

// CommissionRuleRequest is the admin payload for creating a rule
type CommissionRuleRequest struct {
	DoctorID        *int64          `json:"doctorId"`
	TestID          *int64          `json:"testId"`
	PackageID       *int64          `json:"packageId"`
	CommissionType  CommissionType  `json:"commissionType" validate:"required"`
	CommissionValue decimal.Decimal `json:"commissionValue"`
	BookingType     *string         `json:"bookingType"`
	PaymentMode     *string         `json:"paymentMode"`
}

// CommissionReport summarises the records of one doctor
type CommissionReport struct {
	DoctorID        int64              `json:"doctorId"`
	Month           int                `json:"month,omitempty"`
	Year            int                `json:"year,omitempty"`
	TotalCommission decimal.Decimal    `json:"totalCommission"`
	Records         []CommissionRecord `json:"records"`
}
