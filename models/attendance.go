package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the storage format of attendance dates
const DateLayout = "2006-01-02"

// Attendance approval states
const (
	AttendancePending  = "PENDING"
	AttendanceApproved = "APPROVED"
	AttendanceRejected = "REJECTED"
)

// Attendance is one employee's record for one calendar day
type Attendance struct {
	ID            int64      `json:"id" bson:"_id"`
	EmployeeID    int64      `json:"employeeId" bson:"employeeId"`
	Date          string     `json:"date" bson:"date"`
	Present       bool       `json:"present" bson:"present"`
	EntryTime     *time.Time `json:"entryTime,omitempty" bson:"entryTime,omitempty"`
	ExitTime      *time.Time `json:"exitTime,omitempty" bson:"exitTime,omitempty"`
	WorkedMinutes int        `json:"workedMinutes" bson:"workedMinutes"`
	Status        string     `json:"status" bson:"status"`
	ApprovedBy    *int64     `json:"approvedBy,omitempty" bson:"approvedBy,omitempty"`
	CreatedAt     time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// MarkAttendanceRequest is the admin payload for marking a day
type MarkAttendanceRequest struct {
	EmployeeID int64  `json:"employeeId" validate:"required,gt=0"`
	Present    *bool  `json:"present"`
	Date       string `json:"date"`
}

// ApproveAttendanceRequest model
type ApproveAttendanceRequest struct {
	Approve *bool `json:"approve"`
}

// SalarySlip is the payroll output for one employee and month
type SalarySlip struct {
	ID          int64           `json:"id" bson:"_id"`
	EmployeeID  int64           `json:"employeeId" bson:"employeeId"`
	Month       string          `json:"month" bson:"month"`
	PresentDays int             `json:"presentDays" bson:"presentDays"`
	BaseSalary  decimal.Decimal `json:"baseSalary" bson:"baseSalary"`
	Amount      decimal.Decimal `json:"amount" bson:"amount"`
	CreatedAt   time.Time       `json:"createdAt" bson:"createdAt"`
}

// GenerateSalaryRequest model
type GenerateSalaryRequest struct {
	EmployeeID int64 `json:"employeeId" validate:"required,gt=0"`
	Month      int   `json:"month" validate:"required,min=1,max=12"`
	Year       int   `json:"year" validate:"required,min=2000,max=2100"`
}
