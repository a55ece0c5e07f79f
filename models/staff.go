package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Doctor is a referring doctor who may earn commissions
type Doctor struct {
	ID             int64     `json:"id" bson:"_id"`
	UserID         *int64    `json:"userId,omitempty" bson:"userId,omitempty"`
	Name           string    `json:"name" bson:"name"`
	Specialization string    `json:"specialization,omitempty" bson:"specialization,omitempty"`
	Phone          string    `json:"phone,omitempty" bson:"phone,omitempty"`
	CreatedAt      time.Time `json:"createdAt" bson:"createdAt"`
}

// DoctorRequest model
type DoctorRequest struct {
	UserID         *int64 `json:"userId"`
	Name           string `json:"name" validate:"required,max=120"`
	Specialization string `json:"specialization" validate:"max=120"`
	Phone          string `json:"phone"`
}

// Employee is a staff member paid through payroll
type Employee struct {
	ID         int64           `json:"id" bson:"_id"`
	UserID     *int64          `json:"userId,omitempty" bson:"userId,omitempty"`
	Name       string          `json:"name" bson:"name"`
	Phone      string          `json:"phone,omitempty" bson:"phone,omitempty"`
	Email      string          `json:"email,omitempty" bson:"email,omitempty"`
	BaseSalary decimal.Decimal `json:"baseSalary" bson:"baseSalary"`
	CreatedAt  time.Time       `json:"createdAt" bson:"createdAt"`
}

// EmployeeRequest model
type EmployeeRequest struct {
	UserID     *int64          `json:"userId"`
	Name       string          `json:"name" validate:"required,max=120"`
	Phone      string          `json:"phone"`
	Email      string          `json:"email" validate:"omitempty,email"`
	BaseSalary decimal.Decimal `json:"baseSalary"`
}
