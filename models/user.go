// models/user.go
package models

import (
	"strings"
	"time"
)

// Roles carried in the JWT and stored on the user document
const (
	RolePatient  = "PATIENT"
	RoleDoctor   = "DOCTOR"
	RoleEmployee = "EMPLOYEE"
	RoleAdmin    = "ADMIN"
)

// User model
type User struct {
	ID        int64     `json:"id" bson:"_id"`
	Phone     string    `json:"phone" bson:"phone"`
	Name      string    `json:"name,omitempty" bson:"name,omitempty"`
	Email     string    `json:"email,omitempty" bson:"email,omitempty"`
	Role      string    `json:"role" bson:"role"`
	IsActive  bool      `json:"isActive" bson:"isActive"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// AssignRoleRequest is the body of the admin role assignment endpoint
type AssignRoleRequest struct {
	UserID int64  `json:"userId" validate:"required,gt=0"`
	Role   string `json:"role" validate:"required"`
}

// ClaimAdminRequest is the body of the bootstrap admin endpoint
type ClaimAdminRequest struct {
	UserID    int64  `json:"userId" validate:"required,gt=0"`
	SecretKey string `json:"secretKey" validate:"required"`
}

// NormalizeRole upper-cases a role and reports whether it is known.
func NormalizeRole(role string) (string, bool) {
	r := strings.ToUpper(strings.TrimSpace(role))
	switch r {
	case RolePatient, RoleDoctor, RoleEmployee, RoleAdmin:
		return r, true
	}
	return r, false
}

// Response is the envelope every handler returns
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
