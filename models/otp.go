package models

import (
	"time"
)

// OTP purposes; each purpose has its own code for the same phone
const (
	OTPPurposeLogin  = "login"
	OTPPurposeReport = "report"
)

// PhoneOTP represents a pending one-time passcode in the Mongo fallback store
type PhoneOTP struct {
	Phone     string    `bson:"phone"`
	Purpose   string    `bson:"purpose"`
	CodeHash  string    `bson:"codeHash"`
	Attempts  int       `bson:"attempts"`
	ExpiresAt time.Time `bson:"expiresAt"`
}

// SendOTPRequest model
type SendOTPRequest struct {
	Phone string `json:"phone" validate:"required"`
}

// VerifyOTPRequest model
type VerifyOTPRequest struct {
	Phone string `json:"phone" validate:"required"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

// AuthResponse carries the issued token
type AuthResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	User        User   `json:"user"`
}
