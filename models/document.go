package models

import "time"

// Prescription is a file uploaded by a patient
type Prescription struct {
	ID           int64     `json:"id" bson:"_id"`
	UserID       int64     `json:"userId" bson:"userId"`
	FilePath     string    `json:"filePath" bson:"filePath"`
	ThumbnailURL string    `json:"thumbnailUrl,omitempty" bson:"thumbnailUrl,omitempty"`
	UploadedAt   time.Time `json:"uploadedAt" bson:"uploadedAt"`
}

// Report is a lab result attached to a booking. Patients can only fetch it once published.
type Report struct {
	ID          int64      `json:"id" bson:"_id"`
	BookingID   int64      `json:"bookingId" bson:"bookingId"`
	ReportURL   string     `json:"reportUrl" bson:"reportUrl"`
	IsPublished bool       `json:"isPublished" bson:"isPublished"`
	UploadedBy  int64      `json:"uploadedBy" bson:"uploadedBy"`
	PublishedAt *time.Time `json:"publishedAt,omitempty" bson:"publishedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt" bson:"createdAt"`
}

// ReportDownloadRequest model
type ReportDownloadRequest struct {
	Phone    string `json:"phone" validate:"required"`
	OTP      string `json:"otp" validate:"required,len=6,numeric"`
	ReportID int64  `json:"reportId" validate:"required,gt=0"`
}
