package utils

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/labdesk/labdesk_backend/models"
)

func TestWorkedMinutes(t *testing.T) {
	entry := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	exit := entry.Add(8*time.Hour + 15*time.Minute)
	early := entry.Add(-time.Hour)

	tests := []struct {
		name        string
		entry, exit *time.Time
		want        int
	}{
		{"full shift", &entry, &exit, 8*60 + 15 + GraceMinutes},
		{"same instant", &entry, &entry, GraceMinutes},
		{"missing exit", &entry, nil, 0},
		{"missing entry", nil, &exit, 0},
		{"exit before entry", &entry, &early, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WorkedMinutes(tt.entry, tt.exit); got != tt.want {
				t.Errorf("WorkedMinutes = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPayableDaysSkipsAbsentAndRejected(t *testing.T) {
	records := []models.Attendance{
		{Present: true, Status: models.AttendanceApproved},
		{Present: true, Status: models.AttendancePending},
		{Present: true, Status: models.AttendanceRejected},
		{Present: false, Status: models.AttendanceApproved},
	}
	if got := PayableDays(records); got != 2 {
		t.Errorf("PayableDays = %d, want 2", got)
	}
}

func TestCalculateSalary(t *testing.T) {
	tests := []struct {
		base string
		days int
		want string
	}{
		{"30000", 30, "30000"},
		{"30000", 21, "21000"},
		{"25000", 7, "5833.33"},
		{"10000", 0, "0"},
	}
	for _, tt := range tests {
		got := CalculateSalary(decimal.RequireFromString(tt.base), tt.days)
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("CalculateSalary(%s, %d) = %s, want %s", tt.base, tt.days, got, tt.want)
		}
	}
}

func TestMonthRange(t *testing.T) {
	from, to, label, err := MonthRange(2024, 12)
	if err != nil {
		t.Fatalf("MonthRange: %v", err)
	}
	if from != "2024-12-01" || to != "2025-01-01" || label != "2024-12" {
		t.Errorf("MonthRange(2024, 12) = %s %s %s", from, to, label)
	}

	if _, _, _, err := MonthRange(2024, 13); err == nil {
		t.Error("expected error for month 13")
	}
	if _, _, _, err := MonthRange(1999, 1); err == nil {
		t.Error("expected error for year 1999")
	}
}

func TestMonthBounds(t *testing.T) {
	start, end, err := MonthBounds(2024, 2, time.UTC)
	if err != nil {
		t.Fatalf("MonthBounds: %v", err)
	}
	if !start.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)) || !end.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("MonthBounds(2024, 2) = %s .. %s", start, end)
	}
}
