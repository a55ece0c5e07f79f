package utils

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/labdesk/labdesk_backend/models"
)

// GraceMinutes are credited to every completed shift
const GraceMinutes = 30

// WorkedMinutes returns the minutes between punch-in and punch-out plus the
// grace period. Missing or inverted punches count as zero.
func WorkedMinutes(entry, exit *time.Time) int {
	if entry == nil || exit == nil || exit.Before(*entry) {
		return 0
	}
	return int(exit.Sub(*entry).Minutes()) + GraceMinutes
}

// PayableDays counts the present days that were not rejected
func PayableDays(records []models.Attendance) int {
	days := 0
	for _, a := range records {
		if a.Present && a.Status != models.AttendanceRejected {
			days++
		}
	}
	return days
}

// MonthRange returns the first day of the month and of the following month
// as YYYY-MM-DD strings, plus the YYYY-MM label of the month.
func MonthRange(year, month int) (from, to, label string, err error) {
	if month < 1 || month > 12 {
		return "", "", "", fmt.Errorf("month must be between 1 and 12")
	}
	if year < 2000 || year > 9999 {
		return "", "", "", fmt.Errorf("invalid year %d", year)
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	return start.Format(models.DateLayout), end.Format(models.DateLayout), start.Format("2006-01"), nil
}

// MonthBounds is MonthRange as instants in loc
func MonthBounds(year, month int, loc *time.Location) (time.Time, time.Time, error) {
	if month < 1 || month > 12 {
		return time.Time{}, time.Time{}, fmt.Errorf("month must be between 1 and 12")
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0), nil
}

// CalculateSalary pays base/30 per payable day, rounded to cents
func CalculateSalary(base decimal.Decimal, days int) decimal.Decimal {
	return base.Mul(decimal.NewFromInt(int64(days))).Div(decimal.NewFromInt(30)).Round(2)
}
