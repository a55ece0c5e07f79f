package controllers

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/labdesk/labdesk_backend/models"
	"github.com/labdesk/labdesk_backend/repositories"
	"github.com/labdesk/labdesk_backend/utils"
)

type fakeUsers struct {
	mu    sync.Mutex
	users map[int64]*models.User
}

func newFakeUsers(users ...models.User) *fakeUsers {
	f := &fakeUsers{users: map[int64]*models.User{}}
	for i := range users {
		u := users[i]
		f.users[u.ID] = &u
	}
	return f
}

func (f *fakeUsers) FindByID(_ context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	out := *u
	return &out, nil
}

func (f *fakeUsers) FindByPhone(_ context.Context, phone string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Phone == phone {
			out := *u
			return &out, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeUsers) Create(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Phone == user.Phone {
			return repositories.ErrDuplicate
		}
	}
	user.ID = int64(len(f.users) + 100)
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeUsers) UpdateRole(_ context.Context, id int64, role string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	u.Role = role
	return nil
}

func (f *fakeUsers) List(_ context.Context) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.User{}
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}

type fakeDoctors struct {
	mu      sync.Mutex
	doctors map[int64]models.Doctor
}

func newFakeDoctors(ids ...int64) *fakeDoctors {
	f := &fakeDoctors{doctors: map[int64]models.Doctor{}}
	for _, id := range ids {
		f.doctors[id] = models.Doctor{ID: id, Name: "Dr. Test"}
	}
	return f
}

func (f *fakeDoctors) Create(_ context.Context, d *models.Doctor) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d.ID = int64(len(f.doctors) + 1)
	f.doctors[d.ID] = *d
	return nil
}

func (f *fakeDoctors) FindByID(_ context.Context, id int64) (*models.Doctor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.doctors[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &d, nil
}

func (f *fakeDoctors) List(_ context.Context) ([]models.Doctor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Doctor{}
	for _, d := range f.doctors {
		out = append(out, d)
	}
	return out, nil
}

type fakeEmployees struct {
	mu        sync.Mutex
	employees map[int64]models.Employee
}

func newFakeEmployees(employees ...models.Employee) *fakeEmployees {
	f := &fakeEmployees{employees: map[int64]models.Employee{}}
	for _, e := range employees {
		f.employees[e.ID] = e
	}
	return f
}

func (f *fakeEmployees) Create(_ context.Context, e *models.Employee) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e.ID = int64(len(f.employees) + 1)
	f.employees[e.ID] = *e
	return nil
}

func (f *fakeEmployees) FindByID(_ context.Context, id int64) (*models.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.employees[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &e, nil
}

func (f *fakeEmployees) FindByUserID(_ context.Context, userID int64) (*models.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.employees {
		if e.UserID != nil && *e.UserID == userID {
			out := e
			return &out, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeEmployees) List(_ context.Context) ([]models.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Employee{}
	for _, e := range f.employees {
		out = append(out, e)
	}
	return out, nil
}

// fakeBookings serves both the booking service and the query handlers
type fakeBookings struct {
	mu       sync.Mutex
	nextID   int64
	bookings map[int64]*models.Booking
}

func newFakeBookings() *fakeBookings {
	return &fakeBookings{bookings: map[int64]*models.Booking{}}
}

func (f *fakeBookings) put(b models.Booking) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b.ID > f.nextID {
		f.nextID = b.ID
	}
	f.bookings[b.ID] = &b
}

func (f *fakeBookings) Create(_ context.Context, b *models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	b.ID = f.nextID
	stored := *b
	f.bookings[b.ID] = &stored
	return nil
}

func (f *fakeBookings) FindByID(_ context.Context, id int64) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	out := *b
	return &out, nil
}

func (f *fakeBookings) List(_ context.Context, filter repositories.BookingFilter) ([]models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Booking{}
	for _, b := range f.bookings {
		if filter.UserID != 0 && b.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		if filter.DoctorID != 0 && (b.DoctorID == nil || *b.DoctorID != filter.DoctorID) {
			continue
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeBookings) UpdateStatus(_ context.Context, id int64, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return repositories.ErrNotFound
	}
	b.Status = status
	return nil
}

func (f *fakeBookings) UpdateCommission(_ context.Context, id int64, status string, amount decimal.Decimal, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return repositories.ErrNotFound
	}
	b.CommissionStatus = status
	b.CommissionAmount = amount
	b.CommissionError = reason
	return nil
}

func (f *fakeBookings) ListByCommissionStatus(_ context.Context, statuses []string, _ time.Time, _ int64) ([]models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Booking
	for _, b := range f.bookings {
		for _, s := range statuses {
			if b.CommissionStatus == s {
				out = append(out, *b)
			}
		}
	}
	return out, nil
}

// fakeRules matches candidates in memory the way the Mongo query does
type fakeRules struct {
	mu    sync.Mutex
	rules []models.CommissionRule
}

func (f *fakeRules) Create(_ context.Context, r *models.CommissionRule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r.ID = int64(len(f.rules) + 1)
	f.rules = append(f.rules, *r)
	return nil
}

func (f *fakeRules) FindByID(_ context.Context, id int64) (*models.CommissionRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rules {
		if r.ID == id {
			out := r
			return &out, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeRules) List(_ context.Context, all bool) ([]models.CommissionRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.CommissionRule{}
	for _, r := range f.rules {
		if all || r.IsActive {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRules) Deactivate(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rules {
		if f.rules[i].ID == id {
			f.rules[i].IsActive = false
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (f *fakeRules) FindCandidateRules(_ context.Context, attrs models.BookingAttributes) ([]models.CommissionRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.CommissionRule
	for _, r := range f.rules {
		if r.Matches(attrs) {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeRecords struct {
	mu      sync.Mutex
	records map[int64]models.CommissionRecord
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{records: map[int64]models.CommissionRecord{}}
}

func (f *fakeRecords) Create(_ context.Context, r *models.CommissionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[r.BookingID]; ok {
		return repositories.ErrDuplicate
	}
	r.ID = int64(len(f.records) + 1)
	f.records[r.BookingID] = *r
	return nil
}

func (f *fakeRecords) FindByBookingID(_ context.Context, bookingID int64) (*models.CommissionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[bookingID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &r, nil
}

func (f *fakeRecords) ListByDoctor(_ context.Context, doctorID int64, from, to time.Time) ([]models.CommissionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.CommissionRecord
	for _, r := range f.records {
		if r.DoctorID != doctorID {
			continue
		}
		if !from.IsZero() && r.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && !r.CreatedAt.Before(to) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeAttendance struct {
	mu      sync.Mutex
	records map[int64]*models.Attendance
}

func newFakeAttendance() *fakeAttendance {
	return &fakeAttendance{records: map[int64]*models.Attendance{}}
}

func (f *fakeAttendance) Create(_ context.Context, a *models.Attendance) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.EmployeeID == a.EmployeeID && r.Date == a.Date {
			return repositories.ErrDuplicate
		}
	}
	a.ID = int64(len(f.records) + 1)
	stored := *a
	f.records[a.ID] = &stored
	return nil
}

func (f *fakeAttendance) FindByID(_ context.Context, id int64) (*models.Attendance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	out := *r
	return &out, nil
}

func (f *fakeAttendance) FindByEmployeeDate(_ context.Context, employeeID int64, date string) (*models.Attendance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.EmployeeID == employeeID && r.Date == date {
			out := *r
			return &out, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeAttendance) SetExit(_ context.Context, id int64, exit time.Time, workedMinutes int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[id]
	if !ok {
		return repositories.ErrNotFound
	}
	r.ExitTime = &exit
	r.WorkedMinutes = workedMinutes
	return nil
}

func (f *fakeAttendance) SetStatus(_ context.Context, id int64, status string, approvedBy int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[id]
	if !ok {
		return repositories.ErrNotFound
	}
	r.Status = status
	r.ApprovedBy = &approvedBy
	return nil
}

func (f *fakeAttendance) filter(keep func(*models.Attendance) bool) []models.Attendance {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Attendance{}
	for _, r := range f.records {
		if keep(r) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func (f *fakeAttendance) ListByEmployee(_ context.Context, employeeID int64) ([]models.Attendance, error) {
	return f.filter(func(a *models.Attendance) bool { return a.EmployeeID == employeeID }), nil
}

func (f *fakeAttendance) ListByDate(_ context.Context, date string) ([]models.Attendance, error) {
	return f.filter(func(a *models.Attendance) bool { return a.Date == date }), nil
}

func (f *fakeAttendance) ListByEmployeeBetween(_ context.Context, employeeID int64, fromDate, toDate string) ([]models.Attendance, error) {
	return f.filter(func(a *models.Attendance) bool {
		return a.EmployeeID == employeeID && a.Date >= fromDate && a.Date < toDate
	}), nil
}

type fakeSlips struct {
	mu    sync.Mutex
	slips map[string]models.SalarySlip
}

func (f *fakeSlips) Upsert(_ context.Context, slip *models.SalarySlip) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.slips == nil {
		f.slips = map[string]models.SalarySlip{}
	}
	key := slip.Month + "|" + strconv.FormatInt(slip.EmployeeID, 10)
	if existing, ok := f.slips[key]; ok {
		slip.ID = existing.ID
	} else {
		slip.ID = int64(len(f.slips) + 1)
	}
	f.slips[key] = *slip
	return nil
}

func (f *fakeSlips) ListByEmployee(_ context.Context, employeeID int64) ([]models.SalarySlip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.SalarySlip{}
	for _, s := range f.slips {
		if s.EmployeeID == employeeID {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeReports struct {
	mu      sync.Mutex
	reports map[int64]*models.Report
}

func newFakeReports(reports ...models.Report) *fakeReports {
	f := &fakeReports{reports: map[int64]*models.Report{}}
	for i := range reports {
		r := reports[i]
		f.reports[r.ID] = &r
	}
	return f
}

func (f *fakeReports) Create(_ context.Context, r *models.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r.ID = int64(len(f.reports) + 1)
	stored := *r
	f.reports[r.ID] = &stored
	return nil
}

func (f *fakeReports) FindByID(_ context.Context, id int64) (*models.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reports[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	out := *r
	return &out, nil
}

func (f *fakeReports) Publish(_ context.Context, id int64, at time.Time) (*models.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reports[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	r.IsPublished = true
	r.PublishedAt = &at
	out := *r
	return &out, nil
}

type fakeInventory struct {
	mu    sync.Mutex
	items map[int64]*models.InventoryItem
}

func (f *fakeInventory) Create(_ context.Context, item *models.InventoryItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.items == nil {
		f.items = map[int64]*models.InventoryItem{}
	}
	item.ID = int64(len(f.items) + 1)
	stored := *item
	f.items[item.ID] = &stored
	return nil
}

func (f *fakeInventory) List(_ context.Context, itemType string) ([]models.InventoryItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.InventoryItem{}
	for _, it := range f.items {
		if itemType == "" || it.Type == itemType {
			out = append(out, *it)
		}
	}
	return out, nil
}

func (f *fakeInventory) Adjust(_ context.Context, id int64, delta int) (*models.InventoryItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.items[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	if it.Quantity+delta < 0 {
		return nil, repositories.ErrInsufficientStock
	}
	it.Quantity += delta
	out := *it
	return &out, nil
}

// fakeOTPs keeps plain codes; hashing is covered by the utils tests
type fakeOTPs struct {
	mu    sync.Mutex
	codes map[string]string
}

func newFakeOTPs() *fakeOTPs {
	return &fakeOTPs{codes: map[string]string{}}
}

func (f *fakeOTPs) Save(_ context.Context, phone, purpose, code string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes[purpose+"|"+phone] = code
	return nil
}

func (f *fakeOTPs) Verify(_ context.Context, phone, purpose, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.codes[purpose+"|"+phone]
	if !ok {
		return utils.ErrOTPNotFound
	}
	if stored != code {
		return utils.ErrOTPInvalid
	}
	delete(f.codes, purpose+"|"+phone)
	return nil
}

type fakeSMS struct {
	mu   sync.Mutex
	sent map[string]string
}

func (f *fakeSMS) SendOTP(phone, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sent == nil {
		f.sent = map[string]string{}
	}
	f.sent[phone] = code
	return nil
}

func (f *fakeSMS) last(phone string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[phone]
}

type userEvent struct {
	userID    int64
	eventType string
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []userEvent
}

func (f *fakeNotifier) NotifyUser(userID int64, eventType, _ string, _ interface{}) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, userEvent{userID: userID, eventType: eventType})
	return true
}

type fakeMailer struct {
	sent []string
}

func (f *fakeMailer) Configured() bool { return true }

func (f *fakeMailer) SendSalarySlip(to, _, month string, _ int, amount decimal.Decimal) error {
	f.sent = append(f.sent, to+" "+month+" "+amount.StringFixed(2))
	return nil
}
