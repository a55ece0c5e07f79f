package services

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/labdesk/labdesk_backend/models"
	"github.com/labdesk/labdesk_backend/repositories"
)

type memoryBookings struct {
	mu       sync.Mutex
	nextID   int64
	bookings map[int64]*models.Booking
}

func newMemoryBookings() *memoryBookings {
	return &memoryBookings{bookings: map[int64]*models.Booking{}}
}

func (m *memoryBookings) Create(_ context.Context, b *models.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	b.ID = m.nextID
	stored := *b
	m.bookings[b.ID] = &stored
	return nil
}

func (m *memoryBookings) FindByID(_ context.Context, id int64) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	out := *b
	return &out, nil
}

func (m *memoryBookings) UpdateCommission(_ context.Context, id int64, status string, amount decimal.Decimal, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return repositories.ErrNotFound
	}
	b.CommissionStatus = status
	b.CommissionAmount = amount
	b.CommissionError = reason
	return nil
}

func (m *memoryBookings) ListByCommissionStatus(_ context.Context, statuses []string, updatedBefore time.Time, limit int64) ([]models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Booking
	for _, b := range m.bookings {
		for _, s := range statuses {
			if b.CommissionStatus == s && !b.UpdatedAt.After(updatedBefore) {
				out = append(out, *b)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

// memoryRecords enforces one record per booking like the unique index does
type memoryRecords struct {
	mu        sync.Mutex
	records   map[int64]models.CommissionRecord
	createErr error
	// hideOnce makes the next lookup miss, simulating a concurrent insert
	hideOnce bool
}

func newMemoryRecords() *memoryRecords {
	return &memoryRecords{records: map[int64]models.CommissionRecord{}}
}

func (m *memoryRecords) Create(_ context.Context, r *models.CommissionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if _, exists := m.records[r.BookingID]; exists {
		return repositories.ErrDuplicate
	}
	r.ID = int64(len(m.records) + 1)
	m.records[r.BookingID] = *r
	return nil
}

func (m *memoryRecords) FindByBookingID(_ context.Context, bookingID int64) (*models.CommissionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hideOnce {
		m.hideOnce = false
		return nil, repositories.ErrNotFound
	}
	r, ok := m.records[bookingID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &r, nil
}

type memoryDoctors map[int64]models.Doctor

func (m memoryDoctors) FindByID(_ context.Context, id int64) (*models.Doctor, error) {
	d, ok := m[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &d, nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	events   []string
	payloads []interface{}
}

func (n *recordingNotifier) Publish(role, eventType, _ string, data interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, role+":"+eventType)
	n.payloads = append(n.payloads, data)
}

func (n *recordingNotifier) count(event string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, e := range n.events {
		if e == models.RoleAdmin+":"+event {
			c++
		}
	}
	return c
}

func (n *recordingNotifier) has(event string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, e := range n.events {
		if e == models.RoleAdmin+":"+event {
			return true
		}
	}
	return false
}

type bookingFixture struct {
	svc      *BookingService
	bookings *memoryBookings
	records  *memoryRecords
	rules    *memoryRules
	notifier *recordingNotifier
}

func newBookingFixture(rules ...models.CommissionRule) *bookingFixture {
	f := &bookingFixture{
		bookings: newMemoryBookings(),
		records:  newMemoryRecords(),
		rules:    &memoryRules{rules: rules},
		notifier: &recordingNotifier{},
	}
	doctors := memoryDoctors{5: {ID: 5, Name: "Dr. Rao"}}
	f.svc = NewBookingService(f.bookings, f.records, doctors, NewCommissionService(f.rules), f.notifier)
	fixed := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return fixed }
	return f
}

func labRequest(doctorID *int64, amount string) models.BookingRequest {
	return models.BookingRequest{
		DoctorID:    doctorID,
		TestID:      idPtr(42),
		Amount:      dec(amount),
		BookingType: models.BookingTypeLab,
		PaymentMode: models.PaymentModeCash,
	}
}

func TestCreateBooking_RecordsCommission(t *testing.T) {
	rule := percentRule(1, "10")
	rule.DoctorID = idPtr(5)
	f := newBookingFixture(rule)

	booking, err := f.svc.CreateBooking(context.Background(), 100, labRequest(idPtr(5), "1500"))
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	if booking.Status != models.BookingPending {
		t.Errorf("booking status = %s, want PENDING", booking.Status)
	}
	if booking.CommissionStatus != models.CommissionStatusRecorded {
		t.Fatalf("commission status = %s, want RECORDED (%s)", booking.CommissionStatus, booking.CommissionError)
	}
	if !booking.CommissionAmount.Equal(dec("150")) {
		t.Errorf("commission = %s, want 150", booking.CommissionAmount)
	}

	rec, err := f.records.FindByBookingID(context.Background(), booking.ID)
	if err != nil {
		t.Fatalf("record not stored: %v", err)
	}
	if rec.DoctorID != 5 || rec.RuleID != 1 || !rec.TestAmount.Equal(dec("1500")) {
		t.Errorf("unexpected record %+v", rec)
	}

	stored, _ := f.bookings.FindByID(context.Background(), booking.ID)
	if stored.CommissionStatus != models.CommissionStatusRecorded {
		t.Errorf("stored commission status = %s", stored.CommissionStatus)
	}
	if !f.notifier.has(EventBookingCreated) || !f.notifier.has(EventCommissionRecorded) {
		t.Errorf("events = %v", f.notifier.events)
	}
}

func TestCreateBooking_NoDoctorMeansNoCommission(t *testing.T) {
	f := newBookingFixture(percentRule(1, "10"))

	booking, err := f.svc.CreateBooking(context.Background(), 100, labRequest(nil, "800"))
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	if booking.CommissionStatus != models.CommissionStatusNone {
		t.Errorf("commission status = %s, want NONE", booking.CommissionStatus)
	}
	if len(f.records.records) != 0 {
		t.Errorf("unexpected records %v", f.records.records)
	}
}

func TestCreateBooking_NoMatchingRuleMeansNone(t *testing.T) {
	other := flatRule(1, "50")
	other.DoctorID = idPtr(77)
	f := newBookingFixture(other)

	booking, err := f.svc.CreateBooking(context.Background(), 100, labRequest(idPtr(5), "800"))
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	if booking.CommissionStatus != models.CommissionStatusNone || !booking.CommissionAmount.IsZero() {
		t.Errorf("commission = %s %s, want NONE 0", booking.CommissionStatus, booking.CommissionAmount)
	}
}

func TestCreateBooking_MisconfiguredRuleFailsCommissionNotBooking(t *testing.T) {
	broken := models.CommissionRule{ID: 3, CommissionType: "BONUS", CommissionValue: dec("5"), IsActive: true}
	f := newBookingFixture(broken)

	booking, err := f.svc.CreateBooking(context.Background(), 100, labRequest(idPtr(5), "800"))
	if err != nil {
		t.Fatalf("booking should survive a bad rule, got %v", err)
	}
	if booking.CommissionStatus != models.CommissionStatusFailed {
		t.Fatalf("commission status = %s, want FAILED", booking.CommissionStatus)
	}
	if booking.CommissionError == "" {
		t.Error("failure reason not recorded")
	}
	if !f.notifier.has(EventCommissionFailed) {
		t.Errorf("events = %v", f.notifier.events)
	}

	// an admin fixes the rule and retries the failed bookings
	f.rules.rules = []models.CommissionRule{flatRule(3, "75")}
	settled, err := f.svc.RetryFailedCommissions(context.Background(), 10)
	if err != nil {
		t.Fatalf("RetryFailedCommissions: %v", err)
	}
	if settled != 1 {
		t.Errorf("settled = %d, want 1", settled)
	}
	stored, _ := f.bookings.FindByID(context.Background(), booking.ID)
	if stored.CommissionStatus != models.CommissionStatusRecorded || !stored.CommissionAmount.Equal(dec("75")) {
		t.Errorf("after retry: %s %s", stored.CommissionStatus, stored.CommissionAmount)
	}
	if stored.CommissionError != "" {
		t.Errorf("stale error kept: %s", stored.CommissionError)
	}
}

func TestCreateBooking_TransientErrorLeavesPending(t *testing.T) {
	f := newBookingFixture(flatRule(1, "40"))
	f.records.createErr = errors.New("connection reset")

	booking, err := f.svc.CreateBooking(context.Background(), 100, labRequest(idPtr(5), "800"))
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	if booking.CommissionStatus != models.CommissionStatusPending {
		t.Fatalf("commission status = %s, want PENDING", booking.CommissionStatus)
	}

	f.records.createErr = nil
	if _, err := f.svc.RetryPendingCommissions(context.Background(), 0, 10); err != nil {
		t.Fatalf("RetryPendingCommissions: %v", err)
	}
	stored, _ := f.bookings.FindByID(context.Background(), booking.ID)
	if stored.CommissionStatus != models.CommissionStatusRecorded {
		t.Errorf("after retry: %s", stored.CommissionStatus)
	}
}

func TestSettleCommission_ExactlyOnce(t *testing.T) {
	f := newBookingFixture(flatRule(1, "40"))
	booking, err := f.svc.CreateBooking(context.Background(), 100, labRequest(idPtr(5), "800"))
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	// an admin raises the rule afterwards; settling again must not add a record
	f.rules.rules = []models.CommissionRule{flatRule(1, "90")}
	for i := 0; i < 3; i++ {
		if err := f.svc.SettleCommission(context.Background(), booking); err != nil {
			t.Fatalf("SettleCommission #%d: %v", i+1, err)
		}
	}

	if len(f.records.records) != 1 {
		t.Fatalf("records = %d, want 1", len(f.records.records))
	}
	if !booking.CommissionAmount.Equal(dec("40")) {
		t.Errorf("commission = %s, want the originally recorded 40", booking.CommissionAmount)
	}
}

func TestSettleCommission_ConcurrentInsertReusesStoredRecord(t *testing.T) {
	f := newBookingFixture(flatRule(1, "40"))
	booking, err := f.svc.CreateBooking(context.Background(), 100, labRequest(idPtr(5), "800"))
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	f.rules.rules = []models.CommissionRule{flatRule(1, "90")}
	f.records.hideOnce = true
	if err := f.svc.SettleCommission(context.Background(), booking); err != nil {
		t.Fatalf("SettleCommission: %v", err)
	}
	if booking.CommissionStatus != models.CommissionStatusRecorded || !booking.CommissionAmount.Equal(dec("40")) {
		t.Errorf("got %s %s, want RECORDED 40", booking.CommissionStatus, booking.CommissionAmount)
	}
	if len(f.records.records) != 1 {
		t.Errorf("records = %d, want 1", len(f.records.records))
	}
}

func TestCreateBooking_Validation(t *testing.T) {
	f := newBookingFixture()

	tests := []struct {
		name  string
		req   models.BookingRequest
		field string
	}{
		{"zero amount", labRequest(nil, "0"), "amount"},
		{"negative amount", labRequest(nil, "-10"), "amount"},
		{"unknown doctor", labRequest(idPtr(404), "100"), "doctorId"},
		{
			"test and package",
			models.BookingRequest{TestID: idPtr(1), PackageID: idPtr(2), Amount: dec("100"), BookingType: "LAB", PaymentMode: "CASH"},
			"packageId",
		},
		{
			"nothing booked",
			models.BookingRequest{Amount: dec("100"), BookingType: "LAB", PaymentMode: "CASH"},
			"testId",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateBooking(context.Background(), 100, tt.req)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if verr.Field != tt.field {
				t.Errorf("field = %s, want %s", verr.Field, tt.field)
			}
		})
	}
	if len(f.bookings.bookings) != 0 {
		t.Errorf("invalid requests stored %d bookings", len(f.bookings.bookings))
	}
}

func TestRecalculate_UnknownBooking(t *testing.T) {
	f := newBookingFixture()
	if _, err := f.svc.Recalculate(context.Background(), 99); !errors.Is(err, repositories.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRetryPendingCommissions_LeavesFailedForAdmin(t *testing.T) {
	broken := models.CommissionRule{ID: 3, CommissionType: "BONUS", CommissionValue: dec("5"), IsActive: true}
	f := newBookingFixture(broken)

	booking, err := f.svc.CreateBooking(context.Background(), 100, labRequest(idPtr(5), "800"))
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	for i := 0; i < 3; i++ {
		settled, err := f.svc.RetryPendingCommissions(context.Background(), 0, 10)
		if err != nil {
			t.Fatalf("RetryPendingCommissions: %v", err)
		}
		if settled != 0 {
			t.Errorf("sweep #%d settled %d, want 0", i+1, settled)
		}
	}
	stored, _ := f.bookings.FindByID(context.Background(), booking.ID)
	if stored.CommissionStatus != models.CommissionStatusFailed {
		t.Errorf("commission status = %s, want FAILED", stored.CommissionStatus)
	}

	// retrying with the rule still broken does not alert admins again
	if _, err := f.svc.RetryFailedCommissions(context.Background(), 10); err != nil {
		t.Fatalf("RetryFailedCommissions: %v", err)
	}
	if got := f.notifier.count(EventCommissionFailed); got != 1 {
		t.Errorf("%s published %d times, want 1", EventCommissionFailed, got)
	}
}

func TestCreateBooking_PublishesSnapshots(t *testing.T) {
	rule := percentRule(1, "10")
	rule.DoctorID = idPtr(5)
	f := newBookingFixture(rule)

	// encode every payload on another goroutine the way the websocket pump does
	var wg sync.WaitGroup
	encoder := notifierFunc(func(role, eventType, message string, data interface{}) {
		f.notifier.Publish(role, eventType, message, data)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := json.Marshal(data); err != nil {
				t.Errorf("encode %s: %v", eventType, err)
			}
		}()
	})
	f.svc.notifier = encoder

	booking, err := f.svc.CreateBooking(context.Background(), 100, labRequest(idPtr(5), "1500"))
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	wg.Wait()

	created, ok := f.notifier.payloads[0].(models.Booking)
	if !ok {
		t.Fatalf("booking_created payload is %T, want models.Booking", f.notifier.payloads[0])
	}
	if created.CommissionStatus != models.CommissionStatusPending {
		t.Errorf("published booking changed after publish: %s", created.CommissionStatus)
	}
	if booking.CommissionStatus != models.CommissionStatusRecorded {
		t.Errorf("returned booking = %s, want RECORDED", booking.CommissionStatus)
	}
	if _, ok := f.notifier.payloads[1].(models.CommissionRecord); !ok {
		t.Errorf("commission_recorded payload is %T, want models.CommissionRecord", f.notifier.payloads[1])
	}
}

type notifierFunc func(role, eventType, message string, data interface{})

func (fn notifierFunc) Publish(role, eventType, message string, data interface{}) {
	fn(role, eventType, message, data)
}
