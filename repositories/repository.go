package repositories

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names
const (
	CountersCollection          = "counters"
	UsersCollection             = "users"
	DoctorsCollection           = "doctors"
	EmployeesCollection         = "employees"
	BookingsCollection          = "bookings"
	CommissionRulesCollection   = "commission_rules"
	CommissionRecordsCollection = "doctor_commissions"
	AttendanceCollection        = "attendance"
	SalarySlipsCollection       = "salary_slips"
	PrescriptionsCollection     = "prescriptions"
	ReportsCollection           = "reports"
	InventoryCollection         = "inventory"
	PhoneOTPCollection          = "phone_otps"
)

const queryTimeout = 10 * time.Second

var (
	// ErrNotFound is returned when a lookup matches no document
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when an insert violates a unique index
	ErrDuplicate = errors.New("duplicate record")
)

// NextID returns the next value of a named integer sequence
func NextID(ctx context.Context, db *mongo.Database, name string) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := db.Collection(CountersCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": 1}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, err
	}
	return counter.Seq, nil
}

func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicate
	}
	return err
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, queryTimeout)
}

// findAll runs a query and decodes every document into out
func findAll(ctx context.Context, coll *mongo.Collection, filter interface{}, out interface{}, opts ...*options.FindOptions) error {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	return cursor.All(ctx, out)
}
