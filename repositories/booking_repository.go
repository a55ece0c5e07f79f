package repositories

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/labdesk/labdesk_backend/models"
)

// BookingFilter narrows a booking listing. Zero values match everything.
type BookingFilter struct {
	UserID   int64
	DoctorID int64
	Status   string
	Limit    int64
	Skip     int64
}

type BookingRepository struct {
	db         *mongo.Database
	collection *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{db: db, collection: db.Collection(BookingsCollection)}
}

func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	id, err := NextID(ctx, r.db, BookingsCollection)
	if err != nil {
		return err
	}
	booking.ID = id
	_, err = r.collection.InsertOne(ctx, booking)
	return mapError(err)
}

func (r *BookingRepository) FindByID(ctx context.Context, id int64) (*models.Booking, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var booking models.Booking
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&booking); err != nil {
		return nil, mapError(err)
	}
	return &booking, nil
}

// List returns bookings newest first
func (r *BookingRepository) List(ctx context.Context, f BookingFilter) ([]models.Booking, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	filter := bson.M{}
	if f.UserID != 0 {
		filter["userId"] = f.UserID
	}
	if f.DoctorID != 0 {
		filter["doctorId"] = f.DoctorID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}
	if f.Skip > 0 {
		opts.SetSkip(f.Skip)
	}

	bookings := []models.Booking{}
	if err := findAll(ctx, r.collection, filter, &bookings, opts); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *BookingRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"status": status, "updatedAt": time.Now()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateCommission stores the outcome of commission settlement on a booking
func (r *BookingRepository) UpdateCommission(ctx context.Context, id int64, status string, amount decimal.Decimal, reason string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"commissionStatus": status,
			"commissionAmount": amount,
			"updatedAt":        time.Now(),
		},
	}
	if reason == "" {
		update["$unset"] = bson.M{"commissionError": ""}
	} else {
		update["$set"].(bson.M)["commissionError"] = reason
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByCommissionStatus returns the oldest bookings in one of statuses that
// were last updated before updatedBefore
func (r *BookingRepository) ListByCommissionStatus(ctx context.Context, statuses []string, updatedBefore time.Time, limit int64) ([]models.Booking, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	filter := bson.M{
		"commissionStatus": bson.M{"$in": statuses},
		"updatedAt":        bson.M{"$lte": updatedBefore},
	}
	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	bookings := []models.Booking{}
	if err := findAll(ctx, r.collection, filter, &bookings, opts); err != nil {
		return nil, err
	}
	return bookings, nil
}
