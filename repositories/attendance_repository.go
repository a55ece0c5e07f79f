package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/labdesk/labdesk_backend/models"
)

type AttendanceRepository struct {
	db         *mongo.Database
	collection *mongo.Collection
}

func NewAttendanceRepository(db *mongo.Database) *AttendanceRepository {
	return &AttendanceRepository{db: db, collection: db.Collection(AttendanceCollection)}
}

// Create inserts an attendance record; a second record for the same employee
// and date fails with ErrDuplicate
func (r *AttendanceRepository) Create(ctx context.Context, a *models.Attendance) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	id, err := NextID(ctx, r.db, AttendanceCollection)
	if err != nil {
		return err
	}
	a.ID = id
	_, err = r.collection.InsertOne(ctx, a)
	return mapError(err)
}

func (r *AttendanceRepository) FindByID(ctx context.Context, id int64) (*models.Attendance, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var a models.Attendance
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		return nil, mapError(err)
	}
	return &a, nil
}

func (r *AttendanceRepository) FindByEmployeeDate(ctx context.Context, employeeID int64, date string) (*models.Attendance, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var a models.Attendance
	err := r.collection.FindOne(ctx, bson.M{"employeeId": employeeID, "date": date}).Decode(&a)
	if err != nil {
		return nil, mapError(err)
	}
	return &a, nil
}

// SetExit records the punch-out time and the resulting worked minutes
func (r *AttendanceRepository) SetExit(ctx context.Context, id int64, exit time.Time, workedMinutes int) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"exitTime":      exit,
			"workedMinutes": workedMinutes,
			"updatedAt":     time.Now(),
		},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *AttendanceRepository) SetStatus(ctx context.Context, id int64, status string, approvedBy int64) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"status":     status,
			"approvedBy": approvedBy,
			"updatedAt":  time.Now(),
		},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *AttendanceRepository) ListByEmployee(ctx context.Context, employeeID int64) ([]models.Attendance, error) {
	return r.list(ctx, bson.M{"employeeId": employeeID})
}

func (r *AttendanceRepository) ListByDate(ctx context.Context, date string) ([]models.Attendance, error) {
	return r.list(ctx, bson.M{"date": date})
}

// ListByEmployeeBetween returns records with fromDate <= date < toDate.
// Dates are stored as YYYY-MM-DD so string order is calendar order.
func (r *AttendanceRepository) ListByEmployeeBetween(ctx context.Context, employeeID int64, fromDate, toDate string) ([]models.Attendance, error) {
	return r.list(ctx, bson.M{
		"employeeId": employeeID,
		"date":       bson.M{"$gte": fromDate, "$lt": toDate},
	})
}

func (r *AttendanceRepository) list(ctx context.Context, filter bson.M) ([]models.Attendance, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	records := []models.Attendance{}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "employeeId", Value: 1}})
	if err := findAll(ctx, r.collection, filter, &records, opts); err != nil {
		return nil, err
	}
	return records, nil
}

type SalarySlipRepository struct {
	db         *mongo.Database
	collection *mongo.Collection
}

func NewSalarySlipRepository(db *mongo.Database) *SalarySlipRepository {
	return &SalarySlipRepository{db: db, collection: db.Collection(SalarySlipsCollection)}
}

// Upsert stores the slip for its employee and month, replacing the figures of
// an earlier run. The stored slip is written back into slip.
func (r *SalarySlipRepository) Upsert(ctx context.Context, slip *models.SalarySlip) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	id, err := NextID(ctx, r.db, SalarySlipsCollection)
	if err != nil {
		return err
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err = r.collection.FindOneAndUpdate(ctx,
		bson.M{"employeeId": slip.EmployeeID, "month": slip.Month},
		bson.M{
			"$set": bson.M{
				"presentDays": slip.PresentDays,
				"baseSalary":  slip.BaseSalary,
				"amount":      slip.Amount,
			},
			"$setOnInsert": bson.M{
				"_id":       id,
				"createdAt": slip.CreatedAt,
			},
		},
		opts,
	).Decode(slip)
	return mapError(err)
}

func (r *SalarySlipRepository) ListByEmployee(ctx context.Context, employeeID int64) ([]models.SalarySlip, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	slips := []models.SalarySlip{}
	opts := options.Find().SetSort(bson.D{{Key: "month", Value: -1}})
	if err := findAll(ctx, r.collection, bson.M{"employeeId": employeeID}, &slips, opts); err != nil {
		return nil, err
	}
	return slips, nil
}
