package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/labdesk/labdesk_backend/models"
)

type PrescriptionRepository struct {
	db         *mongo.Database
	collection *mongo.Collection
}

func NewPrescriptionRepository(db *mongo.Database) *PrescriptionRepository {
	return &PrescriptionRepository{db: db, collection: db.Collection(PrescriptionsCollection)}
}

func (r *PrescriptionRepository) Create(ctx context.Context, p *models.Prescription) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	id, err := NextID(ctx, r.db, PrescriptionsCollection)
	if err != nil {
		return err
	}
	p.ID = id
	_, err = r.collection.InsertOne(ctx, p)
	return mapError(err)
}

func (r *PrescriptionRepository) ListByUser(ctx context.Context, userID int64) ([]models.Prescription, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	items := []models.Prescription{}
	opts := options.Find().SetSort(bson.D{{Key: "uploadedAt", Value: -1}})
	if err := findAll(ctx, r.collection, bson.M{"userId": userID}, &items, opts); err != nil {
		return nil, err
	}
	return items, nil
}

type ReportRepository struct {
	db         *mongo.Database
	collection *mongo.Collection
}

func NewReportRepository(db *mongo.Database) *ReportRepository {
	return &ReportRepository{db: db, collection: db.Collection(ReportsCollection)}
}

func (r *ReportRepository) Create(ctx context.Context, report *models.Report) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	id, err := NextID(ctx, r.db, ReportsCollection)
	if err != nil {
		return err
	}
	report.ID = id
	_, err = r.collection.InsertOne(ctx, report)
	return mapError(err)
}

func (r *ReportRepository) FindByID(ctx context.Context, id int64) (*models.Report, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var report models.Report
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&report); err != nil {
		return nil, mapError(err)
	}
	return &report, nil
}

// Publish marks a report visible to the patient and returns the updated report
func (r *ReportRepository) Publish(ctx context.Context, id int64, at time.Time) (*models.Report, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var report models.Report
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"isPublished": true, "publishedAt": at}},
		opts,
	).Decode(&report)
	if err != nil {
		return nil, mapError(err)
	}
	return &report, nil
}
