package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/labdesk/labdesk_backend/models"
)

// CommissionRuleRepository stores commission rules
type CommissionRuleRepository struct {
	db         *mongo.Database
	collection *mongo.Collection
}

func NewCommissionRuleRepository(db *mongo.Database) *CommissionRuleRepository {
	return &CommissionRuleRepository{db: db, collection: db.Collection(CommissionRulesCollection)}
}

func (r *CommissionRuleRepository) Create(ctx context.Context, rule *models.CommissionRule) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	id, err := NextID(ctx, r.db, CommissionRulesCollection)
	if err != nil {
		return err
	}
	rule.ID = id
	_, err = r.collection.InsertOne(ctx, rule)
	return mapError(err)
}

func (r *CommissionRuleRepository) FindByID(ctx context.Context, id int64) (*models.CommissionRule, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var rule models.CommissionRule
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&rule); err != nil {
		return nil, mapError(err)
	}
	return &rule, nil
}

// List returns rules ordered by ID. Inactive rules are included when all is set.
func (r *CommissionRuleRepository) List(ctx context.Context, all bool) ([]models.CommissionRule, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	filter := bson.M{"isActive": true}
	if all {
		filter = bson.M{}
	}
	rules := []models.CommissionRule{}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if err := findAll(ctx, r.collection, filter, &rules, opts); err != nil {
		return nil, err
	}
	return rules, nil
}

// Deactivate switches a rule off. Rules are never deleted so that stored
// commission records keep pointing at the rule that produced them.
func (r *CommissionRuleRepository) Deactivate(ctx context.Context, id int64) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"isActive": false, "updatedAt": time.Now()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// FindCandidateRules returns the active rules whose every constraint is either
// unset or equal to the booking's value for that field.
func (r *CommissionRuleRepository) FindCandidateRules(ctx context.Context, attrs models.BookingAttributes) ([]models.CommissionRule, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rules := []models.CommissionRule{}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if err := findAll(ctx, r.collection, candidateFilter(attrs), &rules, opts); err != nil {
		return nil, err
	}
	return rules, nil
}

// candidateFilter is the query form of models.CommissionRule.Matches
func candidateFilter(attrs models.BookingAttributes) bson.M {
	return bson.M{
		"isActive":    true,
		"doctorId":    idCandidates(attrs.DoctorID),
		"testId":      idCandidates(attrs.TestID),
		"packageId":   idCandidates(attrs.PackageID),
		"bookingType": stringCandidates(attrs.BookingType),
		"paymentMode": stringCandidates(attrs.PaymentMode),
	}
}

// null also matches a missing field
func idCandidates(v *int64) bson.M {
	if v == nil {
		return bson.M{"$in": bson.A{nil}}
	}
	return bson.M{"$in": bson.A{nil, *v}}
}

func stringCandidates(v string) bson.M {
	if v == "" {
		return bson.M{"$in": bson.A{nil}}
	}
	return bson.M{"$in": bson.A{nil, v}}
}

// CommissionRecordRepository stores doctor commission records
type CommissionRecordRepository struct {
	db         *mongo.Database
	collection *mongo.Collection
}

func NewCommissionRecordRepository(db *mongo.Database) *CommissionRecordRepository {
	return &CommissionRecordRepository{db: db, collection: db.Collection(CommissionRecordsCollection)}
}

// Create inserts a record. A second record for the same booking fails with
// ErrDuplicate through the unique bookingId index.
func (r *CommissionRecordRepository) Create(ctx context.Context, record *models.CommissionRecord) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	id, err := NextID(ctx, r.db, CommissionRecordsCollection)
	if err != nil {
		return err
	}
	record.ID = id
	_, err = r.collection.InsertOne(ctx, record)
	return mapError(err)
}

func (r *CommissionRecordRepository) FindByBookingID(ctx context.Context, bookingID int64) (*models.CommissionRecord, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var record models.CommissionRecord
	if err := r.collection.FindOne(ctx, bson.M{"bookingId": bookingID}).Decode(&record); err != nil {
		return nil, mapError(err)
	}
	return &record, nil
}

// ListByDoctor returns a doctor's records created in [from, to). Zero times
// leave that side of the range open.
func (r *CommissionRecordRepository) ListByDoctor(ctx context.Context, doctorID int64, from, to time.Time) ([]models.CommissionRecord, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	filter := bson.M{"doctorId": doctorID}
	created := bson.M{}
	if !from.IsZero() {
		created["$gte"] = from
	}
	if !to.IsZero() {
		created["$lt"] = to
	}
	if len(created) > 0 {
		filter["createdAt"] = created
	}

	records := []models.CommissionRecord{}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	if err := findAll(ctx, r.collection, filter, &records, opts); err != nil {
		return nil, err
	}
	return records, nil
}
