package repositories

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/labdesk/labdesk_backend/models"
)

// ErrInsufficientStock is returned when an adjustment would take a quantity below zero
var ErrInsufficientStock = errors.New("insufficient stock")

type InventoryRepository struct {
	db         *mongo.Database
	collection *mongo.Collection
}

func NewInventoryRepository(db *mongo.Database) *InventoryRepository {
	return &InventoryRepository{db: db, collection: db.Collection(InventoryCollection)}
}

func (r *InventoryRepository) Create(ctx context.Context, item *models.InventoryItem) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	id, err := NextID(ctx, r.db, InventoryCollection)
	if err != nil {
		return err
	}
	item.ID = id
	_, err = r.collection.InsertOne(ctx, item)
	return mapError(err)
}

func (r *InventoryRepository) List(ctx context.Context, itemType string) ([]models.InventoryItem, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	filter := bson.M{}
	if itemType != "" {
		filter["type"] = itemType
	}
	items := []models.InventoryItem{}
	opts := options.Find().SetSort(bson.D{{Key: "itemName", Value: 1}})
	if err := findAll(ctx, r.collection, filter, &items, opts); err != nil {
		return nil, err
	}
	return items, nil
}

// Adjust adds delta to an item's quantity in one atomic update. The filter
// only matches while the result stays non-negative.
func (r *InventoryRepository) Adjust(ctx context.Context, id int64, delta int) (*models.InventoryItem, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	filter := bson.M{"_id": id}
	if delta < 0 {
		filter["quantity"] = bson.M{"$gte": -delta}
	}

	var item models.InventoryItem
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := r.collection.FindOneAndUpdate(ctx, filter, bson.M{
		"$inc": bson.M{"quantity": delta},
		"$set": bson.M{"updatedAt": time.Now()},
	}, opts).Decode(&item)
	if err == nil {
		return &item, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	count, cerr := r.collection.CountDocuments(ctx, bson.M{"_id": id})
	if cerr != nil {
		return nil, cerr
	}
	if count == 0 {
		return nil, ErrNotFound
	}
	return nil, ErrInsufficientStock
}
