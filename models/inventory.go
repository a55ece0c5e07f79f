package models

import "time"

// Inventory item kinds
const (
	InventoryInstrument = "INSTRUMENT"
	InventoryMedicine   = "MEDICINE"
)

// InventoryItem model
type InventoryItem struct {
	ID        int64     `json:"id" bson:"_id"`
	ItemName  string    `json:"itemName" bson:"itemName"`
	Type      string    `json:"type" bson:"type"`
	Quantity  int       `json:"quantity" bson:"quantity"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// InventoryRequest model
type InventoryRequest struct {
	ItemName string `json:"itemName" validate:"required,max=200"`
	Type     string `json:"type" validate:"required,oneof=INSTRUMENT MEDICINE"`
	Quantity int    `json:"quantity" validate:"min=0"`
}

// InventoryAdjustRequest changes stock by Delta, which may be negative
type InventoryAdjustRequest struct {
	Delta int `json:"delta" validate:"required"`
}
