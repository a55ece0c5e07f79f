package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/labdesk/labdesk_backend/models"
	"github.com/labdesk/labdesk_backend/repositories"
	"github.com/labdesk/labdesk_backend/utils"
)

// InventoryController tracks instruments and medicines
type InventoryController struct {
	items InventoryStore
}

// NewInventoryController creates a new inventory controller
func NewInventoryController(items InventoryStore) *InventoryController {
	return &InventoryController{items: items}
}

func (ic *InventoryController) AddItem(c echo.Context) error {
	var req models.InventoryRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	req.Type = strings.ToUpper(strings.TrimSpace(req.Type))
	req.ItemName = utils.SanitizeInput(req.ItemName)
	if err := c.Validate(&req); err != nil {
		return fail(c, http.StatusBadRequest, utils.ValidationMessage(err))
	}

	now := time.Now()
	item := &models.InventoryItem{
		ItemName:  req.ItemName,
		Type:      req.Type,
		Quantity:  req.Quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := ic.items.Create(c.Request().Context(), item); err != nil {
		c.Logger().Errorf("Failed to add inventory item: %v", err)
		return fail(c, http.StatusInternalServerError, "Failed to add item")
	}
	return respond(c, http.StatusCreated, "Item added", item)
}

func (ic *InventoryController) ListItems(c echo.Context) error {
	itemType := strings.ToUpper(c.QueryParam("type"))
	if itemType != "" && itemType != models.InventoryInstrument && itemType != models.InventoryMedicine {
		return fail(c, http.StatusBadRequest, "type must be INSTRUMENT or MEDICINE")
	}
	items, err := ic.items.List(c.Request().Context(), itemType)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to list inventory")
	}
	return respond(c, http.StatusOK, "Inventory retrieved", items)
}

// AdjustStock adds or removes stock. Stock never goes below zero.
func (ic *InventoryController) AdjustStock(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "Invalid item ID")
	}
	var req models.InventoryAdjustRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	item, err := ic.items.Adjust(c.Request().Context(), id, req.Delta)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return fail(c, http.StatusNotFound, "Item not found")
	case errors.Is(err, repositories.ErrInsufficientStock):
		return fail(c, http.StatusConflict, "Insufficient stock")
	case err != nil:
		return fail(c, http.StatusInternalServerError, "Failed to adjust stock")
	}
	return respond(c, http.StatusOK, "Stock updated", item)
}
