package service

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/sale/internal/models"
)

type OrderEvent struct {
	Type        string             `json:"type"`
	OrderID     uint               `json:"orderID"`
	UserID      uint               `json:"userID"`
	Status      models.OrderStatus `json:"status"`
	TotalAmount decimal.Decimal    `json:"totalAmount"`
}

func (e OrderEvent) key() string { return strconv.FormatUint(uint64(e.OrderID), 10) }

func orderEvent(typ string, o *models.Order) OrderEvent {
	return OrderEvent{
		Type:        typ,
		OrderID:     o.ID,
		UserID:      o.UserID,
		Status:      o.Status,
		TotalAmount: o.TotalAmount,
	}
}

type CatalogEvent struct {
	Type       string `json:"type"`
	ProductID  uint   `json:"productID,omitempty"`
	CategoryID uint   `json:"categoryID,omitempty"`
	Name       string `json:"name"`
}

func (e CatalogEvent) key() string {
	if e.ProductID != 0 {
		return "product-" + strconv.FormatUint(uint64(e.ProductID), 10)
	}
	return "category-" + strconv.FormatUint(uint64(e.CategoryID), 10)
}
