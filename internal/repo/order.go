package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/sale/internal/models"
)

func (r *GormRepo) CreateOrder(ctx context.Context, o *models.Order) error {
	return r.db(ctx).Create(o).Error
}

func (r *GormRepo) SaveOrder(ctx context.Context, o *models.Order) error {
	return r.db(ctx).Save(o).Error
}

// GetOrder loads an order, row-locked when lock is set.
func (r *GormRepo) GetOrder(ctx context.Context, id uint, lock bool) (*models.Order, error) {
	q := r.db(ctx)
	if lock {
		q = r.forUpdate(q)
	}

	var o models.Order
	if err := q.First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// ListOrders returns every order when userID is nil, otherwise that user's orders.
func (r *GormRepo) ListOrders(ctx context.Context, userID *uint, offset, limit int) (int64, []models.Order, error) {
	q := r.db(ctx).Model(&models.Order{})
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	orders := make([]models.Order, 0, limit)
	if err := q.Order("created_at DESC").Order("id DESC").Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		return 0, nil, err
	}
	return total, orders, nil
}

func (r *GormRepo) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db(ctx).Create(&items).Error
}

func (r *GormRepo) OrderItems(ctx context.Context, orderID uint) ([]models.OrderItem, error) {
	var items []models.OrderItem
	if err := r.db(ctx).Where("order_id = ?", orderID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) ItemsForOrders(ctx context.Context, orderIDs []uint) (map[uint][]models.OrderItem, error) {
	out := make(map[uint][]models.OrderItem, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}

	var items []models.OrderItem
	if err := r.db(ctx).Where("order_id IN ?", orderIDs).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	for _, it := range items {
		out[it.OrderID] = append(out[it.OrderID], it)
	}
	return out, nil
}

func (r *GormRepo) DeleteOrderItems(ctx context.Context, orderID uint) error {
	return r.db(ctx).Where("order_id = ?", orderID).Delete(&models.OrderItem{}).Error
}

// DeleteOrder removes the order together with its items.
func (r *GormRepo) DeleteOrder(ctx context.Context, id uint) error {
	if err := r.DeleteOrderItems(ctx, id); err != nil {
		return err
	}
	return deleted(r.db(ctx).Delete(&models.Order{}, id))
}
