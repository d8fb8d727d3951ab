package repo

import (
	"context"

	"github.com/Skotchmaster/sale/internal/models"
)

func (r *GormRepo) CreatePayment(ctx context.Context, p *models.Payment) error {
	return r.db(ctx).Create(p).Error
}

func (r *GormRepo) SavePayment(ctx context.Context, p *models.Payment) error {
	return r.db(ctx).Save(p).Error
}

func (r *GormRepo) GetPayment(ctx context.Context, id uint) (*models.Payment, error) {
	var p models.Payment
	if err := r.db(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormRepo) PaymentByOrder(ctx context.Context, orderID uint) (*models.Payment, error) {
	var p models.Payment
	if err := r.db(ctx).Where("order_id = ?", orderID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormRepo) DeletePayment(ctx context.Context, id uint) error {
	return deleted(r.db(ctx).Delete(&models.Payment{}, id))
}
