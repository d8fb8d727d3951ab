package repo

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/sale/internal/models"
)

// ProductFilter holds the optional criteria of a product listing.
type ProductFilter struct {
	Name         string
	Description  string
	CategoryName string
	PriceFrom    *decimal.Decimal
	PriceTo      *decimal.Decimal
	QuantityFrom *int
	QuantityTo   *int
}

func (r *GormRepo) CreateProduct(ctx context.Context, p *models.Product) error {
	return r.db(ctx).Create(p).Error
}

func (r *GormRepo) SaveProduct(ctx context.Context, p *models.Product) error {
	return r.db(ctx).Save(p).Error
}

func (r *GormRepo) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := r.db(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormRepo) DeleteProduct(ctx context.Context, id uint) error {
	return deleted(r.db(ctx).Delete(&models.Product{}, id))
}

// ProductsByIDs loads the given products, row-locked when lock is set.
// Missing ids are simply absent from the result.
func (r *GormRepo) ProductsByIDs(ctx context.Context, ids []uint, lock bool) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	q := r.db(ctx).Where("id IN ?", ids).Order("id ASC")
	if lock {
		q = r.forUpdate(q)
	}

	var items []models.Product
	if err := q.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// DecrementStock reserves qty units. It reports false when the stock is insufficient.
func (r *GormRepo) DecrementStock(ctx context.Context, productID uint, qty int) (bool, error) {
	res := r.db(ctx).Model(&models.Product{}).
		Where("id = ? AND quantity >= ?", productID, qty).
		UpdateColumn("quantity", gorm.Expr("quantity - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormRepo) IncrementStock(ctx context.Context, productID uint, qty int) error {
	return r.db(ctx).Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("quantity", gorm.Expr("quantity + ?", qty)).Error
}

func (r *GormRepo) ProductReferenced(ctx context.Context, productID uint) (bool, error) {
	var count int64
	if err := r.db(ctx).Model(&models.OrderItem{}).Where("product_id = ?", productID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormRepo) FilterProducts(ctx context.Context, f ProductFilter, offset, limit int) (int64, []models.Product, error) {
	q := r.applyProductFilter(r.db(ctx).Model(&models.Product{}), f).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.Product, 0, limit)
	if err := q.Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) applyProductFilter(q *gorm.DB, f ProductFilter) *gorm.DB {
	if f.Name != "" {
		q = q.Where("LOWER(name) LIKE ?", likePattern(f.Name))
	}
	if f.Description != "" {
		q = q.Where("LOWER(description) LIKE ?", likePattern(f.Description))
	}
	if f.CategoryName != "" {
		q = q.Where("category_id IN (?)",
			r.DB.Session(&gorm.Session{NewDB: true}).Model(&models.Category{}).
				Select("id").Where("LOWER(name) = ?", strings.ToLower(f.CategoryName)))
	}
	if f.PriceFrom != nil {
		q = q.Where("price >= ?", *f.PriceFrom)
	}
	if f.PriceTo != nil {
		q = q.Where("price <= ?", *f.PriceTo)
	}
	if f.QuantityFrom != nil {
		q = q.Where("quantity >= ?", *f.QuantityFrom)
	}
	if f.QuantityTo != nil {
		q = q.Where("quantity <= ?", *f.QuantityTo)
	}
	return q
}

// SearchProducts is the database fallback when no search index is configured.
func (r *GormRepo) SearchProducts(ctx context.Context, text string, offset, limit int) (int64, []models.Product, error) {
	pattern := likePattern(text)
	q := r.db(ctx).Model(&models.Product{}).
		Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern).
		Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.Product, 0, limit)
	if err := q.Order("name ASC").Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) AllProducts(ctx context.Context) ([]models.Product, error) {
	var items []models.Product
	if err := r.db(ctx).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func likePattern(s string) string {
	return "%" + strings.ToLower(strings.TrimSpace(s)) + "%"
}
