package repo

import (
	"context"

	"github.com/Skotchmaster/sale/internal/models"
)

func (r *GormRepo) CreateCategory(ctx context.Context, c *models.Category) error {
	return r.db(ctx).Create(c).Error
}

func (r *GormRepo) SaveCategory(ctx context.Context, c *models.Category) error {
	return r.db(ctx).Save(c).Error
}

func (r *GormRepo) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	var c models.Category
	if err := r.db(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormRepo) GetCategoryByName(ctx context.Context, name string) (*models.Category, error) {
	var c models.Category
	if err := r.db(ctx).Where("name = ?", name).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// CategoryNameTaken ignores the category with excludeID so renames to the same name pass.
func (r *GormRepo) CategoryNameTaken(ctx context.Context, name string, excludeID uint) (bool, error) {
	var count int64
	q := r.db(ctx).Model(&models.Category{}).Where("name = ?", name)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormRepo) ListCategories(ctx context.Context, offset, limit int) (int64, []models.Category, error) {
	var total int64
	if err := r.db(ctx).Model(&models.Category{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.Category, 0, limit)
	if err := r.db(ctx).Order("name ASC").Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) CategoriesByIDs(ctx context.Context, ids []uint) (map[uint]models.Category, error) {
	out := make(map[uint]models.Category, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []models.Category
	if err := r.db(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, c := range rows {
		out[c.ID] = c
	}
	return out, nil
}

func (r *GormRepo) CountProductsInCategory(ctx context.Context, categoryID uint) (int64, error) {
	var count int64
	err := r.db(ctx).Model(&models.Product{}).Where("category_id = ?", categoryID).Count(&count).Error
	return count, err
}

func (r *GormRepo) DeleteCategory(ctx context.Context, id uint) error {
	return deleted(r.db(ctx).Delete(&models.Category{}, id))
}
