package service

import (
	"context"
	"strings"

	"github.com/Skotchmaster/sale/internal/apperr"
	"github.com/Skotchmaster/sale/internal/events"
	"github.com/Skotchmaster/sale/internal/models"
	"github.com/Skotchmaster/sale/internal/repo"
	"github.com/Skotchmaster/sale/internal/transport"
	"github.com/Skotchmaster/sale/internal/util"
)

type CategoryService struct {
	Repo   *repo.GormRepo
	Notify Notifier
}

func (s *CategoryService) Create(ctx context.Context, req transport.CategoryRequest) (*transport.CategoryDto, error) {
	l := logger(ctx, "category.create")
	name := strings.TrimSpace(req.Name)

	if err := validateCategory(APICategory, name, req.Description); err != nil {
		logFailure(l, "create_category_error", err)
		return nil, err
	}

	c := models.Category{Name: name, Description: req.Description}
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		taken, err := tx.CategoryNameTaken(ctx, name, 0)
		if err != nil {
			return err
		}
		if taken {
			return apperr.Conflict(APICategory, "Category with name=%s already exists", name)
		}
		return conflictOnDuplicate(tx.CreateCategory(ctx, &c), APICategory, "Category with name=%s already exists", name)
	})
	if err != nil {
		logFailure(l, "create_category_error", err)
		return nil, err
	}

	l.Info("create_category_success", "category_id", c.ID)
	s.Notify.catalog(ctx, l, CatalogEvent{Type: events.CategoryCreated, CategoryID: c.ID, Name: c.Name})
	dto := transport.CategoryFromModel(c)
	return &dto, nil
}

func (s *CategoryService) Get(ctx context.Context, id uint) (*transport.CategoryDto, error) {
	c, err := s.Repo.GetCategory(ctx, id)
	if err != nil {
		return nil, notFound(err, APICategory, "Category with id=%d not found", id)
	}
	dto := transport.CategoryFromModel(*c)
	return &dto, nil
}

func (s *CategoryService) GetByName(ctx context.Context, name string) (*transport.CategoryDto, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation(APICategory, "Category name is required")
	}
	c, err := s.Repo.GetCategoryByName(ctx, name)
	if err != nil {
		return nil, notFound(err, APICategory, "Category with name=%s not found", name)
	}
	dto := transport.CategoryFromModel(*c)
	return &dto, nil
}

func (s *CategoryService) List(ctx context.Context, page, size int) (util.Page[transport.CategoryDto], error) {
	offset, limit := util.Calculate(page, size)
	total, rows, err := s.Repo.ListCategories(ctx, offset, limit)
	if err != nil {
		return util.Page[transport.CategoryDto]{}, err
	}

	out := make([]transport.CategoryDto, 0, len(rows))
	for _, c := range rows {
		out = append(out, transport.CategoryFromModel(c))
	}
	return util.NewPage(out, total, offset, limit), nil
}

func (s *CategoryService) Update(ctx context.Context, id uint, req transport.CategoryRequest) (*transport.CategoryDto, error) {
	l := logger(ctx, "category.update").With("category_id", id)
	name := strings.TrimSpace(req.Name)

	if err := validateCategory(APICategory, name, req.Description); err != nil {
		logFailure(l, "update_category_error", err)
		return nil, err
	}

	var c *models.Category
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		var err error
		c, err = tx.GetCategory(ctx, id)
		if err != nil {
			return notFound(err, APICategory, "Category with id=%d not found", id)
		}

		changed := false
		if c.Name != name {
			taken, err := tx.CategoryNameTaken(ctx, name, id)
			if err != nil {
				return err
			}
			if taken {
				return apperr.Conflict(APICategory, "Category with name=%s already exists", name)
			}
			c.Name = name
			changed = true
		}
		if c.Description != req.Description {
			c.Description = req.Description
			changed = true
		}
		if !changed {
			return nil
		}
		return conflictOnDuplicate(tx.SaveCategory(ctx, c), APICategory, "Category with name=%s already exists", name)
	})
	if err != nil {
		logFailure(l, "update_category_error", err)
		return nil, err
	}

	l.Info("update_category_success")
	s.Notify.catalog(ctx, l, CatalogEvent{Type: events.CategoryUpdated, CategoryID: c.ID, Name: c.Name})
	dto := transport.CategoryFromModel(*c)
	return &dto, nil
}

func (s *CategoryService) Delete(ctx context.Context, id uint) error {
	l := logger(ctx, "category.delete").With("category_id", id)

	var name string
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		c, err := tx.GetCategory(ctx, id)
		if err != nil {
			return notFound(err, APICategory, "Category with id=%d not found", id)
		}
		name = c.Name

		count, err := tx.CountProductsInCategory(ctx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return apperr.Conflict(APICategory, "Category with id=%d has products", id)
		}
		return tx.DeleteCategory(ctx, id)
	})
	if err != nil {
		logFailure(l, "delete_category_error", err)
		return err
	}

	l.Info("delete_category_success")
	s.Notify.catalog(ctx, l, CatalogEvent{Type: events.CategoryDeleted, CategoryID: id, Name: name})
	return nil
}
