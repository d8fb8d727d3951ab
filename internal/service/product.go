package service

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/tealeg/xlsx"

	"github.com/Skotchmaster/sale/internal/apperr"
	"github.com/Skotchmaster/sale/internal/events"
	"github.com/Skotchmaster/sale/internal/models"
	"github.com/Skotchmaster/sale/internal/repo"
	"github.com/Skotchmaster/sale/internal/search"
	"github.com/Skotchmaster/sale/internal/transport"
	"github.com/Skotchmaster/sale/internal/util"
)

// ProductIndex is the full-text index kept in sync with the catalog.
type ProductIndex interface {
	Search(ctx context.Context, query string, from, size int) (int64, []uint, error)
	Upsert(ctx context.Context, doc search.ProductDoc) error
	Delete(ctx context.Context, id uint) error
}

type ProductService struct {
	Repo   *repo.GormRepo
	Index  ProductIndex // nil falls back to database search
	Notify Notifier
}

func (s *ProductService) Create(ctx context.Context, req transport.CreateProductRequest) (*transport.ProductDto, error) {
	l := logger(ctx, "product.create")

	if err := s.validateCreate(req); err != nil {
		logFailure(l, "create_product_error", err)
		return nil, err
	}

	p := models.Product{
		CategoryID:  req.CategoryID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       req.Price,
		Quantity:    req.Quantity,
	}
	var category *models.Category
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		var err error
		category, err = tx.GetCategory(ctx, req.CategoryID)
		if err != nil {
			return notFound(err, APIProducts, "Category with id=%d not found", req.CategoryID)
		}
		return tx.CreateProduct(ctx, &p)
	})
	if err != nil {
		logFailure(l, "create_product_error", err)
		return nil, err
	}

	l.Info("create_product_success", "product_id", p.ID)
	s.index(ctx, l, p, category.Name)
	s.Notify.catalog(ctx, l, CatalogEvent{Type: events.ProductCreated, ProductID: p.ID, Name: p.Name})
	dto := transport.ProductFromModel(p, category.Name)
	return &dto, nil
}

func (s *ProductService) validateCreate(req transport.CreateProductRequest) error {
	if err := validateProductName(APIProducts, req.Name); err != nil {
		return err
	}
	if err := validateProductDescription(APIProducts, req.Description); err != nil {
		return err
	}
	if err := validatePrice(APIProducts, req.Price); err != nil {
		return err
	}
	if req.CategoryID == 0 {
		return apperr.Validation(APIProducts, "Category id is required")
	}
	return validateQuantity(APIProducts, req.Quantity)
}

func (s *ProductService) Get(ctx context.Context, id uint) (*transport.ProductDto, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, notFound(err, APIProducts, "Product with id=%d not found", id)
	}
	names, err := s.categoryNames(ctx, []models.Product{*p})
	if err != nil {
		return nil, err
	}
	dto := transport.ProductFromModel(*p, names[p.CategoryID])
	return &dto, nil
}

// Update writes only the fields that are present and differ from the stored product.
func (s *ProductService) Update(ctx context.Context, id uint, req transport.PatchProductRequest) (*transport.ProductDto, error) {
	l := logger(ctx, "product.update").With("product_id", id)

	if err := validatePatch(req); err != nil {
		logFailure(l, "update_product_error", err)
		return nil, err
	}

	var (
		p            *models.Product
		categoryName string
	)
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		var err error
		p, err = tx.GetProduct(ctx, id)
		if err != nil {
			return notFound(err, APIProducts, "Product with id=%d not found", id)
		}

		changed := false
		if req.CategoryID != nil && *req.CategoryID != p.CategoryID {
			p.CategoryID = *req.CategoryID
			changed = true
		}
		category, err := tx.GetCategory(ctx, p.CategoryID)
		if err != nil {
			return notFound(err, APIProducts, "Category with id=%d not found", p.CategoryID)
		}
		categoryName = category.Name

		if req.Name != nil && strings.TrimSpace(*req.Name) != p.Name {
			p.Name = strings.TrimSpace(*req.Name)
			changed = true
		}
		if req.Description != nil && *req.Description != p.Description {
			p.Description = *req.Description
			changed = true
		}
		if req.Price != nil && !req.Price.Equal(p.Price) {
			p.Price = *req.Price
			changed = true
		}
		if req.Quantity != nil && *req.Quantity != p.Quantity {
			p.Quantity = *req.Quantity
			changed = true
		}
		if !changed {
			return nil
		}
		return tx.SaveProduct(ctx, p)
	})
	if err != nil {
		logFailure(l, "update_product_error", err)
		return nil, err
	}

	l.Info("update_product_success")
	s.index(ctx, l, *p, categoryName)
	s.Notify.catalog(ctx, l, CatalogEvent{Type: events.ProductUpdated, ProductID: p.ID, Name: p.Name})
	dto := transport.ProductFromModel(*p, categoryName)
	return &dto, nil
}

func validatePatch(req transport.PatchProductRequest) error {
	if req.Name != nil {
		if err := validateProductName(APIProducts, *req.Name); err != nil {
			return err
		}
	}
	if req.Description != nil {
		if err := validateProductDescription(APIProducts, *req.Description); err != nil {
			return err
		}
	}
	if req.Price != nil {
		if err := validatePrice(APIProducts, *req.Price); err != nil {
			return err
		}
	}
	if req.Quantity != nil && *req.Quantity < 0 {
		return apperr.Validation(APIProducts, "Quantity must be greater than or equal to 0")
	}
	return nil
}

func (s *ProductService) Delete(ctx context.Context, id uint) error {
	l := logger(ctx, "product.delete").With("product_id", id)

	var name string
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		p, err := tx.GetProduct(ctx, id)
		if err != nil {
			return notFound(err, APIProducts, "Product with id=%d not found", id)
		}
		name = p.Name

		used, err := tx.ProductReferenced(ctx, id)
		if err != nil {
			return err
		}
		if used {
			return apperr.Conflict(APIProducts, "Product with id=%d is referenced by orders", id)
		}
		return tx.DeleteProduct(ctx, id)
	})
	if err != nil {
		logFailure(l, "delete_product_error", err)
		return err
	}

	l.Info("delete_product_success")
	if s.Index != nil {
		if err := s.Index.Delete(ctx, id); err != nil {
			l.Warn("unindex_product_failed", "error", err)
		}
	}
	s.Notify.catalog(ctx, l, CatalogEvent{Type: events.ProductDeleted, ProductID: id, Name: name})
	return nil
}

func (s *ProductService) List(ctx context.Context, c transport.ProductCriteria, page, size int) (util.Page[transport.ProductDto], error) {
	if err := validateCriteria(c); err != nil {
		return util.Page[transport.ProductDto]{}, err
	}

	offset, limit := util.Calculate(page, size)
	total, rows, err := s.Repo.FilterProducts(ctx, repo.ProductFilter{
		Name:         c.Name,
		Description:  c.Description,
		CategoryName: c.Category,
		PriceFrom:    c.PriceFrom,
		PriceTo:      c.PriceTo,
		QuantityFrom: c.QuantityFrom,
		QuantityTo:   c.QuantityTo,
	}, offset, limit)
	if err != nil {
		return util.Page[transport.ProductDto]{}, err
	}

	out, err := s.toDtos(ctx, rows)
	if err != nil {
		return util.Page[transport.ProductDto]{}, err
	}
	return util.NewPage(out, total, offset, limit), nil
}

// Search ranks by the full-text index when one is configured.
func (s *ProductService) Search(ctx context.Context, query string, page, size int) (util.Page[transport.ProductDto], error) {
	l := logger(ctx, "product.search")

	query = strings.TrimSpace(query)
	if query == "" {
		return util.Page[transport.ProductDto]{}, apperr.Validation(APIProducts, "Search query is required")
	}

	offset, limit := util.Calculate(page, size)
	var (
		total int64
		rows  []models.Product
		err   error
	)
	if s.Index != nil {
		total, rows, err = s.searchIndex(ctx, query, offset, limit)
		if err != nil {
			l.Warn("index_search_failed", "error", err)
		}
	}
	if s.Index == nil || err != nil {
		total, rows, err = s.Repo.SearchProducts(ctx, query, offset, limit)
		if err != nil {
			return util.Page[transport.ProductDto]{}, err
		}
	}

	out, err := s.toDtos(ctx, rows)
	if err != nil {
		return util.Page[transport.ProductDto]{}, err
	}
	return util.NewPage(out, total, offset, limit), nil
}

func (s *ProductService) searchIndex(ctx context.Context, query string, offset, limit int) (int64, []models.Product, error) {
	total, ids, err := s.Index.Search(ctx, query, offset, limit)
	if err != nil {
		return 0, nil, err
	}
	found, err := s.Repo.ProductsByIDs(ctx, ids, false)
	if err != nil {
		return 0, nil, err
	}

	byID := make(map[uint]models.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	// keep index rank; ids deleted since indexing are skipped
	rows := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			rows = append(rows, p)
		}
	}
	return total, rows, nil
}

var exportHeader = []string{"ID", "Name", "Category", "Description", "Price", "Quantity"}

// Export writes every product as an xlsx workbook.
func (s *ProductService) Export(ctx context.Context, w io.Writer) error {
	l := logger(ctx, "product.export")

	rows, err := s.Repo.AllProducts(ctx)
	if err != nil {
		return err
	}
	names, err := s.categoryNames(ctx, rows)
	if err != nil {
		return err
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	if err != nil {
		return err
	}

	header := sheet.AddRow()
	for _, h := range exportHeader {
		header.AddCell().SetString(h)
	}
	for _, p := range rows {
		row := sheet.AddRow()
		row.AddCell().SetInt(int(p.ID))
		row.AddCell().SetString(p.Name)
		row.AddCell().SetString(names[p.CategoryID])
		row.AddCell().SetString(p.Description)
		row.AddCell().SetString(p.Price.StringFixed(2))
		row.AddCell().SetInt(p.Quantity)
	}

	if err := file.Write(w); err != nil {
		return err
	}
	l.Info("export_products_success", "rows", len(rows))
	return nil
}

func (s *ProductService) toDtos(ctx context.Context, rows []models.Product) ([]transport.ProductDto, error) {
	names, err := s.categoryNames(ctx, rows)
	if err != nil {
		return nil, err
	}
	out := make([]transport.ProductDto, 0, len(rows))
	for _, p := range rows {
		out = append(out, transport.ProductFromModel(p, names[p.CategoryID]))
	}
	return out, nil
}

func (s *ProductService) categoryNames(ctx context.Context, rows []models.Product) (map[uint]string, error) {
	seen := make(map[uint]struct{}, len(rows))
	ids := make([]uint, 0, len(rows))
	for _, p := range rows {
		if _, ok := seen[p.CategoryID]; !ok {
			seen[p.CategoryID] = struct{}{}
			ids = append(ids, p.CategoryID)
		}
	}

	cats, err := s.Repo.CategoriesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[uint]string, len(cats))
	for id, c := range cats {
		names[id] = c.Name
	}
	return names, nil
}

func (s *ProductService) index(ctx context.Context, l *slog.Logger, p models.Product, categoryName string) {
	if s.Index == nil {
		return
	}
	doc := search.ProductDoc{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		CategoryID:   p.CategoryID,
		CategoryName: categoryName,
		Price:        p.Price.StringFixed(2),
		Quantity:     p.Quantity,
	}
	if err := s.Index.Upsert(ctx, doc); err != nil {
		l.Warn("index_product_failed", "product_id", p.ID, "error", err)
	}
}
