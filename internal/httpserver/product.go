package httpserver

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/sale/internal/apperr"
	"github.com/Skotchmaster/sale/internal/service"
	"github.com/Skotchmaster/sale/internal/transport"
	"github.com/Skotchmaster/sale/pkg/logging"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ProductHTTP struct {
	Svc *service.ProductService
}

func (h *ProductHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.list")

	criteria, err := productCriteria(c, l)
	if err != nil {
		return err
	}
	page, size := pageParams(c)
	res, err := h.Svc.List(ctx, criteria, page, size)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (h *ProductHTTP) Search(c echo.Context) error {
	page, size := pageParams(c)
	res, err := h.Svc.Search(c.Request().Context(), c.QueryParam("q"), page, size)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (h *ProductHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get")

	id, err := parseID(c, l, "id", service.APIProducts)
	if err != nil {
		return err
	}
	res, err := h.Svc.Get(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (h *ProductHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create")

	var req transport.CreateProductRequest
	if err := bind(c, l, service.APIProducts, &req); err != nil {
		return err
	}
	res, err := h.Svc.Create(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *ProductHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.update")

	id, err := parseID(c, l, "id", service.APIProducts)
	if err != nil {
		return err
	}
	var req transport.PatchProductRequest
	if err := bind(c, l, service.APIProducts, &req); err != nil {
		return err
	}
	res, err := h.Svc.Update(ctx, id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (h *ProductHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete")

	id, err := parseID(c, l, "id", service.APIProducts)
	if err != nil {
		return err
	}
	if err := h.Svc.Delete(ctx, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Export streams the catalog as a spreadsheet attachment.
func (h *ProductHTTP) Export(c echo.Context) error {
	var buf bytes.Buffer
	if err := h.Svc.Export(c.Request().Context(), &buf); err != nil {
		return err
	}
	name := fmt.Sprintf("products-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

func productCriteria(c echo.Context, l *slog.Logger) (transport.ProductCriteria, error) {
	criteria := transport.ProductCriteria{
		Name:        c.QueryParam("name"),
		Description: c.QueryParam("description"),
		Category:    c.QueryParam("category"),
	}

	var err error
	if criteria.PriceFrom, err = decimalParam(c, l, "priceFrom"); err != nil {
		return criteria, err
	}
	if criteria.PriceTo, err = decimalParam(c, l, "priceTo"); err != nil {
		return criteria, err
	}
	if criteria.QuantityFrom, err = intParam(c, l, "quantityFrom"); err != nil {
		return criteria, err
	}
	if criteria.QuantityTo, err = intParam(c, l, "quantityTo"); err != nil {
		return criteria, err
	}
	return criteria, nil
}

func decimalParam(c echo.Context, l *slog.Logger, name string) (*decimal.Decimal, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		l.Warn("parse_query_error", "status", 400, "param", name, "value", raw, "error", err)
		return nil, apperr.Validation(service.APIProducts, "Invalid %s: %s", name, raw)
	}
	return &d, nil
}

func intParam(c echo.Context, l *slog.Logger, name string) (*int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		l.Warn("parse_query_error", "status", 400, "param", name, "value", raw, "error", err)
		return nil, apperr.Validation(service.APIProducts, "Invalid %s: %s", name, raw)
	}
	return &n, nil
}
