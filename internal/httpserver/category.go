package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/sale/internal/service"
	"github.com/Skotchmaster/sale/internal/transport"
	"github.com/Skotchmaster/sale/pkg/logging"
)

type CategoryHTTP struct {
	Svc *service.CategoryService
}

func (h *CategoryHTTP) List(c echo.Context) error {
	page, size := pageParams(c)
	res, err := h.Svc.List(c.Request().Context(), page, size)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (h *CategoryHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.get")

	id, err := parseID(c, l, "id", service.APICategory)
	if err != nil {
		return err
	}
	res, err := h.Svc.Get(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (h *CategoryHTTP) GetByName(c echo.Context) error {
	res, err := h.Svc.GetByName(c.Request().Context(), c.QueryParam("name"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (h *CategoryHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.create")

	var req transport.CategoryRequest
	if err := bind(c, l, service.APICategory, &req); err != nil {
		return err
	}
	res, err := h.Svc.Create(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *CategoryHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.update")

	id, err := parseID(c, l, "id", service.APICategory)
	if err != nil {
		return err
	}
	var req transport.CategoryRequest
	if err := bind(c, l, service.APICategory, &req); err != nil {
		return err
	}
	res, err := h.Svc.Update(ctx, id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (h *CategoryHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.delete")

	id, err := parseID(c, l, "id", service.APICategory)
	if err != nil {
		return err
	}
	if err := h.Svc.Delete(ctx, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
