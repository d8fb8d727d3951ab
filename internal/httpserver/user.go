package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/sale/internal/service"
	"github.com/Skotchmaster/sale/internal/transport"
	"github.com/Skotchmaster/sale/pkg/logging"
)

type UserHTTP struct {
	Svc *service.UserService
}

func (h *UserHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.get")

	id, err := parseID(c, l, "id", service.APIUsers)
	if err != nil {
		return err
	}
	res, err := h.Svc.Get(ctx, caller(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (h *UserHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.update")

	id, err := parseID(c, l, "id", service.APIUsers)
	if err != nil {
		return err
	}
	var req transport.UpdateUserRequest
	if err := bind(c, l, service.APIUsers, &req); err != nil {
		return err
	}
	res, err := h.Svc.Update(ctx, caller(c), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (h *UserHTTP) Search(c echo.Context) error {
	criteria := transport.UserCriteria{
		Username: c.QueryParam("username"),
		Email:    c.QueryParam("email"),
		Phone:    c.QueryParam("phone"),
		Role:     c.QueryParam("role"),
	}
	page, size := pageParams(c)
	res, err := h.Svc.Search(c.Request().Context(), caller(c), criteria, page, size)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (h *UserHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.delete")

	id, err := parseID(c, l, "id", service.APIUsers)
	if err != nil {
		return err
	}
	if err := h.Svc.Delete(ctx, caller(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
