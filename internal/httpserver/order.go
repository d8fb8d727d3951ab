package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/sale/internal/events"
	"github.com/Skotchmaster/sale/internal/service"
	"github.com/Skotchmaster/sale/internal/transport"
	"github.com/Skotchmaster/sale/pkg/logging"
)

type OrderHTTP struct {
	Svc *service.OrderService
	Hub *events.Hub
}

func (h *OrderHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create")

	var req transport.OrderRequest
	if err := bind(c, l, service.APIOrders, &req); err != nil {
		return err
	}
	res, err := h.Svc.Create(ctx, caller(c), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *OrderHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.update")

	id, err := parseID(c, l, "orderId", service.APIOrders)
	if err != nil {
		return err
	}
	var req transport.OrderRequest
	if err := bind(c, l, service.APIOrders, &req); err != nil {
		return err
	}
	res, err := h.Svc.Update(ctx, caller(c), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (h *OrderHTTP) Cancel(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.cancel")

	id, err := parseID(c, l, "orderId", service.APIOrders)
	if err != nil {
		return err
	}
	if err := h.Svc.Cancel(ctx, caller(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *OrderHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.delete")

	id, err := parseID(c, l, "orderId", service.APIOrders)
	if err != nil {
		return err
	}
	if err := h.Svc.Delete(ctx, caller(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *OrderHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get")

	id, err := parseID(c, l, "orderId", service.APIOrders)
	if err != nil {
		return err
	}
	res, err := h.Svc.Get(ctx, caller(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (h *OrderHTTP) List(c echo.Context) error {
	page, size := pageParams(c)
	res, err := h.Svc.List(c.Request().Context(), caller(c), page, size)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// Feed streams order events to an admin over a websocket.
func (h *OrderHTTP) Feed(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.feed")

	if h.Hub == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Order feed is disabled")
	}
	l.Info("feed_connect", "user_id", caller(c).UserID)
	if err := h.Hub.Serve(c.Response(), c.Request()); err != nil {
		l.Warn("feed_upgrade_error", "error", err)
		return err
	}
	return nil
}
