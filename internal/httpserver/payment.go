package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/sale/internal/models"
	"github.com/Skotchmaster/sale/internal/service"
	"github.com/Skotchmaster/sale/internal/transport"
	"github.com/Skotchmaster/sale/pkg/logging"
)

type PaymentHTTP struct {
	Svc *service.PaymentService
}

func (h *PaymentHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.create")

	orderID, err := parseID(c, l, "orderId", service.APIPayments)
	if err != nil {
		return err
	}
	var method *models.PaymentMethod
	if raw := c.QueryParam("paymentMethod"); raw != "" {
		m := models.PaymentMethod(raw)
		method = &m
	}

	res, created, err := h.Svc.Create(ctx, caller(c), orderID, method)
	if err != nil {
		return err
	}
	if created {
		return c.JSON(http.StatusCreated, res)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *PaymentHTTP) Pay(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.pay")

	orderID, err := parseID(c, l, "orderId", service.APIPayments)
	if err != nil {
		return err
	}
	var req transport.PayRequest
	if err := bind(c, l, service.APIPayments, &req); err != nil {
		return err
	}
	res, err := h.Svc.Pay(ctx, caller(c), orderID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (h *PaymentHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.delete")

	id, err := parseID(c, l, "paymentId", service.APIPayments)
	if err != nil {
		return err
	}
	if err := h.Svc.Delete(ctx, caller(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *PaymentHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.get")

	id, err := parseID(c, l, "paymentId", service.APIPayments)
	if err != nil {
		return err
	}
	res, err := h.Svc.Get(ctx, caller(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (h *PaymentHTTP) GetByOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.by_order")

	orderID, err := parseID(c, l, "orderId", service.APIPayments)
	if err != nil {
		return err
	}
	res, err := h.Svc.GetByOrder(ctx, caller(c), orderID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}
