package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/sale/internal/apperr"
	"github.com/Skotchmaster/sale/internal/service"
	"github.com/Skotchmaster/sale/internal/transport"
	"github.com/Skotchmaster/sale/pkg/logging"
	"github.com/Skotchmaster/sale/pkg/tokens"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.RegisterRequest
	if err := bind(c, l, service.APIAuth, &req); err != nil {
		return err
	}
	u, err := h.Svc.Register(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, u)
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := bind(c, l, service.APIAuth, &req); err != nil {
		return err
	}
	res, err := h.Svc.Login(ctx, req)
	if err != nil {
		return err
	}
	setAuthCookies(c, res)
	return c.JSON(http.StatusOK, res)
}

// Refresh takes the token from the body, falling back to the refresh cookie.
func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.refresh")

	var req transport.RefreshRequest
	if c.Request().ContentLength > 0 {
		if err := bind(c, l, service.APIAuth, &req); err != nil {
			return err
		}
	}
	if req.RefreshToken == "" {
		if ck, err := c.Cookie(tokens.RefreshCookie); err == nil {
			req.RefreshToken = ck.Value
		}
	}
	if req.RefreshToken == "" {
		l.Warn("refresh_error", "status", 400, "reason", "refresh token missing")
		return apperr.Validation(service.APIAuth, "Refresh token is required")
	}

	res, err := h.Svc.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return err
	}
	setAuthCookies(c, res)
	return c.JSON(http.StatusOK, res)
}

func (h *AuthHTTP) ChangePassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.change_password")

	var req transport.ChangePasswordRequest
	if err := bind(c, l, service.APIAuth, &req); err != nil {
		return err
	}
	if err := h.Svc.ChangePassword(ctx, caller(c), req); err != nil {
		return err
	}
	clearAuthCookies(c)
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	if err := h.Svc.Logout(c.Request().Context(), caller(c)); err != nil {
		return err
	}
	clearAuthCookies(c)
	return c.NoContent(http.StatusNoContent)
}

func setAuthCookies(c echo.Context, res *transport.AuthDto) {
	pair := tokens.Pair{
		Access:     res.AccessToken,
		Refresh:    res.RefreshToken,
		AccessExp:  res.AccessExpiresAt,
		RefreshExp: res.RefreshExpiresAt,
	}
	for _, ck := range pair.Cookies("/") {
		c.SetCookie(ck)
	}
}

func clearAuthCookies(c echo.Context) {
	c.SetCookie(tokens.DeleteCookie(tokens.AccessCookie, "/"))
	c.SetCookie(tokens.DeleteCookie(tokens.RefreshCookie, "/"))
}
