package middleware

import (
	"context"
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/sale/pkg/logging"
	"github.com/Skotchmaster/sale/pkg/tokens"
)

// Refresher spends a refresh token and issues the next pair.
type Refresher interface {
	Rotate(ctx context.Context, refreshToken string) (tokens.Pair, error)
}

// AutoRefresh renews an expired access cookie from the refresh cookie before JWT runs.
// Requests with a bearer header are left alone.
func AutoRefresh(accessSecret []byte, refresher Refresher) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Header.Get(echo.HeaderAuthorization) != "" {
				return next(c)
			}

			if access, err := c.Cookie(tokens.AccessCookie); err == nil && access.Value != "" {
				_, err := tokens.AccessClaimsFromToken(access.Value, accessSecret)
				if !errors.Is(err, jwt.ErrTokenExpired) {
					return next(c)
				}
			}

			refresh, err := c.Cookie(tokens.RefreshCookie)
			if err != nil || refresh.Value == "" {
				return next(c)
			}

			l := logging.FromContext(req.Context()).With("middleware", "auto_refresh")
			pair, err := refresher.Rotate(req.Context(), refresh.Value)
			if err != nil {
				l.Warn("auto_refresh_failed", "error", err)
				clearAuthCookies(c)
				return next(c)
			}

			for _, ck := range pair.Cookies("/") {
				c.SetCookie(ck)
			}
			req.Header.Set(echo.HeaderAuthorization, "Bearer "+pair.Access)
			l.Info("auto_refresh_success")
			return next(c)
		}
	}
}

func clearAuthCookies(c echo.Context) {
	c.SetCookie(tokens.DeleteCookie(tokens.AccessCookie, "/"))
	c.SetCookie(tokens.DeleteCookie(tokens.RefreshCookie, "/"))
}
