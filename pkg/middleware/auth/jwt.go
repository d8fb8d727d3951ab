// Package middleware authenticates requests with the access token and keeps
// the caller's identity in the echo context.
package middleware

import (
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/sale/pkg/tokens"
)

const (
	UserIDKey   = "user_id"
	UsernameKey = "username"
	RoleKey     = "role"

	tokenKey = "token"
)

const msgUnauthenticated = "Full authentication is required to access this resource"

// JWT verifies the access token from the Authorization header or the access cookie.
func JWT(accessSecret []byte) echo.MiddlewareFunc {
	verify := echojwt.WithConfig(echojwt.Config{
		SigningKey:    accessSecret,
		SigningMethod: jwt.SigningMethodHS256.Alg(),
		ContextKey:    tokenKey,
		TokenLookup:   "header:Authorization:Bearer ,cookie:" + tokens.AccessCookie,
		NewClaimsFunc: func(echo.Context) jwt.Claims { return new(tokens.AccessClaims) },
		SuccessHandler: func(c echo.Context) {
			tkn, ok := c.Get(tokenKey).(*jwt.Token)
			if !ok {
				return
			}
			if claims, ok := tkn.Claims.(*tokens.AccessClaims); ok {
				setIdentity(c, claims)
			}
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, msgUnauthenticated).SetInternal(err)
		},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return verify(func(c echo.Context) error {
			if _, ok := UserID(c); !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, msgUnauthenticated)
			}
			return next(c)
		})
	}
}

func setIdentity(c echo.Context, claims *tokens.AccessClaims) {
	id, err := claims.UserID()
	if err != nil {
		return
	}
	c.Set(UserIDKey, id)
	c.Set(UsernameKey, claims.Username)
	c.Set(RoleKey, claims.Role)
}

// RequireRole rejects callers whose token does not carry role.
func RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := UserID(c); !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, msgUnauthenticated)
			}
			if Role(c) != role {
				return echo.NewHTTPError(http.StatusForbidden, "Access is denied")
			}
			return next(c)
		}
	}
}

func UserID(c echo.Context) (uint, bool) {
	id, ok := c.Get(UserIDKey).(uint)
	return id, ok && id != 0
}

func Username(c echo.Context) string {
	s, _ := c.Get(UsernameKey).(string)
	return s
}

func Role(c echo.Context) string {
	s, _ := c.Get(RoleKey).(string)
	return s
}
