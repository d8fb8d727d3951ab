package httpserver

import (
	"log/slog"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/sale/internal/apperr"
	"github.com/Skotchmaster/sale/internal/identity"
	"github.com/Skotchmaster/sale/internal/util"
	authmw "github.com/Skotchmaster/sale/pkg/middleware/auth"
)

// caller is the identity the auth middleware stored for this request.
func caller(c echo.Context) identity.Identity {
	id, _ := authmw.UserID(c)
	return identity.Identity{
		UserID:   id,
		Username: authmw.Username(c),
		Role:     authmw.Role(c),
	}
}

func parseID(c echo.Context, l *slog.Logger, name, api string) (uint, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		l.Warn("parse_id_error", "status", 400, "reason", "id is not a positive integer", "param", name, "value", raw)
		return 0, apperr.Validation(api, "Invalid %s: %s", name, raw)
	}
	return uint(id), nil
}

func bind(c echo.Context, l *slog.Logger, api string, dst any) error {
	if err := c.Bind(dst); err != nil {
		l.Warn("bind_error", "status", 400, "reason", "invalid body", "error", err)
		return apperr.Validation(api, "Invalid request body")
	}
	return nil
}

func pageParams(c echo.Context) (int, int) {
	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	return page, size
}
