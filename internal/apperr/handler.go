package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/sale/pkg/logging"
)

// Body is the JSON shape of every error response.
type Body struct {
	API       string    `json:"api"`
	Code      int       `json:"code"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func ToBody(err error, path string) Body {
	var de *Error
	if errors.As(err, &de) {
		return Body{API: de.API, Code: de.Status(), Message: de.Message, Timestamp: de.Timestamp}
	}

	now := time.Now().UTC()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
		return Body{API: path, Code: he.Code, Message: msg, Timestamp: now}
	}

	return Body{API: path, Code: http.StatusInternalServerError, Message: "Internal server error", Timestamp: now}
}

func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	body := ToBody(err, c.Request().URL.Path)
	if body.Code >= http.StatusInternalServerError {
		logging.FromContext(c.Request().Context()).Error("unhandled_error", "status", body.Code, "error", err)
	}

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(body.Code)
	} else {
		werr = c.JSON(body.Code, body)
	}
	if werr != nil {
		logging.FromContext(c.Request().Context()).Error("write_error_response", "error", werr)
	}
}
