package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_UnwrapsToKind(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("wrapped: %w", NotFound("/api/orders", "Order with id=%d not found", 5))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrConflict))

	var de *Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "/api/orders", de.API)
	assert.Equal(t, "Order with id=5 not found", de.Message)
	assert.Equal(t, http.StatusNotFound, de.Status())
}

func TestNew_KeepsPercentWithoutArgs(t *testing.T) {
	t.Parallel()

	e := Validation("/api/products", "discount 10% is invalid")
	assert.Equal(t, "discount 10% is invalid", e.Message)
}

func TestStatusOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind error
		want int
	}{
		{ErrValidation, http.StatusBadRequest},
		{ErrUnauthorized, http.StatusUnauthorized},
		{ErrForbidden, http.StatusForbidden},
		{ErrNotFound, http.StatusNotFound},
		{ErrConflict, http.StatusConflict},
		{errors.New("other"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusOf(tt.kind), tt.kind.Error())
	}
}

func TestHTTPErrorHandler_Shapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     error
		code    int
		api     string
		message string
	}{
		{
			name:    "domain error",
			err:     Conflict("/api/category", "Category with name=Books already exists"),
			code:    http.StatusConflict,
			api:     "/api/category",
			message: "Category with name=Books already exists",
		},
		{
			name:    "echo error",
			err:     echo.NewHTTPError(http.StatusBadRequest, "invalid body"),
			code:    http.StatusBadRequest,
			api:     "/api/things",
			message: "invalid body",
		},
		{
			name:    "unknown error is not leaked",
			err:     errors.New("pq: connection refused"),
			code:    http.StatusInternalServerError,
			api:     "/api/things",
			message: "Internal server error",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/api/things", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			HTTPErrorHandler(tt.err, c)

			require.Equal(t, tt.code, rec.Code)
			var body Body
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code)
			assert.Equal(t, tt.api, body.API)
			assert.Equal(t, tt.message, body.Message)
			assert.False(t, body.Timestamp.IsZero())
		})
	}
}
