package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Eursukkul/studio-booking/internal/dto"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// NewErrorHandler renders every error as {"message": ...}. Validation failures
// become 422 with a per-field map; 5xx causes are logged, not returned.
func NewErrorHandler(log *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		resp := dto.ErrorResponse{Message: http.StatusText(code)}

		var ve validator.ValidationErrors
		var he *echo.HTTPError
		switch {
		case errors.As(err, &ve):
			code = http.StatusUnprocessableEntity
			resp.Message = "validation failed"
			resp.Errors = make(map[string]string, len(ve))
			for _, fe := range ve {
				resp.Errors[fe.Field()] = fe.Tag()
			}
		case errors.As(err, &he):
			code = he.Code
			if m, ok := he.Message.(string); ok {
				resp.Message = m
			} else {
				resp.Message = http.StatusText(code)
			}
			if he.Internal != nil && code >= http.StatusInternalServerError {
				err = he.Internal
			}
		}

		if code >= http.StatusInternalServerError && log != nil {
			log.Error("request failed", "method", c.Request().Method, "path", c.Path(), "err", err)
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, resp)
	}
}
