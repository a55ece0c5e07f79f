package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/labdesk/labdesk_backend/models"
	"github.com/labdesk/labdesk_backend/security"
)

// RequireContentType rejects write requests whose body is not JSON, form or
// multipart encoded. Bodyless requests pass.
func RequireContentType() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			switch req.Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch:
			default:
				return next(c)
			}
			if req.ContentLength == 0 {
				return next(c)
			}
			if !security.ValidateContentType(req.Header.Get(echo.HeaderContentType)) {
				return c.JSON(http.StatusUnsupportedMediaType, models.Response{
					Status:  http.StatusUnsupportedMediaType,
					Message: "Unsupported content type",
				})
			}
			return next(c)
		}
	}
}

// ErrorHandler wraps echo's default handler and logs server errors with the
// request headers, minus credentials.
func ErrorHandler(e *echo.Echo) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
		}
		if code >= http.StatusInternalServerError {
			c.Logger().Errorf("%s %s failed: %v headers=%v", c.Request().Method, c.Path(), err, security.SanitizeHeaders(c.Request().Header))
		}
		e.DefaultHTTPErrorHandler(err, c)
	}
}
