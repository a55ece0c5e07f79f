package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/labdesk/labdesk_backend/config"
)

var defaultOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
}

// GlobalCORS allows the origins listed in CORS_ALLOWED_ORIGINS, or the local
// dev servers when it is unset
func GlobalCORS() echo.MiddlewareFunc {
	return echoMiddleware.CORSWithConfig(echoMiddleware.CORSConfig{
		AllowOrigins: config.GetEnvList("CORS_ALLOWED_ORIGINS", defaultOrigins),
		AllowMethods: []string{
			http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPatch,
			http.MethodPost, http.MethodDelete, http.MethodOptions,
		},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		AllowCredentials: true,
		ExposeHeaders:    []string{"Content-Length", "Content-Type", "Content-Disposition"},
		MaxAge:           86400,
	})
}
