package routes

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/labdesk/labdesk_backend/middleware"
	"github.com/labdesk/labdesk_backend/models"
	"github.com/labdesk/labdesk_backend/utils"
	"github.com/labdesk/labdesk_backend/websocket"
)

// RegisterFileRoutes serves prescription images and thumbnails. Reports are
// not served here; they go through the OTP download.
func RegisterFileRoutes(e *echo.Echo) {
	e.GET("/uploads/prescriptions/*", ServeFile, middleware.JWTMiddleware(), ownPrescriptionsOnly)
}

// ownPrescriptionsOnly lets patients read files under their own
// prescriptions/<userId>/ directory. Staff can read any.
func ownPrescriptionsOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		role := middleware.ExtractRole(c)
		if role == models.RoleAdmin || role == models.RoleEmployee {
			return next(c)
		}
		userID, err := middleware.ExtractUserID(c)
		owner := strings.SplitN(c.Param("*"), "/", 2)[0]
		if err != nil || owner != strconv.FormatInt(userID, 10) {
			return c.JSON(http.StatusForbidden, models.Response{
				Status:  http.StatusForbidden,
				Message: "Access denied",
			})
		}
		return next(c)
	}
}

// ServeFile handles serving uploaded files with proper security checks
func ServeFile(c echo.Context) error {
	fullPath, err := utils.LocalPath(c.Request().URL.Path)
	if err != nil {
		return c.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "Access denied - invalid path",
		})
	}

	info, err := os.Stat(fullPath)
	if err != nil || info.IsDir() {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "File not found",
		})
	}

	c.Response().Header().Set("Cache-Control", "private, max-age=86400")
	c.Response().Header().Set("Expires", time.Now().AddDate(0, 0, 1).Format(time.RFC1123))
	return c.File(fullPath)
}

// RegisterWebSocketRoutes mounts the notification socket. Browsers cannot set
// headers on the upgrade request, so the token may also come as ?token=.
func RegisterWebSocketRoutes(api *echo.Group, hub *websocket.Hub) {
	api.GET("/ws", func(c echo.Context) error {
		userID, err := middleware.ExtractUserID(c)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, models.Response{
				Status:  http.StatusUnauthorized,
				Message: "Unauthorized",
			})
		}
		return websocket.HandleWebSocket(c, hub, userID, middleware.ExtractRole(c))
	}, middleware.WebSocketJWTMiddleware())
}
