// middleware/jwt_middleware.go
package middleware

import (
	"errors"
	"log"
	"os"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// TokenTTL is the lifetime of an access token
const TokenTTL = 24 * time.Hour

// JwtCustomClaims for JWT token
type JwtCustomClaims struct {
	UserID int64  `json:"userId"`
	Phone  string `json:"phone"`
	Role   string `json:"role"`
	jwt.StandardClaims
}

// GetJWTSecret returns the JWT secret from environment variables
func GetJWTSecret() string {
	return os.Getenv("JWT_SECRET")
}

// JWTMiddleware returns a configured JWT middleware. Claims are copied into
// the context under userId, phone and role.
func JWTMiddleware() echo.MiddlewareFunc {
	return jwtMiddleware("header:" + echo.HeaderAuthorization)
}

// WebSocketJWTMiddleware also accepts the token as ?token=, since browsers
// cannot set headers on a WebSocket handshake
func WebSocketJWTMiddleware() echo.MiddlewareFunc {
	return jwtMiddleware("header:" + echo.HeaderAuthorization + ",query:token")
}

func jwtMiddleware(lookup string) echo.MiddlewareFunc {
	secret := GetJWTSecret()
	if secret == "" {
		log.Printf("Warning: JWT_SECRET environment variable is not set")
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				return echo.NewHTTPError(echo.ErrUnauthorized.Code, "JWT configuration error")
			}
		}
	}

	return middleware.JWTWithConfig(middleware.JWTConfig{
		SigningKey:    []byte(secret),
		SigningMethod: middleware.AlgorithmHS256,
		TokenLookup:   lookup,
		Claims:        &JwtCustomClaims{},
		SuccessHandler: func(c echo.Context) {
			user := c.Get("user").(*jwt.Token)
			claims := user.Claims.(*JwtCustomClaims)

			c.Set("userId", claims.UserID)
			c.Set("phone", claims.Phone)
			c.Set("role", claims.Role)
		},
		ErrorHandler: func(err error) error {
			return echo.NewHTTPError(echo.ErrUnauthorized.Code, "Invalid or expired token")
		},
	})
}

// GenerateJWT signs an access token for the user
func GenerateJWT(userID int64, phone, role string) (string, error) {
	secret := GetJWTSecret()
	if secret == "" {
		return "", errors.New("JWT_SECRET environment variable is required")
	}

	now := time.Now()
	claims := &JwtCustomClaims{
		UserID: userID,
		Phone:  phone,
		Role:   role,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: now.Add(TokenTTL).Unix(),
			IssuedAt:  now.Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// GetUserFromToken extracts user information from JWT token
func GetUserFromToken(c echo.Context) *JwtCustomClaims {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return nil
	}
	claims, ok := token.Claims.(*JwtCustomClaims)
	if !ok {
		return nil
	}
	return claims
}

// ExtractUserID returns the authenticated user's ID
func ExtractUserID(c echo.Context) (int64, error) {
	if id, ok := c.Get("userId").(int64); ok && id > 0 {
		return id, nil
	}
	if claims := GetUserFromToken(c); claims != nil && claims.UserID > 0 {
		return claims.UserID, nil
	}
	return 0, errors.New("invalid user ID in token")
}

// ExtractRole returns the authenticated user's role, or "" when unauthenticated
func ExtractRole(c echo.Context) string {
	if role, ok := c.Get("role").(string); ok && role != "" {
		return role
	}
	if claims := GetUserFromToken(c); claims != nil {
		return claims.Role
	}
	return ""
}
