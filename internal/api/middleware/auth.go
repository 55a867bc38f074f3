package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"

	"sourcing-system/internal/domain"
	"sourcing-system/pkg/logger"
)

const callerContextKey = "caller"

// CallerClaims is the bearer-token payload: the upstream identity provider
// issues {id, role, name} and this service only verifies and consumes it.
type CallerClaims struct {
	ID   string `json:"id"`
	Role string `json:"role"`
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// JWTAuthMiddleware validates the Authorization bearer token and stores the
// parsed CallerContext in the echo context for handlers.
func JWTAuthMiddleware(signingKey string, log logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				log.Warn("Missing authorization header", "path", c.Request().URL.Path)
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Missing authorization header"})
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				log.Warn("Invalid authorization header format")
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid authorization header format"})
			}

			claims, err := parseToken(parts[1], signingKey)
			if err != nil {
				log.Warn("Invalid or expired token", "error", err)
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid or expired token"})
			}

			caller := domain.CallerContext{
				ID:   claims.ID,
				Role: domain.Role(claims.Role),
				Name: claims.Name,
			}
			if caller.ID == "" || !caller.Role.IsValid() {
				log.Warn("Token carries no usable identity", "role", claims.Role)
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid token claims"})
			}

			c.Set(callerContextKey, caller)
			return next(c)
		}
	}
}

// CallerFromEcho returns the identity the auth middleware attached.
func CallerFromEcho(c echo.Context) (domain.CallerContext, bool) {
	caller, ok := c.Get(callerContextKey).(domain.CallerContext)
	return caller, ok
}

func parseToken(tokenString, signingKey string) (*CallerClaims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&CallerClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(signingKey), nil
		},
	)
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*CallerClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}
