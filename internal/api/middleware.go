package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"alcyxob/file-grants/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

// ContextClaimsKey holds the verified token claims in the gin context.
const ContextClaimsKey = "claims"

// GatewayAuthMiddleware stands in for the managed gateway's JWT authorizer
// when the handlers run behind the local server. It verifies an HS256
// bearer token and stores its claims for the event translation.
func GatewayAuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header is missing")
			return
		}

		// Expecting "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
			return
		}

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(jwtSecret), nil
		})
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				abortWithError(c, http.StatusUnauthorized, "Token has expired")
			} else {
				abortWithError(c, http.StatusUnauthorized, fmt.Sprintf("Invalid token: %v", err))
			}
			return
		}
		if !token.Valid {
			abortWithError(c, http.StatusUnauthorized, "Invalid token")
			return
		}

		c.Set(ContextClaimsKey, domain.Claims(claims))
		c.Next()
	}
}

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"message": message})
}

func claimsFromContext(c *gin.Context) domain.Claims {
	raw, exists := c.Get(ContextClaimsKey)
	if !exists {
		return nil
	}
	claims, _ := raw.(domain.Claims)
	return claims
}
