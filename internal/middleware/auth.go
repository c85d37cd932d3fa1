package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/oculomed/glauco-api/internal/model"
	"github.com/oculomed/glauco-api/pkg/auth"
)

const (
	ContextUserIDKey    = "user_id"
	ContextUserEmailKey = "user_email"
)

// AuthMiddleware validates Bearer tokens and puts the caller identity on
// the request context. Parsed claims are cached so hot clients don't pay
// the signature check on every request.
type AuthMiddleware struct {
	jwt    auth.JWTService
	claims *cache.Cache
}

func NewAuthMiddleware(jwtService auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{
		jwt:    jwtService,
		claims: cache.New(5*time.Minute, 10*time.Minute),
	}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}
		token := parts[1]

		claims, err := m.cachedClaims(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextUserEmailKey, claims.Email)
		c.Next()
	}
}

func (m *AuthMiddleware) cachedClaims(token string) (*model.TokenClaims, error) {
	if v, ok := m.claims.Get(token); ok {
		return v.(*model.TokenClaims), nil
	}
	claims, err := m.jwt.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	ttl := time.Until(claims.ExpiresAt)
	if ttl > 5*time.Minute {
		ttl = 5 * time.Minute
	}
	if ttl > 0 {
		m.claims.Set(token, claims, ttl)
	}
	return claims, nil
}

// UserID extracts the authenticated user from the gin context.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ContextUserIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
