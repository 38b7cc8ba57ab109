package handler

import (
	"net/http"
	"strings"

	"rowanberries/internal/app/reviews/util"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware проверяет JWT токен в запросах для Gin
type AuthMiddleware struct {
	jwtManager *util.JWTManager
}

// NewAuthMiddleware создает новый middleware для аутентификации
func NewAuthMiddleware(jwtManager *util.JWTManager) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
	}
}

// Authenticate проверяет JWT токен и добавляет данные участника в контекст Gin
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := m.parseToken(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or missing token"})
			c.Abort()
			return
		}

		c.Set("member_id", claims.MemberID.String())
		c.Set("email", claims.Email)
		c.Set("username", claims.Username)

		c.Next()
	}
}

// OptionalAuthenticate добавляет данные участника, если токен есть и валиден,
// но пропускает запрос и без него. Для публичных чтений, которые
// персонализируются при наличии сессии (например, признак "лайкнуто мной").
func (m *AuthMiddleware) OptionalAuthenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := m.parseToken(c); ok {
			c.Set("member_id", claims.MemberID.String())
			c.Set("email", claims.Email)
			c.Set("username", claims.Username)
		}
		c.Next()
	}
}

func (m *AuthMiddleware) parseToken(c *gin.Context) (*util.JWTClaims, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, false
	}

	// Формат "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, false
	}

	claims, err := m.jwtManager.ValidateToken(parts[1])
	if err != nil {
		return nil, false
	}

	return claims, true
}

// memberIDFromContext достает ID участника, положенный Authenticate
func memberIDFromContext(c *gin.Context) (string, bool) {
	memberID, exists := c.Get("member_id")
	if !exists {
		return "", false
	}
	id, ok := memberID.(string)
	return id, ok
}
