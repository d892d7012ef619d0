package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"gomoldova-backend/internal/models"
	"gomoldova-backend/internal/utils"
)

// RevocationChecker проверяет, не отозван ли токен при выходе из системы
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// JWTAuth проверяет токен из заголовка Authorization. Для WebSocket токен
// можно передать в параметре token, браузер не умеет ставить заголовки на upgrade
func JWTAuth(tokens *utils.TokenManager, revoked RevocationChecker, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Отсутствует токен авторизации"})
			return
		}

		claims, err := tokens.ValidateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Недействительный токен"})
			return
		}

		if revoked != nil && claims.ID != "" {
			isRevoked, err := revoked.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				log.WithError(err).Warn("Не удалось проверить отзыв токена")
			} else if isRevoked {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": utils.ErrTokenRevoked.Error()})
				return
			}
		}

		if claims.Role == models.RoleAdmin && claims.UserID == 0 {
			c.Set("user_id", uint(0))
			c.Set("role", models.RoleAdmin)
			c.Set("claims", claims)
			c.Next()
			return
		}

		if claims.UserID == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Недействительный ID пользователя"})
			return
		}

		role := claims.Role
		if role == "" {
			role = models.RoleUser
		}
		c.Set("user_id", claims.UserID)
		c.Set("role", role)
		c.Set("claims", claims)
		c.Next()
	}
}

// AdminOnly пропускает только администраторов. Ставится после JWTAuth
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("role") != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Доступ только для администратора"})
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			return "", false
		}
		return strings.TrimSpace(parts[1]), true
	}
	if token := c.Query("token"); token != "" {
		return token, true
	}
	return "", false
}

// ClaimsFrom достает claims, сохраненные JWTAuth
func ClaimsFrom(c *gin.Context) *utils.Claims {
	v, ok := c.Get("claims")
	if !ok {
		return nil
	}
	claims, _ := v.(*utils.Claims)
	return claims
}
