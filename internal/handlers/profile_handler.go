package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"gomoldova-backend/internal/models"
	"gomoldova-backend/internal/services"
	"gomoldova-backend/internal/storage"
)

type fcmTokenRequest struct {
	Token string `json:"token"`
}

func GetProfile(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		// У администратора нет записи в users
		if c.GetString("role") == models.RoleAdmin && c.GetUint("user_id") == 0 {
			c.JSON(http.StatusOK, models.UserResponse{
				FirstName: "Admin",
				Role:      models.RoleAdmin,
				CreatedAt: time.Now(),
			})
			return
		}

		user, err := auth.Profile(c.Request.Context(), c.GetUint("user_id"))
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, user.Response())
	}
}

func UpdateProfile(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req services.ProfileUpdate
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}

		user, err := auth.UpdateProfile(c.Request.Context(), c.GetUint("user_id"), req)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, user.Response())
	}
}

func UpdateFCMToken(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req fcmTokenRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}

		if err := auth.UpdateFCMToken(c.Request.Context(), c.GetUint("user_id"), req.Token); err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "FCM токен обновлен"})
	}
}

func UploadAvatar(auth *services.AuthService, store storage.Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		url, ok := saveImage(c, store, "avatars")
		if !ok {
			return
		}

		user, err := auth.UpdateAvatar(c.Request.Context(), c.GetUint("user_id"), url)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, user.Response())
	}
}
