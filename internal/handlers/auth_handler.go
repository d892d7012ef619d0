package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gomoldova-backend/internal/middleware"
	"gomoldova-backend/internal/services"
)

type signInRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func SignUp(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req services.SignUpInput
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}

		user, token, err := auth.SignUp(c.Request.Context(), req)
		if err != nil {
			RespondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"token": token,
			"user":  user.Response(),
		})
	}
}

func SignIn(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req signInRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}

		user, token, err := auth.SignIn(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			RespondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"token": token,
			"user":  user.Response(),
		})
	}
}

func SignOut(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := auth.SignOut(c.Request.Context(), middleware.ClaimsFrom(c)); err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Выход выполнен"})
	}
}
