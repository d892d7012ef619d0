package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"gomoldova-backend/internal/booking"
	"gomoldova-backend/internal/domain"
	"gomoldova-backend/internal/services"
)

// RespondError переводит ошибку сервиса в HTTP ответ
func RespondError(c *gin.Context, err error) {
	var (
		dup        booking.DuplicateBookingError
		noSeats    booking.NoSeatsAvailableError
		notFound   domain.NotFoundError
		validation domain.ValidationError
		forbidden  domain.ForbiddenError
		transition domain.InvalidTransitionError
		storageErr *domain.StorageError
	)

	switch {
	case errors.As(err, &dup):
		c.JSON(http.StatusConflict, gin.H{
			"error":           dup.Error(),
			"code":            dup.Code(),
			"existing_status": dup.ExistingStatus,
		})
	case errors.As(err, &noSeats):
		c.JSON(http.StatusConflict, gin.H{
			"error":     noSeats.Error(),
			"code":      noSeats.Code(),
			"available": noSeats.Available,
		})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Error(), "code": "not_found"})
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Error(), "code": "validation", "field": validation.Field})
	case errors.As(err, &forbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": forbidden.Error(), "code": "forbidden"})
	case errors.As(err, &transition):
		c.JSON(http.StatusConflict, gin.H{"error": transition.Error(), "code": "invalid_transition"})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "code": "invalid_credentials"})
	case errors.As(err, &storageErr):
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Сервис временно недоступен", "code": "storage"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Внутренняя ошибка сервера", "code": "internal"})
	}
}

// parseID читает числовой параметр пути. При ошибке ответ уже отправлен
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный ID"})
		return 0, false
	}
	return uint(id), true
}

func actorFrom(c *gin.Context) booking.Actor {
	return booking.Actor{UserID: c.GetUint("user_id"), Role: c.GetString("role")}
}

func queryInt(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil || v < 0 {
		return def
	}
	return v
}
