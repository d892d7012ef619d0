package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gomoldova-backend/internal/services"
)

func NotificationList(notifications *services.NotificationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := notifications.List(c.Request.Context(), c.GetUint("user_id"), queryInt(c, "limit", 50), queryInt(c, "offset", 0))
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

func NotificationUnreadCount(notifications *services.NotificationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		count, err := notifications.UnreadCount(c.Request.Context(), c.GetUint("user_id"))
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"count": count})
	}
}

func NotificationMarkRead(notifications *services.NotificationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}
		if err := notifications.MarkRead(c.Request.Context(), c.GetUint("user_id"), id); err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Уведомление прочитано"})
	}
}

func NotificationMarkAllRead(notifications *services.NotificationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := notifications.MarkAllRead(c.Request.Context(), c.GetUint("user_id"))
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"updated": n})
	}
}
