package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gomoldova-backend/internal/services"
)

type sendMessageRequest struct {
	ReceiverID uint   `json:"receiver_id" binding:"required"`
	Content    string `json:"content" binding:"required"`
}

func MessageSend(messages *services.MessageService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req sendMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}

		msg, err := messages.Send(c.Request.Context(), c.GetUint("user_id"), req.ReceiverID, req.Content)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, msg)
	}
}

func MessageConversations(messages *services.MessageService) gin.HandlerFunc {
	return func(c *gin.Context) {
		convs, err := messages.Conversations(c.Request.Context(), c.GetUint("user_id"))
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, convs)
	}
}

func MessageConversation(messages *services.MessageService) gin.HandlerFunc {
	return func(c *gin.Context) {
		counterpartID, ok := parseID(c, "userId")
		if !ok {
			return
		}

		list, err := messages.Conversation(c.Request.Context(), c.GetUint("user_id"), counterpartID, queryInt(c, "limit", 100))
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

func MessageMarkRead(messages *services.MessageService) gin.HandlerFunc {
	return func(c *gin.Context) {
		counterpartID, ok := parseID(c, "userId")
		if !ok {
			return
		}

		n, err := messages.MarkConversationRead(c.Request.Context(), c.GetUint("user_id"), counterpartID)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"updated": n})
	}
}
