package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gomoldova-backend/internal/booking"
	"gomoldova-backend/internal/models"
)

type bookingRequest struct {
	TripID uint `json:"trip_id" binding:"required"`
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func bookingResponse(b models.Booking) models.BookingResponse {
	resp := b.Response()
	if b.Trip != nil {
		trip := tripResponse(*b.Trip)
		resp.Trip = &trip
	}
	return resp
}

func bookingResponses(list []models.Booking) []models.BookingResponse {
	out := make([]models.BookingResponse, 0, len(list))
	for _, b := range list {
		out = append(out, bookingResponse(b))
	}
	return out
}

func BookingCreate(guard *booking.Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req bookingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}

		b, err := guard.RequestBooking(c.Request.Context(), req.TripID, actorFrom(c))
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, b.Response())
	}
}

func BookingListMine(guard *booking.Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := guard.ListMine(c.Request.Context(), actorFrom(c))
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, bookingResponses(list))
	}
}

func BookingListByTrip(guard *booking.Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		tripID, ok := parseID(c, "id")
		if !ok {
			return
		}

		list, err := guard.ListForTrip(c.Request.Context(), tripID, actorFrom(c))
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, bookingResponses(list))
	}
}

func BookingAccept(guard *booking.Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}

		b, err := guard.Decide(c.Request.Context(), id, models.BookingStatusAccepted, "", actorFrom(c))
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, b.Response())
	}
}

func BookingReject(guard *booking.Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}

		var req rejectRequest
		_ = c.ShouldBindJSON(&req)

		b, err := guard.Decide(c.Request.Context(), id, models.BookingStatusRejected, req.Reason, actorFrom(c))
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, b.Response())
	}
}

func BookingCancel(guard *booking.Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}

		b, err := guard.Cancel(c.Request.Context(), id, actorFrom(c))
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, b.Response())
	}
}
