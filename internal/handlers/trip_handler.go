package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gomoldova-backend/internal/availability"
	"gomoldova-backend/internal/models"
	"gomoldova-backend/internal/services"
)

type tripStatusRequest struct {
	Status models.TripStatus `json:"status" binding:"required"`
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

type searchResponse struct {
	Trips             []models.TripResponse `json:"trips"`
	IsShowingAllTrips bool                  `json:"isShowingAllTrips"`
}

func tripResponse(t models.Trip) models.TripResponse {
	return t.Response(availability.AvailableSeats(t))
}

func tripResponses(trips []models.Trip) []models.TripResponse {
	out := make([]models.TripResponse, 0, len(trips))
	for _, t := range trips {
		out = append(out, tripResponse(t))
	}
	return out
}

func TripCreate(trips *services.TripService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req services.TripInput
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}

		trip, err := trips.Create(c.Request.Context(), actorFrom(c), req)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, tripResponse(trip))
	}
}

func TripGet(trips *services.TripService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}

		trip, err := trips.Get(c.Request.Context(), id)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, tripResponse(trip))
	}
}

func TripListMine(trips *services.TripService) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := trips.ListMine(c.Request.Context(), actorFrom(c))
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, tripResponses(list))
	}
}

func TripUpdate(trips *services.TripService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}

		var req services.TripUpdate
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}

		trip, err := trips.Update(c.Request.Context(), id, actorFrom(c), req)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, tripResponse(trip))
	}
}

func TripUpdateStatus(trips *services.TripService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}

		var req tripStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}

		trip, err := trips.UpdateStatus(c.Request.Context(), id, actorFrom(c), req.Status)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, tripResponse(trip))
	}
}

func TripCancel(trips *services.TripService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}

		var req cancelRequest
		// тело необязательно
		_ = c.ShouldBindJSON(&req)

		trip, err := trips.Cancel(c.Request.Context(), id, actorFrom(c), req.Reason)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, tripResponse(trip))
	}
}

func TripSearch(trips *services.TripService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var f availability.Filters
		if err := c.ShouldBindJSON(&f); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}

		res, err := trips.Search(c.Request.Context(), f)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, searchResponse{
			Trips:             tripResponses(res.Trips),
			IsShowingAllTrips: res.IsShowingAllTrips,
		})
	}
}
