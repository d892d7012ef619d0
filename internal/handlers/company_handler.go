package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gomoldova-backend/internal/models"
	"gomoldova-backend/internal/services"
	"gomoldova-backend/internal/storage"
)

func CompanyRegister(companies *services.CompanyService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req services.CompanyInput
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}

		company, err := companies.Register(c.Request.Context(), c.GetUint("user_id"), req)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, company)
	}
}

func CompanyGetMine(companies *services.CompanyService) gin.HandlerFunc {
	return func(c *gin.Context) {
		company, err := companies.GetByOwner(c.Request.Context(), c.GetUint("user_id"))
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, company)
	}
}

func CompanyUploadLogo(companies *services.CompanyService, store storage.Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		url, ok := saveImage(c, store, "logos")
		if !ok {
			return
		}

		company, err := companies.UpdateLogo(c.Request.Context(), c.GetUint("user_id"), url)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, company)
	}
}

// AdminCompanyList ?status=pending&q=trans&limit=20&offset=0
func AdminCompanyList(companies *services.CompanyService) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, total, err := companies.List(c.Request.Context(), services.CompanyFilter{
			Status: models.CompanyStatus(c.Query("status")),
			Query:  c.Query("q"),
			Limit:  queryInt(c, "limit", 20),
			Offset: queryInt(c, "offset", 0),
		})
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"companies": list, "total": total})
	}
}

func AdminCompanyApprove(companies *services.CompanyService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}

		company, err := companies.Approve(c.Request.Context(), id)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, company)
	}
}

func AdminCompanyReject(companies *services.CompanyService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}

		var req rejectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}

		company, err := companies.Reject(c.Request.Context(), id, req.Reason)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, company)
	}
}
