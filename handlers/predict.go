package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sathvikreddy369/sign-language/labels"
	"github.com/sathvikreddy369/sign-language/middleware"
	"github.com/sathvikreddy369/sign-language/models"
	"github.com/sathvikreddy369/sign-language/services"
)

type PredictionHandler struct {
	predictionService services.PredictionService
}

func NewPredictionHandler(predictionService services.PredictionService) *PredictionHandler {
	return &PredictionHandler{predictionService: predictionService}
}

func (h *PredictionHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "healthy",
		"model_loaded": h.predictionService.ModelLoaded(),
	})
}

func (h *PredictionHandler) Labels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "labels": labels.All()})
}

func (h *PredictionHandler) Predict(c *gin.Context) {
	var req models.PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "No image provided"})
		return
	}

	resp, err := h.predictionService.Predict(c.Request.Context(), req.Image, callerID(c), c.ClientIP())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBadImage):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": services.ErrBadImage.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *PredictionHandler) PredictBatch(c *gin.Context) {
	var req models.PredictBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "No images provided"})
		return
	}

	results, err := h.predictionService.PredictBatch(c.Request.Context(), req.Images, callerID(c), c.ClientIP())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "results": results})
}

func (h *PredictionHandler) ListPredictions(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "unauthorized"})
		return
	}

	filters := models.PredictionFilters{
		Start:         c.Query("start"),
		End:           c.Query("end"),
		UserID:        c.Query("user_id"),
		Email:         c.Query("email"),
		Label:         c.Query("label"),
		MinConfidence: c.Query("min_confidence"),
		MaxConfidence: c.Query("max_confidence"),
		Success:       c.Query("success"),
		Page:          c.Query("page"),
		PageSize:      c.Query("page_size"),
	}

	page, err := h.predictionService.List(c.Request.Context(), filters, claims.Role, claims.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"total":     page.Total,
		"page":      page.Page,
		"page_size": page.PageSize,
		"items":     page.Items,
	})
}

func (h *PredictionHandler) Summary(c *gin.Context) {
	stats, err := h.predictionService.Summary(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "stats": stats})
}

// callerID resolves the optional authenticated identity of the request.
func callerID(c *gin.Context) *uint {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		return nil
	}
	id := claims.UserID
	return &id
}
