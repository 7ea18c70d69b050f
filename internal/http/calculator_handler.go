package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"field-service/internal/analytics"
)

func (h *Handler) calculateSeeding(c *gin.Context) {
	var req struct {
		Density            float64 `json:"density"`
		ThousandSeedWeight float64 `json:"thousandSeedWeight"`
		Germination        float64 `json:"germination"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	rate, err := analytics.SeedingRate(req.Density, req.ThousandSeedWeight, req.Germination)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"rate": rate}))
}

func (h *Handler) calculateFertilizer(c *gin.Context) {
	var req struct {
		PlannedYield float64             `json:"plannedYield"`
		Area         float64             `json:"area"`
		Removal      analytics.Nutrients `json:"removal"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	need, err := analytics.FertilizerRequirement(req.PlannedYield, req.Area, req.Removal)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(need))
}

func (h *Handler) calculateProfitability(c *gin.Context) {
	var req struct {
		Revenue float64   `json:"revenue"`
		Costs   []float64 `json:"costs"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	result, err := analytics.Profitability(req.Revenue, req.Costs...)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(result))
}

func (h *Handler) calculateSpraying(c *gin.Context) {
	var req struct {
		Nozzle   int     `json:"nozzle"`
		Speed    float64 `json:"speed"`
		Pressure float64 `json:"pressure"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	rate, err := analytics.SprayRate(req.Nozzle, req.Speed, req.Pressure)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{
		"rate":   rate,
		"nozzle": analytics.Nozzles[req.Nozzle],
	}))
}
