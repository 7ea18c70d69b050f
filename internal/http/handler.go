package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"field-service/internal/analytics"
	"field-service/internal/capture"
	"field-service/internal/report"
	"field-service/internal/service"
)

type Handler struct {
	fieldService       *service.FieldService
	operationService   *service.OperationService
	cropHistoryService *service.CropHistoryService
	analyticsService   *service.AnalyticsService
	captureService     *service.CaptureService
	pdfOptions         report.PDFOptions
	log                zerolog.Logger
}

func NewHandler(
	fieldService *service.FieldService,
	operationService *service.OperationService,
	cropHistoryService *service.CropHistoryService,
	analyticsService *service.AnalyticsService,
	captureService *service.CaptureService,
	pdfOptions report.PDFOptions,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		fieldService:       fieldService,
		operationService:   operationService,
		cropHistoryService: cropHistoryService,
		analyticsService:   analyticsService,
		captureService:     captureService,
		pdfOptions:         pdfOptions,
		log:                log,
	}
}

func (h *Handler) Register(r *gin.Engine) {
	fields := r.Group("/fields")
	{
		fields.GET("", h.listFields)
		fields.POST("", h.createField)
		fields.GET("/summary", h.fieldsSummary)
		fields.GET("/:id", h.getField)
		fields.PATCH("/:id", h.updateField)
		fields.GET("/:id/geojson", h.fieldGeoJSON)
		fields.GET("/:id/analytics", h.fieldAnalytics)
		fields.GET("/:id/report.xlsx", h.fieldReportXLSX)
		fields.GET("/:id/report.pdf", h.fieldReportPDF)
	}

	r.GET("/field-operations", h.listOperations)
	r.POST("/field-operations", h.createOperation)
	r.GET("/crop-history", h.listCropHistory)

	// Калькуляторы агронома
	calculators := r.Group("/calculators")
	{
		calculators.POST("/seeding", h.calculateSeeding)
		calculators.POST("/fertilizer", h.calculateFertilizer)
		calculators.POST("/profitability", h.calculateProfitability)
		calculators.POST("/spraying", h.calculateSpraying)
	}

	sessions := r.Group("/capture-sessions")
	{
		sessions.POST("", h.openCaptureSession)
		sessions.GET("/:id", h.getCaptureSession)
		sessions.DELETE("/:id", h.closeCaptureSession)
		// Ручное редактирование контура
		sessions.POST("/:id/shape", h.createShape)
		sessions.PUT("/:id/shape", h.editShape)
		sessions.DELETE("/:id/shape", h.deleteShape)
		// Запись контура по GPS
		sessions.POST("/:id/tracking", h.startTracking)
		sessions.DELETE("/:id/tracking", h.stopTracking)
		sessions.POST("/:id/positions", h.pushPosition)
		sessions.GET("/:id/stream", h.streamPositions)
		sessions.POST("/:id/locate", h.locate)
		sessions.DELETE("/:id/error", h.dismissError)
		sessions.POST("/:id/submit", h.submitCapture)
	}
}

func (h *Handler) handleError(c *gin.Context, err error) {
	var validationErr *capture.ValidationError
	var locationErr *capture.LocationError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error(), "field": validationErr.Field})
	case errors.As(err, &locationErr):
		c.JSON(http.StatusUnprocessableEntity, errorResponse(locationErr.Message))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, analytics.ErrNotComputable):
		c.JSON(http.StatusUnprocessableEntity, errorResponse(err.Error()))
	case errors.Is(err, service.ErrConflict),
		errors.Is(err, capture.ErrSessionClosed),
		errors.Is(err, capture.ErrInvalidTransition),
		errors.Is(err, capture.ErrTrackingActive),
		errors.Is(err, capture.ErrSubmitInProgress):
		c.JSON(http.StatusConflict, errorResponse(err.Error()))
	case errors.Is(err, service.ErrUnavailable):
		h.log.Warn().Err(err).Msg("store unavailable")
		c.JSON(http.StatusServiceUnavailable, errorResponse("store unavailable"))
	default:
		h.log.Error().Err(err).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func successResponse(data interface{}) gin.H {
	return gin.H{
		"data": data,
	}
}

func errorResponse(message string) gin.H {
	return gin.H{
		"error": message,
	}
}

func parseUint(raw string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}

// pathID reads the numeric :id parameter and answers 400 on failure.
func pathID(c *gin.Context) (uint, bool) {
	id, err := parseUint(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid id"))
		return 0, false
	}
	return id, true
}

// queryFieldID reads the required fieldId query parameter.
func queryFieldID(c *gin.Context) (uint, bool) {
	raw := c.Query("fieldId")
	if raw == "" {
		c.JSON(http.StatusBadRequest, errorResponse("fieldId is required"))
		return 0, false
	}
	id, err := parseUint(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid fieldId"))
		return 0, false
	}
	return id, true
}
