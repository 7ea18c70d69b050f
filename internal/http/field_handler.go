package http

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"field-service/internal/geo"
	"field-service/internal/model"
	"field-service/internal/report"
	"field-service/internal/service"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	pdfContentType  = "application/pdf"
)

func (h *Handler) listFields(c *gin.Context) {
	fields, err := h.fieldService.List(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(fields))
}

func (h *Handler) getField(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	field, err := h.fieldService.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(field))
}

func (h *Handler) fieldsSummary(c *gin.Context) {
	summary, err := h.fieldService.Summary(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(summary))
}

func (h *Handler) createField(c *gin.Context) {
	// area из запроса игнорируется: площадь считается по контуру
	var req struct {
		Name        string   `json:"name"`
		CurrentCrop string   `json:"currentCrop"`
		Polygon     geo.Ring `json:"polygon"`
		ImageURL    string   `json:"imageUrl"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	field, err := h.fieldService.Create(c.Request.Context(), service.CreateFieldInput{
		Name:        req.Name,
		CurrentCrop: req.CurrentCrop,
		Boundary:    req.Polygon,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(field))
}

func (h *Handler) updateField(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req struct {
		Name        *string   `json:"name"`
		CurrentCrop *string   `json:"currentCrop"`
		Polygon     *geo.Ring `json:"polygon"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	field, err := h.fieldService.Update(c.Request.Context(), id, service.UpdateFieldInput{
		Name:        req.Name,
		CurrentCrop: req.CurrentCrop,
		Boundary:    req.Polygon,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(field))
}

func (h *Handler) fieldGeoJSON(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	field, err := h.fieldService.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	body, err := geo.Feature(field.Polygon, map[string]interface{}{
		"id":          field.ID,
		"name":        field.Name,
		"area":        field.Area,
		"currentCrop": field.CurrentCrop,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Data(http.StatusOK, "application/geo+json", body)
}

func (h *Handler) fieldAnalytics(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	result, err := h.analyticsService.ForField(
		c.Request.Context(),
		id,
		c.Query("plannedYield"),
		c.Query("plannedPrice"),
	)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(result))
}

func (h *Handler) fieldReportXLSX(c *gin.Context) {
	h.writeReport(c, "xlsx", xlsxContentType, func(buf *bytes.Buffer, ledger *service.FieldLedger) error {
		return report.WriteLedgerXLSX(buf, ledger.Field, ledger.Operations, ledger.Costs)
	})
}

func (h *Handler) fieldReportPDF(c *gin.Context) {
	h.writeReport(c, "pdf", pdfContentType, func(buf *bytes.Buffer, ledger *service.FieldLedger) error {
		return report.WriteLedgerPDF(buf, ledger.Field, ledger.Operations, ledger.Costs, h.pdfOptions)
	})
}

// writeReport renders into memory first so a failed render still gets a
// JSON error instead of a truncated file.
func (h *Handler) writeReport(c *gin.Context, ext, contentType string, render func(*bytes.Buffer, *service.FieldLedger) error) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	ledger, err := h.analyticsService.Ledger(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := render(&buf, ledger); err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="field-%d.%s"`, id, ext))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func (h *Handler) listOperations(c *gin.Context) {
	fieldID, ok := queryFieldID(c)
	if !ok {
		return
	}

	ops, err := h.operationService.List(c.Request.Context(), fieldID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(ops))
}

func (h *Handler) createOperation(c *gin.Context) {
	var req struct {
		FieldID        uint                  `json:"fieldId" binding:"required"`
		Type           string                `json:"type"`
		Date           string                `json:"date"`
		Notes          string                `json:"notes"`
		Cost           *float64              `json:"cost"`
		LinkedPurchase *model.LinkedPurchase `json:"linkedPurchase"`
		LinkedService  *model.LinkedService  `json:"linkedService"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	op, err := h.operationService.Create(c.Request.Context(), service.CreateOperationInput{
		FieldID:        req.FieldID,
		Type:           req.Type,
		Date:           req.Date,
		Notes:          req.Notes,
		Cost:           req.Cost,
		LinkedPurchase: req.LinkedPurchase,
		LinkedService:  req.LinkedService,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(op))
}

func (h *Handler) listCropHistory(c *gin.Context) {
	fieldID, ok := queryFieldID(c)
	if !ok {
		return
	}

	history, err := h.cropHistoryService.List(c.Request.Context(), fieldID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(history))
}
