package http

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"field-service/internal/capture"
	"field-service/internal/geo"
)

// locationCodes are the error codes a client reports for its GPS source.
var locationCodes = map[string]error{
	"unavailable":          capture.ErrLocationUnavailable,
	"permission_denied":    capture.ErrPermissionDenied,
	"position_unavailable": capture.ErrPositionUnavailable,
	"timeout":              capture.ErrTimeout,
}

type sessionResponse struct {
	ID      uuid.UUID `json:"id"`
	FieldID *uint     `json:"fieldId,omitempty"`
	capture.Snapshot
	Layer    capture.LayerView `json:"layer"`
	Watching bool              `json:"watching"`
}

func newSessionResponse(session *capture.Session) sessionResponse {
	return sessionResponse{
		ID:       session.ID,
		FieldID:  session.FieldID,
		Snapshot: session.Controller.Snapshot(),
		Layer:    session.Layer.View(),
		Watching: session.Stream.Watching(),
	}
}

type positionRequest struct {
	Lat   *float64 `json:"lat"`
	Lon   *float64 `json:"lon"`
	Error string   `json:"error"`
}

// apply feeds one client report into the session's location stream. A
// device without GPS ("unavailable") also switches the capability off until
// the client reports a position again.
func (p positionRequest) apply(stream *capture.Stream) (bool, error) {
	if code := strings.TrimSpace(p.Error); code != "" {
		reason, ok := locationCodes[code]
		if !ok {
			reason = capture.ErrPositionUnavailable
		}
		delivered := stream.Fail(capture.NewLocationError(reason))
		if reason == capture.ErrLocationUnavailable {
			stream.SetAvailable(false)
		}
		return delivered, nil
	}
	if p.Lat == nil || p.Lon == nil {
		return false, &capture.ValidationError{Field: "position", Reason: capture.ErrInvalidCoordinates}
	}
	point := geo.Point{Lon: *p.Lon, Lat: *p.Lat}
	if !point.Finite() || point.Lat < -90 || point.Lat > 90 || point.Lon < -180 || point.Lon > 180 {
		return false, &capture.ValidationError{Field: "position", Reason: capture.ErrInvalidCoordinates}
	}
	stream.SetAvailable(true)
	return stream.Push(point), nil
}

// session resolves the :id parameter, answering the request itself on
// failure.
func (h *Handler) session(c *gin.Context) (*capture.Session, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid session id"))
		return nil, false
	}
	session, err := h.captureService.Get(id)
	if err != nil {
		h.handleError(c, err)
		return nil, false
	}
	return session, true
}

func (h *Handler) openCaptureSession(c *gin.Context) {
	var req struct {
		FieldID   *uint `json:"fieldId"`
		Available *bool `json:"available"`
	}

	// тело необязательно: без fieldId создаётся новое поле
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	session, err := h.captureService.Open(c.Request.Context(), req.FieldID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if req.Available != nil {
		session.Stream.SetAvailable(*req.Available)
	}

	c.JSON(http.StatusCreated, successResponse(newSessionResponse(session)))
}

func (h *Handler) getCaptureSession(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, successResponse(newSessionResponse(session)))
}

func (h *Handler) closeCaptureSession(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid session id"))
		return
	}

	if err := h.captureService.Close(id); err != nil {
		h.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) createShape(c *gin.Context) {
	h.shapeEvent(c, func(session *capture.Session, points geo.Ring) error {
		return session.Controller.ShapeCreated(points)
	})
}

func (h *Handler) editShape(c *gin.Context) {
	h.shapeEvent(c, func(session *capture.Session, points geo.Ring) error {
		return session.Controller.ShapeEdited(points)
	})
}

func (h *Handler) shapeEvent(c *gin.Context, apply func(*capture.Session, geo.Ring) error) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req struct {
		Points geo.Ring `json:"points"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	if err := apply(session, req.Points); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(newSessionResponse(session)))
}

func (h *Handler) deleteShape(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	if err := session.Controller.ShapeDeleted(); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(newSessionResponse(session)))
}

func (h *Handler) startTracking(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	if err := session.Controller.StartTracking(c.Request.Context()); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(newSessionResponse(session)))
}

func (h *Handler) stopTracking(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	committed, err := session.Controller.StopTracking()
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{
		"committed": committed,
		"session":   newSessionResponse(session),
	}))
}

func (h *Handler) pushPosition(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req positionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	delivered, err := req.apply(session.Stream)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, successResponse(gin.H{"delivered": delivered}))
}

func (h *Handler) locate(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	point, err := session.Controller.Locate(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"position": point}))
}

func (h *Handler) dismissError(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	session.Controller.DismissError()
	c.JSON(http.StatusOK, successResponse(newSessionResponse(session)))
}

func (h *Handler) submitCapture(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req struct {
		Name        string `json:"name"`
		CurrentCrop string `json:"currentCrop"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	field, err := session.Controller.Submit(c.Request.Context(), req.Name, req.CurrentCrop)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(field))
}
