package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"field-service/internal/config"
	"field-service/internal/geo"
	"field-service/internal/model"
	"field-service/internal/repository"
)

// BackendClient talks to an external field backend over REST. Requests are
// never retried; a failed write has to be resubmitted by the user.
type BackendClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewBackendClient(cfg *config.Config) *BackendClient {
	timeout := cfg.Backend.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &BackendClient{
		baseURL: strings.TrimRight(cfg.Backend.URL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Fields, Operations and CropHistory expose the backend through the
// repository contracts the services depend on.
func (c *BackendClient) Fields() *FieldAPI {
	return &FieldAPI{c: c}
}

func (c *BackendClient) Operations() *OperationAPI {
	return &OperationAPI{c: c}
}

func (c *BackendClient) CropHistory() *CropHistoryAPI {
	return &CropHistoryAPI{c: c}
}

type fieldPayload struct {
	Name        string   `json:"name"`
	Area        float64  `json:"area"`
	CurrentCrop string   `json:"currentCrop"`
	Polygon     geo.Ring `json:"polygon"`
	ImageURL    string   `json:"imageUrl,omitempty"`
}

func newFieldPayload(f *model.Field) fieldPayload {
	polygon := f.Polygon
	if polygon == nil {
		polygon = geo.Ring{}
	}
	return fieldPayload{
		Name:        f.Name,
		Area:        f.Area,
		CurrentCrop: f.CurrentCrop,
		Polygon:     polygon,
		ImageURL:    f.ImageURL,
	}
}

type FieldAPI struct {
	c *BackendClient
}

func (a *FieldAPI) List(ctx context.Context) ([]model.Field, error) {
	var fields []model.Field
	if err := a.c.do(ctx, http.MethodGet, "/fields", nil, nil, &fields); err != nil {
		return nil, err
	}
	for i := range fields {
		deriveGeometry(&fields[i])
	}
	return fields, nil
}

func (a *FieldAPI) GetByID(ctx context.Context, id uint) (*model.Field, error) {
	var field model.Field
	if err := a.c.do(ctx, http.MethodGet, fieldPath(id), nil, nil, &field); err != nil {
		return nil, err
	}
	deriveGeometry(&field)
	return &field, nil
}

func (a *FieldAPI) Create(ctx context.Context, field *model.Field) error {
	var created model.Field
	if err := a.c.do(ctx, http.MethodPost, "/fields", nil, newFieldPayload(field), &created); err != nil {
		return err
	}
	field.ID = created.ID
	if created.ImageURL != "" {
		field.ImageURL = created.ImageURL
	}
	return nil
}

func (a *FieldAPI) Update(ctx context.Context, field *model.Field) error {
	return a.c.do(ctx, http.MethodPatch, fieldPath(field.ID), nil, newFieldPayload(field), nil)
}

func fieldPath(id uint) string {
	return "/fields/" + strconv.FormatUint(uint64(id), 10)
}

// deriveGeometry fills the columns this service computes itself.
func deriveGeometry(f *model.Field) {
	if geo.IsComplete(f.Polygon) {
		f.ApplyBoundary(f.Polygon)
	}
}

type operationPayload struct {
	FieldID        uint                  `json:"fieldId"`
	Type           string                `json:"type"`
	Date           string                `json:"date"`
	Notes          string                `json:"notes"`
	Cost           *float64              `json:"cost,omitempty"`
	LinkedPurchase *model.LinkedPurchase `json:"linkedPurchase,omitempty"`
	LinkedService  *model.LinkedService  `json:"linkedService,omitempty"`
}

type OperationAPI struct {
	c *BackendClient
}

func (a *OperationAPI) ListByField(ctx context.Context, fieldID uint) ([]model.FieldOperation, error) {
	query := url.Values{"fieldId": {strconv.FormatUint(uint64(fieldID), 10)}}
	var ops []model.FieldOperation
	if err := a.c.do(ctx, http.MethodGet, "/field-operations", query, nil, &ops); err != nil {
		return nil, err
	}
	return ops, nil
}

func (a *OperationAPI) Create(ctx context.Context, op *model.FieldOperation) error {
	payload := operationPayload{
		FieldID:        op.FieldID,
		Type:           op.Type,
		Date:           op.Day().Format(model.DateLayout),
		Notes:          op.Notes,
		Cost:           op.Cost,
		LinkedPurchase: op.LinkedPurchase,
		LinkedService:  op.LinkedService,
	}
	var created model.FieldOperation
	if err := a.c.do(ctx, http.MethodPost, "/field-operations", nil, payload, &created); err != nil {
		return err
	}
	op.ID = created.ID
	return nil
}

type CropHistoryAPI struct {
	c *BackendClient
}

func (a *CropHistoryAPI) ListByField(ctx context.Context, fieldID uint) ([]model.CropHistory, error) {
	query := url.Values{"fieldId": {strconv.FormatUint(uint64(fieldID), 10)}}
	var history []model.CropHistory
	if err := a.c.do(ctx, http.MethodGet, "/crop-history", query, nil, &history); err != nil {
		return nil, err
	}
	return history, nil
}

func (c *BackendClient) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	// Проверяем, что baseURL настроен
	if c.baseURL == "" {
		return fmt.Errorf("backend URL is not configured")
	}

	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("invalid backend URL: %w", err)
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend request %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return repository.ErrNotFound
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", repository.ErrRejected, errorMessage(respBody))
	case resp.StatusCode == http.StatusConflict:
		return fmt.Errorf("%w: %s", repository.ErrConflict, errorMessage(respBody))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("backend returned status %d: %s", resp.StatusCode, errorMessage(respBody))
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := decode(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// decode accepts both bare payloads and {"data": ...} envelopes.
func decode(body []byte, out interface{}) error {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Data) > 0 {
		return json.Unmarshal(envelope.Data, out)
	}
	return json.Unmarshal(body, out)
}

func errorMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return strings.TrimSpace(string(body))
}
