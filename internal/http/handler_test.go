package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"field-service/internal/capture"
	"field-service/internal/config"
	"field-service/internal/db"
	"field-service/internal/geo"
	"field-service/internal/model"
	"field-service/internal/report"
	"field-service/internal/repository"
	"field-service/internal/service"
)

const squareBody = `[[38.970,45.030],[38.980,45.030],[38.980,45.040],[38.970,45.040]]`

type testServer struct {
	router   *gin.Engine
	registry *capture.Registry
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{DB: config.DBConfig{Driver: config.DriverSQLite, DSN: "file::memory:", MaxOpenConns: 1}}
	database, err := db.New(cfg, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, db.Migrate(database, config.DriverSQLite))
	t.Cleanup(func() {
		if sqlDB, err := database.DB(); err == nil {
			sqlDB.Close()
		}
	})

	log := zerolog.Nop()
	fields := service.NewFieldService(repository.NewFieldRepository(database), service.NewCache(0), "https://example.org/tile.png", log)
	operations := service.NewOperationService(repository.NewOperationRepository(database), fields)
	history := service.NewCropHistoryService(repository.NewCropHistoryRepository(database))
	registry := capture.NewRegistry(time.Hour, log)
	t.Cleanup(registry.Close)

	handler := NewHandler(
		fields,
		operations,
		history,
		service.NewAnalyticsService(fields, operations),
		service.NewCaptureService(registry, fields, log),
		report.PDFOptions{},
		log,
	)
	return &testServer{router: NewRouter(handler, nil, "test"), registry: registry}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var envelope struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope), rec.Body.String())
	return envelope.Data
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope), rec.Body.String())
	return envelope.Error
}

func (s *testServer) createField(t *testing.T, name string) model.Field {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/fields",
		fmt.Sprintf(`{"name":%q,"currentCrop":"Пшеница","area":999,"polygon":%s}`, name, squareBody))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeData[model.Field](t, rec)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestFields_CreateGetList(t *testing.T) {
	s := newTestServer(t)

	field := s.createField(t, "У реки")
	assert.NotZero(t, field.ID)
	assert.Greater(t, field.Area, 80.0)
	assert.Less(t, field.Area, 90.0)
	assert.Len(t, field.Polygon, 4)
	assert.Equal(t, "https://example.org/tile.png", field.ImageURL)

	rec := s.do(t, http.MethodGet, fmt.Sprintf("/fields/%d", field.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeData[model.Field](t, rec)
	assert.Equal(t, "У реки", got.Name)
	assert.Equal(t, field.Area, got.Area)

	rec = s.do(t, http.MethodGet, "/fields", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeData[[]model.Field](t, rec), 1)
}

func TestFields_Errors(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/fields", `{"name":"Клин","currentCrop":"Рожь","polygon":[[1,2],[3,4]]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/fields", `{"name":"","currentCrop":"Рожь","polygon":`+squareBody+`}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/fields", `{"name":"Клин","currentCrop":"Рожь","polygon":[[1]]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/fields/42", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, decodeError(t, rec))

	rec = s.do(t, http.MethodGet, "/fields/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFields_Update(t *testing.T) {
	s := newTestServer(t)
	field := s.createField(t, "Старое")

	rec := s.do(t, http.MethodPatch, fmt.Sprintf("/fields/%d", field.ID), `{"name":"Новое"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeData[model.Field](t, rec)
	assert.Equal(t, "Новое", updated.Name)
	assert.Equal(t, "Пшеница", updated.CurrentCrop)
	assert.Equal(t, field.Area, updated.Area)

	rec = s.do(t, http.MethodPatch, "/fields/999", `{"name":"Новое"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFields_SummaryAndGeoJSON(t *testing.T) {
	s := newTestServer(t)
	field := s.createField(t, "Первое")

	rec := s.do(t, http.MethodGet, "/fields/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decodeData[map[string]interface{}](t, rec)
	assert.Equal(t, float64(1), summary["totalFields"])

	rec = s.do(t, http.MethodGet, fmt.Sprintf("/fields/%d/geojson", field.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))

	var feature map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &feature))
	assert.Equal(t, "Feature", feature["type"])
	geometry := feature["geometry"].(map[string]interface{})
	assert.Equal(t, "Polygon", geometry["type"])
}

func TestOperationsAndAnalytics(t *testing.T) {
	s := newTestServer(t)
	field := s.createField(t, "Южное")

	rec := s.do(t, http.MethodPost, "/field-operations",
		fmt.Sprintf(`{"fieldId":%d,"type":"Посев","date":"2024-04-20","cost":12000}`, field.ID))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/field-operations",
		fmt.Sprintf(`{"fieldId":%d,"type":"Внесение удобрений","date":"2024-05-02","cost":8000}`, field.ID))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/field-operations", fmt.Sprintf(`{"fieldId":%d,"type":"Посев"}`, field.ID))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, fmt.Sprintf("/field-operations?fieldId=%d", field.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	ops := decodeData[[]model.FieldOperation](t, rec)
	require.Len(t, ops, 2)
	assert.Equal(t, "Внесение удобрений", ops[0].Type)

	rec = s.do(t, http.MethodGet, "/field-operations", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/field-operations?fieldId=999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, fmt.Sprintf("/fields/%d/analytics?plannedYield=40&plannedPrice=15000", field.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	result := decodeData[service.FieldAnalytics](t, rec)
	assert.Equal(t, 20000.0, result.Costs.TotalCost)
	assert.Len(t, result.Costs.Buckets, 2)
	assert.True(t, result.Projection.Computable)

	rec = s.do(t, http.MethodGet, fmt.Sprintf("/fields/%d/analytics?plannedYield=abc", field.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeData[service.FieldAnalytics](t, rec).Projection.Computable)
}

func TestCropHistory(t *testing.T) {
	s := newTestServer(t)
	field := s.createField(t, "Восточное")

	rec := s.do(t, http.MethodGet, fmt.Sprintf("/crop-history?fieldId=%d", field.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeData[[]model.CropHistory](t, rec))
}

func TestReports(t *testing.T) {
	s := newTestServer(t)
	field := s.createField(t, "Отчётное")
	s.do(t, http.MethodPost, "/field-operations",
		fmt.Sprintf(`{"fieldId":%d,"type":"Посев","date":"2024-04-20","cost":12000}`, field.ID))

	rec := s.do(t, http.MethodGet, fmt.Sprintf("/fields/%d/report.xlsx", field.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), fmt.Sprintf("field-%d.xlsx", field.ID))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))

	rec = s.do(t, http.MethodGet, fmt.Sprintf("/fields/%d/report.pdf", field.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))

	rec = s.do(t, http.MethodGet, "/fields/999/report.pdf", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCalculators(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/calculators/seeding", `{"density":5,"thousandSeedWeight":40,"germination":95}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 210.5, decodeData[map[string]float64](t, rec)["rate"], 0.05)

	rec = s.do(t, http.MethodPost, "/calculators/seeding", `{"density":5,"thousandSeedWeight":40,"germination":0}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(t, http.MethodPost, "/calculators/profitability", `{"revenue":60000,"costs":[20000,10000]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	profit := decodeData[map[string]float64](t, rec)
	assert.Equal(t, 30000.0, profit["profit"])
	assert.Equal(t, 100.0, profit["profitability"])

	rec = s.do(t, http.MethodPost, "/calculators/fertilizer", `{"plannedYield":50,"area":10,"removal":{"n":30,"p":10,"k":20}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/calculators/spraying", `{"nozzle":2,"speed":8,"pressure":3}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/calculators/spraying", `{"nozzle":99,"speed":8,"pressure":3}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

type sessionView struct {
	ID        string   `json:"id"`
	State     string   `json:"state"`
	Boundary  geo.Ring `json:"boundary"`
	Track     geo.Ring `json:"track"`
	Area      float64  `json:"area"`
	LastError string   `json:"lastError"`
	Watching  bool     `json:"watching"`
}

func (s *testServer) openSession(t *testing.T, body string) sessionView {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/capture-sessions", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeData[sessionView](t, rec)
}

func (s *testServer) session(t *testing.T, id string) sessionView {
	t.Helper()
	rec := s.do(t, http.MethodGet, "/capture-sessions/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decodeData[sessionView](t, rec)
}

// peek reads a session without asserting, for use inside Eventually.
func (s *testServer) peek(id string) sessionView {
	req := httptest.NewRequest(http.MethodGet, "/capture-sessions/"+id, nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	var envelope struct {
		Data sessionView `json:"data"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	return envelope.Data
}

func TestCapture_DrawAndSubmit(t *testing.T) {
	s := newTestServer(t)
	session := s.openSession(t, "")
	assert.Equal(t, "EMPTY", session.State)
	base := "/capture-sessions/" + session.ID

	rec := s.do(t, http.MethodPost, base+"/submit", `{"name":"Новое","currentCrop":"Ячмень"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, base+"/shape", `{"points":`+squareBody+`}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	drafted := decodeData[sessionView](t, rec)
	assert.Equal(t, "DRAFTED", drafted.State)
	assert.Greater(t, drafted.Area, 80.0)

	rec = s.do(t, http.MethodPost, base+"/submit", `{"name":"  ","currentCrop":"Ячмень"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, base+"/submit", `{"name":"Новое","currentCrop":"Ячмень"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	field := decodeData[model.Field](t, rec)
	assert.Equal(t, drafted.Area, field.Area)

	assert.Equal(t, "SUBMITTED", s.session(t, session.ID).State)

	rec = s.do(t, http.MethodPost, base+"/shape", `{"points":`+squareBody+`}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodGet, "/fields", "")
	assert.Len(t, decodeData[[]model.Field](t, rec), 1)
}

func TestCapture_EditExistingField(t *testing.T) {
	s := newTestServer(t)
	field := s.createField(t, "Редактируемое")

	session := s.openSession(t, fmt.Sprintf(`{"fieldId":%d}`, field.ID))
	assert.Equal(t, "DRAFTED", session.State)
	assert.Len(t, session.Boundary, 4)

	base := "/capture-sessions/" + session.ID
	rec := s.do(t, http.MethodPut, base+"/shape",
		`{"points":[[38.970,45.030],[38.990,45.030],[38.990,45.040],[38.970,45.040]]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, base+"/submit", `{"name":"Редактируемое","currentCrop":"Подсолнечник"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	updated := decodeData[model.Field](t, rec)
	assert.Equal(t, field.ID, updated.ID)
	assert.Greater(t, updated.Area, field.Area)

	rec = s.do(t, http.MethodPost, "/capture-sessions", `{"fieldId":999}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCapture_Tracking(t *testing.T) {
	s := newTestServer(t)
	session := s.openSession(t, "")
	base := "/capture-sessions/" + session.ID

	rec := s.do(t, http.MethodDelete, base+"/tracking", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, base+"/tracking", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "TRACKING", decodeData[sessionView](t, rec).State)

	rec = s.do(t, http.MethodPost, base+"/shape", `{"points":`+squareBody+`}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, base+"/submit", `{"name":"Трек","currentCrop":"Овёс"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	for _, p := range [][2]float64{{45.030, 38.970}, {45.030, 38.980}, {45.040, 38.980}, {45.040, 38.970}} {
		rec = s.do(t, http.MethodPost, base+"/positions", fmt.Sprintf(`{"lat":%v,"lon":%v}`, p[0], p[1]))
		require.Equal(t, http.StatusAccepted, rec.Code)
		assert.True(t, decodeData[map[string]bool](t, rec)["delivered"])
	}

	assert.Len(t, s.session(t, session.ID).Track, 4)

	rec = s.do(t, http.MethodPost, base+"/positions", `{"lat":91,"lon":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodDelete, base+"/tracking", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	stopped := decodeData[struct {
		Committed bool        `json:"committed"`
		Session   sessionView `json:"session"`
	}](t, rec)
	assert.True(t, stopped.Committed)
	assert.Equal(t, "DRAFTED", stopped.Session.State)
	assert.Len(t, stopped.Session.Boundary, 4)

	rec = s.do(t, http.MethodPost, base+"/locate", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestCapture_StopRightAfterPositions(t *testing.T) {
	s := newTestServer(t)

	for i := 0; i < 20; i++ {
		session := s.openSession(t, "")
		base := "/capture-sessions/" + session.ID

		rec := s.do(t, http.MethodPost, base+"/tracking", "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		for _, p := range [][2]float64{{45.030, 38.970}, {45.030, 38.980}, {45.040, 38.980}} {
			rec = s.do(t, http.MethodPost, base+"/positions", fmt.Sprintf(`{"lat":%v,"lon":%v}`, p[0], p[1]))
			require.Equal(t, http.StatusAccepted, rec.Code)
		}

		rec = s.do(t, http.MethodDelete, base+"/tracking", "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		stopped := decodeData[struct {
			Committed bool        `json:"committed"`
			Session   sessionView `json:"session"`
		}](t, rec)
		require.True(t, stopped.Committed, "run %d", i)
		assert.Equal(t, "DRAFTED", stopped.Session.State)
		assert.Len(t, stopped.Session.Boundary, 3)
	}
}

func TestCapture_DeviceWithoutGPS(t *testing.T) {
	s := newTestServer(t)
	session := s.openSession(t, "")
	base := "/capture-sessions/" + session.ID

	rec := s.do(t, http.MethodPost, base+"/positions", `{"error":"unavailable"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = s.do(t, http.MethodPost, base+"/tracking", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "Геолокация не поддерживается вашим устройством.", decodeError(t, rec))

	view := s.session(t, session.ID)
	assert.Equal(t, "EMPTY", view.State)
	assert.Equal(t, "Геолокация не поддерживается вашим устройством.", view.LastError)

	rec = s.do(t, http.MethodPost, base+"/positions", `{"lat":45.03,"lon":38.97}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	rec = s.do(t, http.MethodPost, base+"/tracking", "")
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestCapture_OpenWithoutGPS(t *testing.T) {
	s := newTestServer(t)
	session := s.openSession(t, `{"available":false}`)

	rec := s.do(t, http.MethodPost, "/capture-sessions/"+session.ID+"/locate", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "Геолокация не поддерживается вашим устройством.", decodeError(t, rec))
}

func TestCapture_LocationError(t *testing.T) {
	s := newTestServer(t)
	session := s.openSession(t, "")
	base := "/capture-sessions/" + session.ID

	rec := s.do(t, http.MethodPost, base+"/locate", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "Информация о местоположении недоступна.", decodeError(t, rec))

	rec = s.do(t, http.MethodPost, base+"/tracking", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, base+"/positions", `{"error":"permission_denied"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var view sessionView
	assert.Eventually(t, func() bool {
		view = s.peek(session.ID)
		return view.State == "EMPTY"
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, "Вы запретили доступ к геолокации.", view.LastError)

	rec = s.do(t, http.MethodDelete, base+"/error", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeData[sessionView](t, rec).LastError)
}

func TestCapture_CloseSession(t *testing.T) {
	s := newTestServer(t)
	session := s.openSession(t, "")

	rec := s.do(t, http.MethodDelete, "/capture-sessions/"+session.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, s.registry.Len())

	rec = s.do(t, http.MethodGet, "/capture-sessions/"+session.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/capture-sessions/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// frameView is streamFrame as a client decodes it.
type frameView struct {
	Type     string       `json:"type"`
	Snapshot *sessionView `json:"snapshot"`
	Error    string       `json:"error"`
}

func TestCapture_WebsocketStream(t *testing.T) {
	s := newTestServer(t)
	session := s.openSession(t, "")

	server := httptest.NewServer(s.router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/capture-sessions/" + session.ID + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var frame frameView
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&frame))
	require.Equal(t, "snapshot", frame.Type)
	assert.Equal(t, capture.StateEmpty.String(), frame.Snapshot.State)

	rec := s.do(t, http.MethodPost, "/capture-sessions/"+session.ID+"/tracking", "")
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"lat":`)))
	require.NoError(t, conn.WriteJSON(map[string]float64{"lat": 45.03, "lon": 38.97}))
	require.NoError(t, conn.WriteJSON(map[string]interface{}{"lat": nil}))

	var sawTrack bool
	var errorFrames int
	for !(sawTrack && errorFrames == 2) {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var next frameView
		require.NoError(t, conn.ReadJSON(&next), "stream must survive a malformed frame")
		switch next.Type {
		case "snapshot":
			if len(next.Snapshot.Track) == 1 {
				sawTrack = true
			}
		case "error":
			errorFrames++
		}
	}
}
