package api

import (
	"bytes"
	"encoding/json"
	"fleet-route-optimizer/internal/adapters/repositories"
	"fleet-route-optimizer/internal/adapters/solver"
	"fleet-route-optimizer/internal/adapters/spreadsheet"
	"fleet-route-optimizer/internal/api/dto"
	"fleet-route-optimizer/internal/domain"
	"fleet-route-optimizer/internal/platform/metrics"
	"fleet-route-optimizer/internal/services"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const scenarioADoc = `{
  "cities": [
    {"id": "A", "demand": 100, "lat": 28.61, "long": 77.20},
    {"id": "B", "demand": 50, "lat": 28.70, "long": 77.10}
  ],
  "routes": {"R1": ["A", "B"]},
  "route_truck_options": [{"route_id": "R1", "truck_type": "T20", "capacity": 200, "cost": 1000}]
}`

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	metrics.Register()

	factory, err := solver.NewFactory(solver.Options{Backend: "simplex", NodeLimit: 10000})
	require.NoError(t, err)
	dispatcher := services.NewDispatcher(services.NewEngine(factory), nil, 2, 10*time.Second)

	return NewRouter(Dependencies{
		Optimizer: dispatcher,
		Scenarios: services.NewScenarioService(repositories.NewMemoryScenarioRepository(), dispatcher),
		Parser:    spreadsheet.NewWorkbookReader(),
		Exporter:  spreadsheet.NewWorkbookWriter(),
	})
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestRootAndHealth(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/api/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]string{"message": "Route Optimization API"}, decode[map[string]string](t, rec))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = do(t, h, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPost, "/health", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "GET", rec.Header().Get("Allow"))
}

func TestRequestIDIsEchoed(t *testing.T) {
	h := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestOptimizeEndpoint(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/api/optimize", scenarioADoc)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	res := decode[domain.OptimizationResult](t, rec)
	require.Len(t, res.RoutesSelected, 1)
	assert.Equal(t, 1.0, res.RoutesSelected[0].TrucksUsed)
	assert.Equal(t, 150.0, res.RoutesSelected[0].TotalDelivered)
	assert.Equal(t, 75.0, res.RoutesSelected[0].CapacityUtilization)
	assert.Equal(t, 1000.0, res.TotalCost)
	assert.Equal(t, [2]float64{28.61, 77.20}, res.CityCoordinates["A"])
}

func TestOptimizeEndpointErrors(t *testing.T) {
	h := newTestRouter(t)

	tests := []struct {
		name   string
		method string
		body   string
		want   int
	}{
		{"wrong method", http.MethodGet, "", http.StatusMethodNotAllowed},
		{"malformed json", http.MethodPost, `{"cities": [`, http.StatusBadRequest},
		{"unknown field", http.MethodPost, `{"cities": [], "depot": "X"}`, http.StatusBadRequest},
		{"trailing value", http.MethodPost, `{} {}`, http.StatusBadRequest},
		{"uncovered city", http.MethodPost, `{"cities": [{"id": "A", "demand": 5}], "routes": {}, "route_truck_options": []}`, http.StatusBadRequest},
		{"infeasible", http.MethodPost, strings.Replace(scenarioADoc, `"capacity": 200`, `"capacity": 0`, 1), http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, "/api/optimize", tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			if tt.want != http.StatusMethodNotAllowed {
				assert.NotEmpty(t, decode[dto.ErrorResponse](t, rec).Error)
			}
		})
	}

	rec := do(t, h, http.MethodPost, "/api/optimize", `{"cities": [{"id": "A", "demand": -1}, {"id": "A", "demand": 1}]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, decode[dto.ErrorResponse](t, rec).Details, 3)
}

func TestOptimizeWebsocket(t *testing.T) {
	srv := httptest.NewServer(newTestRouter(t))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/optimize/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(scenarioADoc)))

	var msg dto.StreamMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, dto.StreamAccepted, msg.Type)

	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, dto.StreamResult, msg.Type, msg.Error)
	require.NotNil(t, msg.Payload)
	assert.Equal(t, 1000.0, msg.Payload.TotalCost)
}

func TestOptimizeWebsocketRejectsBadDocument(t *testing.T) {
	srv := httptest.NewServer(newTestRouter(t))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/optimize/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"cities": [{"id": "A", "demand": 5}]}`)))

	var msg dto.StreamMessage
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, dto.StreamAccepted, msg.Type)

	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, dto.StreamError, msg.Type)
	assert.Equal(t, http.StatusBadRequest, msg.Status)
	assert.NotEmpty(t, msg.Details)
}

func TestScenarioEndpoints(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/api/scenarios",
		`{"name": "Baseline", "description": "two cities", "input_data": `+scenarioADoc+`}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[dto.ScenarioResponse](t, rec)
	assert.Nil(t, created.OptimizationResults)

	rec = do(t, h, http.MethodPost, "/api/scenarios", `{"description": "no name"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/scenarios/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Baseline", decode[dto.ScenarioResponse](t, rec).Name)

	rec = do(t, h, http.MethodPut, "/api/scenarios/"+created.ID, `{"description": "updated"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode[dto.ScenarioResponse](t, rec)
	assert.Equal(t, "Baseline", updated.Name)
	assert.Equal(t, "updated", updated.Description)

	rec = do(t, h, http.MethodPost, "/api/scenarios/"+created.ID+"/optimize", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	optimized := decode[dto.ScenarioResponse](t, rec)
	require.NotNil(t, optimized.OptimizationResults)
	assert.Equal(t, 1000.0, optimized.OptimizationResults.TotalCost)

	rec = do(t, h, http.MethodPost, "/api/scenarios/"+created.ID+"/duplicate", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	dup := decode[dto.ScenarioResponse](t, rec)
	assert.Equal(t, "Copy of Baseline", dup.Name)

	rec = do(t, h, http.MethodPost, "/api/scenarios/"+created.ID+"/duplicate?new_name=Alt", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Alt", decode[dto.ScenarioResponse](t, rec).Name)

	rec = do(t, h, http.MethodGet, "/api/scenarios", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]dto.ScenarioResponse](t, rec), 3)

	rec = do(t, h, http.MethodPost, "/api/scenarios/compare", `["`+created.ID+`", "`+dup.ID+`"]`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cmp := decode[dto.CompareResponse](t, rec)
	require.Len(t, cmp.ComparisonMetrics, 2)
	assert.Equal(t, "Baseline", cmp.ComparisonMetrics[0].ScenarioName)
	assert.Equal(t, 1000.0, cmp.ComparisonMetrics[0].TotalCost)
	assert.Equal(t, 1000.0, cmp.ComparisonMetrics[1].TotalCost)

	rec = do(t, h, http.MethodPost, "/api/scenarios/compare", `["`+created.ID+`"]`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodDelete, "/api/scenarios/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/scenarios/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPatch, "/api/scenarios/"+dup.ID, "{}")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func multipartUpload(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload-excel", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func inputWorkbook(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheets := []struct {
		name string
		rows [][]any
	}{
		{spreadsheet.SheetCities, [][]any{{"city", "demand", "lat", "long"}, {"A", 100, 28.61, 77.20}, {"B", 50, 28.70, 77.10}}},
		{spreadsheet.SheetRouteCity, [][]any{{"route", "city"}, {"R1", "A"}, {"R1", "B"}}},
		{spreadsheet.SheetRouteTruck, [][]any{{"route", "truck_type", "capacity", "cost"}, {"R1", "T20", 200, 1000}}},
	}
	for i, s := range sheets {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", s.name))
		} else {
			_, err := f.NewSheet(s.name)
			require.NoError(t, err)
		}
		for r, row := range s.rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(s.name, cell, &row))
		}
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestUploadExcel(t *testing.T) {
	h := newTestRouter(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, multipartUpload(t, "routes.xlsx", inputWorkbook(t)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	res := decode[dto.UploadResponse](t, rec)
	assert.True(t, res.Success)
	assert.Equal(t, dto.UploadSummary{CitiesCount: 2, RoutesCount: 1, TruckTypes: []string{"T20"}}, res.Data)
	assert.Len(t, res.FileData.Cities, 2)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, multipartUpload(t, "routes.csv", []byte("city,demand\n")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, multipartUpload(t, "broken.xlsx", []byte("not a workbook")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportResults(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/api/optimize", scenarioADoc)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/export-results", rec.Body.String())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "optimization_results.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{spreadsheet.SheetSummary, spreadsheet.SheetRoutes, spreadsheet.SheetDeliveries}, f.GetSheetList())

	rows, err := f.GetRows(spreadsheet.SheetDeliveries)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestRouter(t)
	do(t, h, http.MethodGet, "/health", "")

	rec := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `http_requests_total{method="GET",path="/health",status="200"}`)
}
