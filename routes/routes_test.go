package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartflow-dq/smartflow/models"
	"github.com/smartflow-dq/smartflow/utils"
	"github.com/smartflow-dq/smartflow/websocket"
)

type fakeProcessor struct {
	lastText string
	result   *models.PipelineResult
}

func (f *fakeProcessor) Process(ctx context.Context, rawText string) *models.PipelineResult {
	f.lastText = rawText
	return f.result
}

type fakeTransactions struct {
	records []models.TransactionRecord
	err     error
}

func (f *fakeTransactions) FetchRecent(ctx context.Context, limit int) ([]models.TransactionRecord, error) {
	return f.records, f.err
}

func newTestRouter(pipe *fakeProcessor, transactions *fakeTransactions) *mux.Router {
	logger := utils.NewNopLogger()
	router := mux.NewRouter()
	SetupRoutes(router, pipe, transactions, websocket.NewManager(logger), "http://localhost:8501", logger)
	return router
}

func doRequest(router *mux.Router, method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(&fakeProcessor{}, &fakeTransactions{})

	rec := doRequest(router, http.MethodGet, "/", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "online", body["status"])
	assert.Equal(t, "SmartFlow v1.5", body["system"])
}

func TestProcessEndpoint(t *testing.T) {
	data := &models.TransactionData{ItemID: 1, ClientID: 1, Quantity: 2, TotalPrice: 1999.98}
	pipe := &fakeProcessor{result: models.SuccessResult("req-1", data, models.PipelineLogs{})}
	router := newTestRouter(pipe, &fakeTransactions{})

	rec := doRequest(router, http.MethodPost, "/process/", `{"text": "  Sold 2 iPhone 15s to Client A  "}`)

	require.Equal(t, http.StatusOK, rec.Code)
	// Текст уходит в конвейер без обрезки пробелов
	assert.Equal(t, "  Sold 2 iPhone 15s to Client A  ", pipe.lastText)

	var envelope models.PipelineResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, models.StatusSuccess, envelope.Status)
	assert.Equal(t, "req-1", envelope.RequestID)
	require.NotNil(t, envelope.Data)
	assert.Equal(t, 2, envelope.Data.Quantity)
}

func TestProcessEndpointRejectsBlankInput(t *testing.T) {
	pipe := &fakeProcessor{}
	router := newTestRouter(pipe, &fakeTransactions{})

	for name, body := range map[string]string{
		"empty text":     `{"text": ""}`,
		"whitespace":     `{"text": "   "}`,
		"missing field":  `{}`,
		"malformed json": `{"text": `,
	} {
		t.Run(name, func(t *testing.T) {
			rec := doRequest(router, http.MethodPost, "/process/", body)

			require.Equal(t, http.StatusBadRequest, rec.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "Input text cannot be empty.", resp.Detail)
			assert.Empty(t, pipe.lastText, "конвейер не должен вызываться")
		})
	}
}

func TestTransactionsEndpoint(t *testing.T) {
	transactions := &fakeTransactions{records: []models.TransactionRecord{
		{TransactionID: 2, ItemName: "iPhone 15", ClientName: "Client A", Quantity: 2, TotalPrice: 1999.98},
		{TransactionID: 1, ItemName: "Dell XPS", ClientName: "TechCorp", Quantity: 1, TotalPrice: 1200},
	}}
	router := newTestRouter(&fakeProcessor{}, transactions)

	rec := doRequest(router, http.MethodGet, "/transactions/", "")

	require.Equal(t, http.StatusOK, rec.Code)

	var records []models.TransactionRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 2)
	assert.Equal(t, "iPhone 15", records[0].ItemName)
}

// При недоступной базе дашборд получает пустой список, а не 500
func TestTransactionsEndpointDatabaseDown(t *testing.T) {
	transactions := &fakeTransactions{err: errors.New("соединение разорвано")}
	router := newTestRouter(&fakeProcessor{}, transactions)

	rec := doRequest(router, http.MethodGet, "/transactions/", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestCORSHeaders(t *testing.T) {
	router := newTestRouter(&fakeProcessor{}, &fakeTransactions{})

	rec := doRequest(router, http.MethodOptions, "/process/", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:8501", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type", rec.Header().Get("Access-Control-Allow-Headers"))
}
