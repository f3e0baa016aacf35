package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"benefits-assistant/internal/common/config"
	"benefits-assistant/internal/common/database"
	"benefits-assistant/internal/common/logger"
	"benefits-assistant/internal/common/observability"
	"benefits-assistant/internal/dataset"
	"benefits-assistant/internal/ledger"
	"benefits-assistant/internal/models"
	"benefits-assistant/internal/router"
)

type stringSource struct {
	data string
}

func (s *stringSource) Fetch(ctx context.Context) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(s.data)), nil
}

type stubFallback struct {
	response json.RawMessage
}

func (f *stubFallback) Invoke(ctx context.Context, payload []byte) (json.RawMessage, error) {
	return f.response, nil
}

type stubSummarizer struct{}

func (s *stubSummarizer) Summarize(ctx context.Context, results []models.PlanResult) (string, error) {
	return "summary", nil
}

const benefitsCSV = `Benefit,PlanA,PlanB
Annual Deductible,$500,$750
Specialist Copay,$40,$50
`

var testObs = observability.New("benefits-assistant-test")

func newTestServer(t *testing.T) (*Server, ledger.Store) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := &database.RedisClient{Client: redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})}
	t.Cleanup(func() { client.Close() })

	log := logger.NewTestLogger(t)
	store := ledger.NewRedisLedger(client, log)
	ds := dataset.Load(context.Background(), &stringSource{data: benefitsCSV}, "Benefit", log)
	rt := router.New(ds, store, &stubFallback{response: json.RawMessage(`{"answer":"delegated"}`)}, &stubSummarizer{}, log)

	cfg := &config.Config{}
	cfg.Server.Port = 0

	return New(cfg, rt, store, client, ds, testObs, log), store
}

func postChat(t *testing.T, h http.Handler, sessionID, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader([]byte(body)))
	if sessionID != "" {
		req.Header.Set("Session-Id", sessionID)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestChatLookupEndToEnd(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	rec := postChat(t, h, "s1", `{
		"question": "What is my deductible?",
		"parameters": [
			{"name": "condition", "value": "deductible"},
			{"name": "plan", "value": "PlanA"}
		]
	}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	var resp struct {
		Results []models.PlanResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "$500", resp.Results[0].Data[0].Value)
}

func TestChatSessionFromQueryParam(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	req := httptest.NewRequest(http.MethodPost, "/chat?session_id=s9",
		bytes.NewReader([]byte(`{"question": "hello there"}`)))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestChatMissingSessionIs400(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := postChat(t, srv.Handler(), "", `{"question": "hello"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionHistoryRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	postChat(t, h, "s1", `{"question": "How do I enroll?"}`)

	req := httptest.NewRequest(http.MethodGet, "/sessions/s1/messages", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		SessionID string           `json:"session_id"`
		Messages  []models.Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "s1", resp.SessionID)
	require.Len(t, resp.Messages, 2)
	assert.Equal(t, models.RoleUser, resp.Messages[0].Role)
	assert.Equal(t, "How do I enroll?", resp.Messages[0].Content)
	assert.Equal(t, models.RoleAssistant, resp.Messages[1].Role)
}

func TestSessionHistoryUnknownSessionIsEmptyList(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/sessions/nope/messages", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"session_id":"nope","messages":[]}`, rec.Body.String())
}

func TestDeleteSessionClearsHistory(t *testing.T) {
	srv, store := newTestServer(t)
	h := srv.Handler()

	postChat(t, h, "s1", `{"question": "hello"}`)

	req := httptest.NewRequest(http.MethodDelete, "/sessions/s1", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)

	messages, err := store.History(context.Background(), "s1")
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","dataset_records":2}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPreflightRequest(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}
