package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyreio/cyre-go"
)

func newTestAdminAPI() *adminAPI {
	inst := cyre.New()
	inst.Action(cyre.Config{ID: "greet"})
	inst.On("greet", func(payload any) (any, error) { return "hello " + payload.(string), nil })
	return newAdminAPI(inst)
}

func TestHandleChannelsListsRegisteredChannels(t *testing.T) {
	a := newTestAdminAPI()
	a.inst.Call("greet", "a")

	req := httptest.NewRequest(http.MethodGet, "/api/channels", nil)
	rec := httptest.NewRecorder()
	a.handleChannels(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, "greet", body[0]["id"])
	assert.Equal(t, float64(1), body[0]["execution_count"])
}

func TestHandleCallDispatchesAndReturnsPayload(t *testing.T) {
	a := newTestAdminAPI()

	body, _ := json.Marshal(callRequest{Payload: "world"})
	req := httptest.NewRequest(http.MethodPost, "/api/channels/greet/call", bytes.NewReader(body))
	req.SetPathValue("id", "greet")
	rec := httptest.NewRecorder()
	a.handleCall(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp cyre.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.Equal(t, "hello world", resp.Payload)
}

func TestHandleCallUnregisteredChannelReturnsConflict(t *testing.T) {
	a := newTestAdminAPI()

	req := httptest.NewRequest(http.MethodPost, "/api/channels/missing/call", nil)
	req.SetPathValue("id", "missing")
	rec := httptest.NewRecorder()
	a.handleCall(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandleHealthReportsOperationalSnapshot(t *testing.T) {
	a := newTestAdminAPI()

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	a.handleHealth(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var health cyre.HealthReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.False(t, health.Locked)
	assert.Equal(t, 1, health.RegistrySize)
}

func TestHandleMetricsReportsSystemSnapshot(t *testing.T) {
	a := newTestAdminAPI()
	a.inst.Call("greet", "a")

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	a.handleMetrics(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var report map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, float64(1), report["TotalCalls"])
}
