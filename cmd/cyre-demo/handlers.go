package main

import (
	"encoding/json"
	"net/http"

	"github.com/cyreio/cyre-go"
)

// adminAPI exposes a minimal admin surface over a cyre.Instance:
// listing channels, inspecting metrics, and issuing calls. It mirrors
// the JSON envelope style of the main service's handlers (a plain
// struct marshaled straight to the response body, errors as a
// {"error": "..."} object with the matching HTTP status).
type adminAPI struct {
	inst *cyre.Instance
}

func newAdminAPI(inst *cyre.Instance) *adminAPI {
	return &adminAPI{inst: inst}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// handleChannels lists every registered channel id (GET) alongside its
// execution report.
func (a *adminAPI) handleChannels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	ids := a.inst.IDs()
	type channelView struct {
		ID             string `json:"id"`
		ExecutionCount int64  `json:"execution_count"`
		Errors         int64  `json:"errors"`
		AvgDurationMS  int64  `json:"avg_duration_ms"`
	}
	out := make([]channelView, 0, len(ids))
	for _, id := range ids {
		report, ok := a.inst.ChannelMetrics(id)
		if !ok {
			continue
		}
		out = append(out, channelView{
			ID:             id,
			ExecutionCount: report.ExecutionCount,
			Errors:         report.Errors,
			AvgDurationMS:  report.AvgDuration.Milliseconds(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleMetrics reports the process-wide snapshot (not to be confused
// with the Prometheus /metrics endpoint mounted separately).
func (a *adminAPI) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, a.inst.Metrics())
}

// callRequest is the admin call endpoint's request body.
type callRequest struct {
	Payload any `json:"payload"`
}

// handleCall dispatches POST /api/channels/{id}/call against the
// instance and reflects back the resulting Response.
func (a *adminAPI) handleCall(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var body callRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	}
	resp := a.inst.Call(id, body.Payload)
	status := http.StatusOK
	if !resp.OK {
		status = http.StatusConflict
	}
	writeJSON(w, status, resp)
}

// handleHealth reports the instance's operational snapshot, for
// dashboards that want more than the liveness probe's flat "ok".
func (a *adminAPI) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.inst.Health())
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
