package http

import (
	"net/http"
)

// submitRequestBody is the POST /requests payload.
type submitRequestBody struct {
	Description string `json:"description"`
}

// SubmitRequest accepts a free-text request and forwards it to the
// coordinator as a user_request message. Delivery is fire-and-forget, so
// the response is 202 and progress arrives on the output feed and the
// WebSocket hub.
func (g *Gateway) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	body, ok := readJSON[submitRequestBody](w, r, 1<<20)
	if !ok {
		return
	}
	if !requireField(w, body.Description, "description") {
		return
	}

	if !g.submit(body.Description) {
		writeError(w, http.StatusServiceUnavailable, "gateway not attached to the swarm")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// ListRequests returns a snapshot of all tracked pipeline requests.
func (g *Gateway) ListRequests(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, g.coord.Requests())
}

// GetRequest returns one pipeline request by ID.
func (g *Gateway) GetRequest(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	req, ok := g.coord.Request(id)
	if !ok {
		writeError(w, http.StatusNotFound, "request not found")
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// GetArchivedRequest returns the archived summary of a completed request.
func (g *Gateway) GetArchivedRequest(w http.ResponseWriter, r *http.Request) {
	if g.archive == nil {
		writeError(w, http.StatusNotFound, "archive not configured")
		return
	}

	id := urlParam(r, "id")
	data, ok, err := g.archive.Get(r.Context(), "request:"+id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "archive read failed")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "no archived summary")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// ListTasks returns a snapshot of all coordinator tasks in creation order.
func (g *Gateway) ListTasks(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, g.coord.Tasks())
}

// ListOutputs returns the collected user_output feed.
func (g *Gateway) ListOutputs(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, g.outputFeed())
}

// Healthz reports liveness.
func (g *Gateway) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
