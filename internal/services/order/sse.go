package order

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"restaurant-pos/internal/models"
)

// StreamEvents handles GET /events?branch_id=N&role=kitchen|cashier. It joins
// the caller to its (branch, role) group on the hub and streams lifecycle
// events as server-sent events until the client disconnects. Membership is
// torn down with the connection; missed events are recovered by re-fetching
// GET /orders, never redelivered.
func (h *Handler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)

	branchID, err := strconv.Atoi(r.URL.Query().Get("branch_id"))
	if err != nil || branchID <= 0 {
		h.writeError(w, fmt.Errorf("%w: invalid branch_id", models.ErrValidation), requestID)
		return
	}
	role := models.Role(r.URL.Query().Get("role"))
	if !models.ValidRole(role) {
		h.writeError(w, fmt.Errorf("%w: role must be kitchen or cashier", models.ErrValidation), requestID)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.writeError(w, fmt.Errorf("streaming unsupported"), requestID)
		return
	}

	sub, leave := h.hub.Subscribe(branchID, role)
	defer leave()

	h.logger.Info("subscriber_joined",
		fmt.Sprintf("Subscriber joined branch %d %s group", branchID, role),
		requestID, nil)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			h.logger.Info("subscriber_left",
				fmt.Sprintf("Subscriber left branch %d %s group", branchID, role),
				requestID, nil)
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case event, ok := <-sub.C:
			if !ok {
				return
			}
			body, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("event_encoding_failed", "Failed to encode event", requestID, err, nil)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Name, body)
			flusher.Flush()
		}
	}
}
