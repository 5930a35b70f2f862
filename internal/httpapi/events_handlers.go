package httpapi

import (
	"fmt"
	"net/http"

	"sponsorscout-engine/internal/events"
)

type EventsHandler struct {
	Hub *events.Hub
}

// ServeSSE streams engine events to the client until it disconnects.
func (h EventsHandler) ServeSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, r, http.StatusInternalServerError, "no_streaming", "streaming unsupported")
		return
	}

	ch := h.Hub.Subscribe()
	defer h.Hub.Unsubscribe(ch)

	// initial ping so the client knows the stream is live
	reqID := RequestIDFrom(r.Context())
	fmt.Fprintf(w, "event: ping\ndata: %s\n\n", events.MakeEvent(reqID, events.TypePing, 1, nil))
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg := <-ch:
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
