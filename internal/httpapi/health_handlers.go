package httpapi

import (
	"net/http"
	"time"
)

type HealthHandler struct{}

func (HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"ok":   true,
		"time": time.Now().UTC().Format(time.RFC3339),
	})
}
