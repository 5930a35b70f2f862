package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"sponsorscout-engine/internal/secrets"
)

type SecretsHandler struct{}

// SetWebhookURL stores (or clears) the notification webhook in the OS
// keychain. The URL never touches config.yml or the database.
func (SecretsHandler) SetWebhookURL(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_json", err.Error())
		return
	}

	url := strings.TrimSpace(body.URL)
	if url == "" {
		if err := secrets.DeleteWebhookURL(); err != nil {
			WriteError(w, r, http.StatusInternalServerError, "keyring_error", err.Error())
			return
		}
		writeJSON(w, map[string]any{"ok": true, "cleared": true})
		return
	}

	if !strings.HasPrefix(url, "https://") {
		WriteError(w, r, http.StatusBadRequest, "bad_url", "webhook URL must be https")
		return
	}

	if err := secrets.SetWebhookURL(url); err != nil {
		WriteError(w, r, http.StatusInternalServerError, "keyring_error", err.Error())
		return
	}
	writeJSON(w, map[string]any{"ok": true})
}
