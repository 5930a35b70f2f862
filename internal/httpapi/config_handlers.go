package httpapi

import (
	"encoding/json"
	"log"
	"net/http"
	"sync/atomic"

	"sponsorscout-engine/internal/config"
)

type ConfigHandler struct {
	CfgVal      *atomic.Value
	UserCfgPath string
	LoadCfg     func() (config.Config, error)
}

func (h ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	cfgAny := h.CfgVal.Load()
	if cfgAny == nil {
		WriteError(w, r, http.StatusServiceUnavailable, "no_config", "config not loaded yet")
		return
	}
	writeJSON(w, cfgAny.(config.Config))
}

// Put replaces the whole config. Validation failures return 422 with the
// collected errors; nothing is written in that case.
func (h ConfigHandler) Put(w http.ResponseWriter, r *http.Request) {
	var in config.Config
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_json", err.Error())
		return
	}

	normalized, vr := config.NormalizeAndValidate(in)
	if !vr.OK() {
		writeJSONStatus(w, http.StatusUnprocessableEntity, map[string]any{
			"ok":         false,
			"validation": vr,
		})
		return
	}

	if err := config.SaveAtomic(h.UserCfgPath, normalized); err != nil {
		log.Printf("[config] save failed: %v", err)
		WriteError(w, r, http.StatusInternalServerError, "save_failed", "could not persist config")
		return
	}

	// Re-read through Load so defaults apply exactly as they would on boot.
	cfg, err := h.LoadCfg()
	if err != nil {
		log.Printf("[config] reload after save failed: %v", err)
		WriteError(w, r, http.StatusInternalServerError, "reload_failed", "saved but could not reload config")
		return
	}
	h.CfgVal.Store(cfg)

	writeJSON(w, map[string]any{"ok": true, "config": cfg, "validation": vr})
}

func (h ConfigHandler) Path(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"path": h.UserCfgPath})
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
