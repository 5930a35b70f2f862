package httpapi

import (
	"database/sql"
	"log"
	"net"
	"net/http"
)

type DBHandler struct {
	DB *sql.DB
}

// Checkpoint flushes the WAL into the main database file. Local-only; meant
// to be called before backing up the data directory.
func (h DBHandler) Checkpoint(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "POST only")
		return
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if host != "127.0.0.1" && host != "::1" && host != "localhost" {
		WriteError(w, r, http.StatusForbidden, "forbidden", "local requests only")
		return
	}

	if _, err := h.DB.ExecContext(r.Context(), `PRAGMA wal_checkpoint(TRUNCATE);`); err != nil {
		log.Printf("[db] checkpoint failed: %v", err)
		WriteError(w, r, http.StatusInternalServerError, "db_error", "checkpoint failed")
		return
	}
	writeJSON(w, map[string]any{"ok": true})
}
