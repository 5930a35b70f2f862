package scrape

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// snapshotVersion guards against reading a snapshot written by an older
// layout. Bump when Snapshot changes shape.
const snapshotVersion = 1

// Snapshot is the last successfully fetched source document. It is a
// fallback for runs where the live fetch fails, never a source of truth.
type Snapshot struct {
	Version   int       `json:"version"`
	SourceURL string    `json:"source_url"`
	SavedAt   time.Time `json:"saved_at"`
	Body      string    `json:"body"`
}

// SaveSnapshot writes the snapshot atomically (temp file + rename) under a
// file lock so back-to-back scheduled runs can't interleave writes.
func SaveSnapshot(path string, snap Snapshot) error {
	snap.Version = snapshotVersion

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("snapshot lock: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// LoadSnapshot reads a previously saved snapshot, rejecting unknown versions.
func LoadSnapshot(path string) (Snapshot, error) {
	lock := flock.New(path + ".lock")
	if err := lock.RLock(); err != nil {
		return Snapshot{}, fmt.Errorf("snapshot lock: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	b, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, err
	}

	var snap Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("snapshot decode: %w", err)
	}
	if snap.Version != snapshotVersion {
		return Snapshot{}, fmt.Errorf("snapshot version %d not supported", snap.Version)
	}
	return snap, nil
}
