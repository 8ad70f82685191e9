package corpus

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"textbook-rag/internal/domain"
)

// Snapshot is the persisted pair of chunk list and parallel vector list,
// used to seed the vector store without re-embedding on every start.
type Snapshot struct {
	Chunks  []domain.Chunk `json:"chunks"`
	Vectors [][]float32    `json:"vectors"`
}

// ErrSnapshotInvalid marks precomputed data that must be regenerated.
var ErrSnapshotInvalid = errors.New("snapshot invalid")

// LoadSnapshot reads a snapshot from disk. A missing file, unparsable
// content, or a length mismatch between the two lists returns
// ErrSnapshotInvalid; callers treat that as "absent" and regenerate.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s not found", ErrSnapshotInvalid, path)
		}
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshotInvalid, err)
	}
	if len(snap.Chunks) != len(snap.Vectors) {
		return nil, fmt.Errorf("%w: %d chunks but %d vectors", ErrSnapshotInvalid, len(snap.Chunks), len(snap.Vectors))
	}
	if len(snap.Chunks) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrSnapshotInvalid)
	}
	return &snap, nil
}

// SaveSnapshot writes the snapshot to disk, creating directories as
// needed.
func SaveSnapshot(path string, snap *Snapshot) error {
	if len(snap.Chunks) != len(snap.Vectors) {
		return fmt.Errorf("refusing to save: %d chunks but %d vectors", len(snap.Chunks), len(snap.Vectors))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
