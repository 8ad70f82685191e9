package corpus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"textbook-rag/internal/domain"
)

func TestSnapshotRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "snapshot.json")
	snap := &Snapshot{
		Chunks: []domain.Chunk{
			{ID: "ch01_chunk_0", SourceID: "ch01", Content: "hello", Index: 0, Metadata: map[string]string{"source": "ch01"}},
		},
		Vectors: [][]float32{{0.1, 0.2, 0.3}},
	}
	require.NoError(t, SaveSnapshot(path, snap))

	loaded, err := LoadSnapshot(path)
	require.NoError(t, err)
	assert.Equal(t, snap.Chunks, loaded.Chunks)
	assert.Equal(t, snap.Vectors, loaded.Vectors)
}

func TestLoadSnapshotMissingFile(t *testing.T) {
	_, err := LoadSnapshot(filepath.Join(t.TempDir(), "absent.json"))
	assert.ErrorIs(t, err, ErrSnapshotInvalid)
}

func TestLoadSnapshotMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{truncated"), 0o644))
	_, err := LoadSnapshot(path)
	assert.ErrorIs(t, err, ErrSnapshotInvalid)
}

func TestLoadSnapshotLengthMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mismatch.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"chunks":[{"id":"a"}],"vectors":[]}`), 0o644))
	_, err := LoadSnapshot(path)
	assert.ErrorIs(t, err, ErrSnapshotInvalid)
}

func TestLoadSnapshotEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"chunks":[],"vectors":[]}`), 0o644))
	_, err := LoadSnapshot(path)
	assert.ErrorIs(t, err, ErrSnapshotInvalid)
}

func TestSaveSnapshotRefusesMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	err := SaveSnapshot(path, &Snapshot{
		Chunks:  []domain.Chunk{{ID: "a"}},
		Vectors: nil,
	})
	assert.Error(t, err)
	assert.NoFileExists(t, path)
}
