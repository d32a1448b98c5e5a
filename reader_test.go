package megaupload

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "source.bin")
	require.NoError(t, os.WriteFile(path, content, 0o600))
	return path
}

func TestFileReaderReadsExactRange(t *testing.T) {
	content := make([]byte, 1000)
	for i := range content {
		content[i] = byte(i)
	}
	path := writeTempFile(t, content)

	r := newFileReader(path, 4)
	got, err := r.ReadChunk(context.Background(), ChunkBoundary{Start: 100, End: 200}, int64(len(content)))
	require.NoError(t, err)
	assert.Equal(t, content[100:200], got)
}

func TestFileReaderReadsToEOFOnFinalChunk(t *testing.T) {
	content := []byte("hello world")
	path := writeTempFile(t, content)

	r := newFileReader(path, 1)
	got, err := r.ReadChunk(context.Background(), ChunkBoundary{Start: 6, End: int64(len(content))}, int64(len(content)))
	require.NoError(t, err)
	assert.Equal(t, content[6:], got)
}

func TestFileReaderMissingFileIsIOError(t *testing.T) {
	r := newFileReader(filepath.Join(t.TempDir(), "missing.bin"), 1)
	_, err := r.ReadChunk(context.Background(), ChunkBoundary{Start: 0, End: 10}, 10)
	assert.True(t, errors.Is(err, ErrIO))
}
