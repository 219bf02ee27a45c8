package camerastore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreListAllCameras(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cameras.yaml")
	content := "cameras:\n  - id: cam1\n    source_url: rtsp://x/1\n  - id: cam2\n    source_url: rtsp://x/2\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	store := NewFileStore(path, nil)
	cameras, err := store.ListAllCameras(context.Background())
	require.NoError(t, err)
	require.Len(t, cameras, 2)
	assert.Equal(t, "cam1", cameras[0].ID)
	assert.Equal(t, "rtsp://x/2", cameras[1].SourceURL)
}

func TestFileStoreMissingFileReturnsEmpty(t *testing.T) {
	store := NewFileStore("/nonexistent/path/cameras.yaml", nil)
	cameras, err := store.ListAllCameras(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cameras)
}

func TestFileStoreMalformedYAMLErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cameras: [not, valid: yaml"), 0o644))

	store := NewFileStore(path, nil)
	_, err := store.ListAllCameras(context.Background())
	assert.Error(t, err)
}
