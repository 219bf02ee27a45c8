package camerastore

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/relaycore/dynrelay/internal/logging"
)

// FileStore implements Store by reading a YAML file of cameras, used
// for local development and as the test fixture backend when
// TABLE_NAME is unset (§6.2).
type FileStore struct {
	path string
	log  *logging.Logger
}

// NewFileStore builds a FileStore reading from path.
func NewFileStore(path string, log *logging.Logger) *FileStore {
	if log == nil {
		log = logging.New("camerastore.file")
	}
	return &FileStore{path: path, log: log}
}

type fileDocument struct {
	Cameras []Camera `yaml:"cameras"`
}

// ListAllCameras reads and parses the YAML document. A missing file is
// treated as an empty camera list rather than an error, so a bare
// `LOAD_DEFAULT_STREAMS=true` with no fixture configured yields no
// bootstrap streams instead of a fatal startup error.
func (f *FileStore) ListAllCameras(ctx context.Context) ([]Camera, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		f.log.WithField("path", f.path).Debug("camera fixture file absent, no cameras to bootstrap")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("camerastore: read %s: %w", f.path, err)
	}

	var doc fileDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("camerastore: parse %s: %w", f.path, err)
	}
	return doc.Cameras, nil
}
