// Package camerastore implements the external contract the Bootstrap
// Loader (C6) consumes: an upstream list of cameras to seed the
// registry with as permanent streams. The concrete backing store is
// irrelevant to the relay core (spec §4.6); this package provides a
// DynamoDB-backed implementation and a YAML file-backed fallback.
package camerastore

import "context"

// Camera is one upstream entry the Bootstrap Loader turns into a
// permanent stream.
type Camera struct {
	ID        string `yaml:"id"`
	SourceURL string `yaml:"source_url"`
}

// Store is the contract required by spec §4.6:
// list_all_cameras() -> {id, source_url}[] | error.
type Store interface {
	ListAllCameras(ctx context.Context) ([]Camera, error)
}
