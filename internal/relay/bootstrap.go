package relay

import (
	"context"
	"fmt"

	"github.com/relaycore/dynrelay/internal/camerastore"
	"github.com/relaycore/dynrelay/internal/logging"
)

// Bootstrap enumerates the upstream camera source and seeds the
// registry with permanent streams (C6, §4.6). Failure to load the
// configuration, or failure to add any single stream, is fatal — the
// operator should know the initial state is incomplete rather than run
// with a silently partial registry.
func Bootstrap(ctx context.Context, lifecycle *Lifecycle, store camerastore.Store, log *logging.Logger) error {
	if log == nil {
		log = logging.New("relay.bootstrap")
	}

	cameras, err := store.ListAllCameras(ctx)
	if err != nil {
		return fmt.Errorf("bootstrap: failed to load camera configuration: %w", err)
	}

	for _, cam := range cameras {
		if _, err := lifecycle.PutPermanent(ctx, cam.ID, cam.ID, cam.SourceURL, false); err != nil {
			return fmt.Errorf("bootstrap: failed to add camera %q: %w", cam.ID, err)
		}
		log.WithField("id", cam.ID).Info("bootstrap: seeded permanent stream")
	}
	log.WithField("count", len(cameras)).Info("bootstrap completed")
	return nil
}
