package relay

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/relaycore/dynrelay/internal/logging"
)

// Sweeper runs reap cycles (C5): find expired streams and ask the
// Lifecycle Manager to remove each one, subject to the idle-client
// policy. Triggering is external — an HTTP admin call or a timer bound
// by cmd/relayd — the sweeper itself only implements one cycle (§4.5).
type Sweeper struct {
	registry  *Registry
	lifecycle *Lifecycle
	log       *logging.Logger
}

// NewSweeper constructs a Sweeper bound to the given registry and
// lifecycle manager.
func NewSweeper(registry *Registry, lifecycle *Lifecycle, log *logging.Logger) *Sweeper {
	if log == nil {
		log = logging.New("relay.sweeper")
	}
	return &Sweeper{registry: registry, lifecycle: lifecycle, log: log}
}

// SweepResult summarizes one reap cycle.
type SweepResult struct {
	ExpiredFound int
	Removed      int
	Failed       int
}

// Sweep runs one reap cycle: snapshot now, find expired ids, and call
// RemoveIfIdle for each concurrently. Per-id failures are logged and
// never abort the sweep (§4.5 point 3, §4.4 "Ordering and tie-breaks").
func (s *Sweeper) Sweep(ctx context.Context) SweepResult {
	now := time.Now()
	ids := s.registry.FindExpired(now)

	result := SweepResult{ExpiredFound: len(ids)}
	if len(ids) == 0 {
		return result
	}

	var g errgroup.Group
	var mu sync.Mutex
	for _, id := range ids {
		id := id
		g.Go(func() error {
			err := s.lifecycle.RemoveIfIdle(ctx, id, now)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed++
				s.log.WithError(err).WithField("id", id).Error("sweep: remove_if_idle failed")
			} else if _, still := s.registry.Get(id); !still {
				// RemoveIfIdle also succeeds when it preserves a busy
				// stream; only count ids that are gone afterwards.
				result.Removed++
			}
			return nil
		})
	}
	_ = g.Wait()

	s.log.WithField("expired_found", result.ExpiredFound).
		WithField("removed", result.Removed).
		WithField("failed", result.Failed).
		Info("sweep cycle completed")
	return result
}
