package relay

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaycore/dynrelay/internal/relayengine"
)

func TestSweepSparesPermanentScenario4(t *testing.T) {
	registry := NewRegistry()
	refs := NewMediaRefMap()
	engine := relayengine.NewFake()
	lc := NewLifecycle(registry, refs, engine, "rtsp://u:p@h:554", time.Millisecond, 0, nil)
	sweeper := NewSweeper(registry, lc, nil)
	ctx := context.Background()

	_, err := lc.PutPermanent(ctx, "p1", "p1", "rtsp://x/p1", false)
	require.NoError(t, err)
	_, err = lc.AddExpirable(ctx, "e1", "rtsp://x/e1", false)
	require.NoError(t, err)

	time.Sleep(2 * time.Millisecond)

	result := sweeper.Sweep(ctx)
	assert.Equal(t, 1, result.ExpiredFound)
	assert.Equal(t, 1, result.Removed)

	list := registry.List()
	require.Len(t, list, 1)
	assert.Equal(t, "p1", list[0].ID)
}

func TestSweepRespectsLiveClientsThenRemovesScenario5(t *testing.T) {
	registry := NewRegistry()
	refs := NewMediaRefMap()
	engine := relayengine.NewFake()
	lc := NewLifecycle(registry, refs, engine, "rtsp://u:p@h:554", time.Millisecond, time.Hour, nil)
	sweeper := NewSweeper(registry, lc, nil)
	ctx := context.Background()

	s, err := lc.AddExpirable(ctx, "e2", "rtsp://x/e2", false)
	require.NoError(t, err)
	require.NoError(t, engine.Configure(s.MountPath(), 1))

	time.Sleep(2 * time.Millisecond)

	result := sweeper.Sweep(ctx)
	assert.Equal(t, 1, result.ExpiredFound)
	_, ok := registry.Get(s.ID)
	assert.True(t, ok, "e2 must still be listed: active clients and age < max_lifetime")

	// Re-run with age >= max_lifetime: now torn down even though active.
	lc2 := NewLifecycle(registry, refs, engine, "rtsp://u:p@h:554", time.Millisecond, time.Nanosecond, nil)
	sweeper2 := NewSweeper(registry, lc2, nil)
	result = sweeper2.Sweep(ctx)
	assert.Equal(t, 1, result.ExpiredFound)

	_, ok = registry.Get(s.ID)
	assert.False(t, ok, "e2 must be removed once age >= max_lifetime")
}

func TestSweepWithZeroExpiredCompletesCleanly(t *testing.T) {
	registry := NewRegistry()
	refs := NewMediaRefMap()
	engine := relayengine.NewFake()
	lc := NewLifecycle(registry, refs, engine, "rtsp://u:p@h:554", time.Hour, 0, nil)
	sweeper := NewSweeper(registry, lc, nil)
	ctx := context.Background()

	_, err := lc.AddExpirable(ctx, "fresh", "rtsp://x/fresh", false)
	require.NoError(t, err)

	result := sweeper.Sweep(ctx)
	assert.Equal(t, 0, result.ExpiredFound)
	assert.Equal(t, 0, result.Removed)
	assert.Len(t, registry.List(), 1)
}
