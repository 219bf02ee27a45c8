package relay

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaycore/dynrelay/internal/relayengine"
)

func newTestLifecycle(expirationTTL, maxLifetime time.Duration) (*Lifecycle, *Registry, *MediaRefMap, *relayengine.Fake) {
	registry := NewRegistry()
	refs := NewMediaRefMap()
	engine := relayengine.NewFake()
	lc := NewLifecycle(registry, refs, engine, "rtsp://u:p@h:554", expirationTTL, maxLifetime, nil)
	return lc, registry, refs, engine
}

func TestAddExpirableMountsAndRegisters(t *testing.T) {
	lc, registry, _, engine := newTestLifecycle(5*time.Minute, 0)
	ctx := context.Background()

	s, err := lc.AddExpirable(ctx, "A", "rtsp://x/a", false)
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, "A", s.Name)
	assert.False(t, s.Expiration.IsNever())

	_, mounted := engine.MountedFactory(MountPath(s.ID))
	assert.True(t, mounted)

	got, ok := registry.Get(s.ID)
	require.True(t, ok)
	assert.Equal(t, s.ID, got.ID)
}

func TestAddAndListScenario1(t *testing.T) {
	lc, registry, _, _ := newTestLifecycle(5*time.Minute, 0)
	ctx := context.Background()

	s, err := lc.AddExpirable(ctx, "A", "rtsp://x/a", false)
	require.NoError(t, err)

	list := registry.List()
	require.Len(t, list, 1)
	assert.Equal(t, s.ID, list[0].ID)
}

func TestPermanentReplaceScenario2(t *testing.T) {
	lc, registry, _, _ := newTestLifecycle(5*time.Minute, 0)
	ctx := context.Background()

	_, err := lc.PutPermanent(ctx, "cam1", "cam1", "rtsp://x/1", false)
	require.NoError(t, err)
	_, err = lc.PutPermanent(ctx, "cam1", "cam1", "rtsp://x/1", false)
	require.NoError(t, err)

	list := registry.List()
	require.Len(t, list, 1)
	assert.Equal(t, "cam1", list[0].ID)
	assert.True(t, list[0].Expiration.IsNever())
}

func TestRemoveIdempotenceScenario3(t *testing.T) {
	lc, _, _, _ := newTestLifecycle(5*time.Minute, 0)
	ctx := context.Background()

	_, err := lc.Remove(ctx, "ghost")
	require.NoError(t, err)
	_, err = lc.Remove(ctx, "ghost")
	require.NoError(t, err)
}

func TestConflictingIDReflectsNewSourceScenario6(t *testing.T) {
	lc, _, _, engine := newTestLifecycle(5*time.Minute, 0)
	ctx := context.Background()

	_, err := lc.PutPermanent(ctx, "p3", "p3", "rtsp://x/old", false)
	require.NoError(t, err)

	_, err = lc.PutPermanent(ctx, "p3", "p3", "rtsp://x/new", false)
	require.NoError(t, err)

	factory, ok := engine.MountedFactory(MountPath("p3"))
	require.True(t, ok)
	assert.Contains(t, factory.LaunchString, "rtsp://x/new")
	assert.NotContains(t, factory.LaunchString, "rtsp://x/old")
}

func TestPutPermanentUnmountsBeforeRemount(t *testing.T) {
	lc, _, _, engine := newTestLifecycle(5*time.Minute, 0)
	ctx := context.Background()

	_, err := lc.PutPermanent(ctx, "p1", "p1", "rtsp://x/1", false)
	require.NoError(t, err)
	_, err = lc.PutPermanent(ctx, "p1", "p1", "rtsp://x/2", false)
	require.NoError(t, err)

	unmounts := engine.Unmounts()
	assert.Contains(t, unmounts, MountPath("p1"))
	assert.Equal(t, []string{MountPath("p1"), MountPath("p1")}, unmounts)

	// The fake's Unmount drops the mounted entry, so the new factory still
	// being mounted shows the second unmount ran before the remount.
	factory, ok := engine.MountedFactory(MountPath("p1"))
	require.True(t, ok)
	assert.Contains(t, factory.LaunchString, "rtsp://x/2")
}

func TestRemoveIfIdlePreservesActiveStreamBelowCeiling(t *testing.T) {
	lc, registry, refs, engine := newTestLifecycle(time.Millisecond, time.Hour)
	ctx := context.Background()

	s, err := lc.AddExpirable(ctx, "e2", "rtsp://x/e2", false)
	require.NoError(t, err)

	require.NoError(t, engine.Configure(s.MountPath(), 1))

	time.Sleep(2 * time.Millisecond)
	err = lc.RemoveIfIdle(ctx, s.ID, time.Now())
	require.NoError(t, err)

	_, ok := registry.Get(s.ID)
	assert.True(t, ok, "active stream below max lifetime must be preserved")
	_ = refs
}

func TestRemoveIfIdleTearsDownAtExactMaxLifetime(t *testing.T) {
	lc, registry, _, engine := newTestLifecycle(time.Millisecond, 10*time.Millisecond)
	ctx := context.Background()

	s, err := lc.AddExpirable(ctx, "e2", "rtsp://x/e2", false)
	require.NoError(t, err)
	require.NoError(t, engine.Configure(s.MountPath(), 1))

	// age == max_lifetime exactly: condition is strict '<', so this must
	// tear down even with active clients (boundary behavior, §8).
	now := s.AddedAt.Add(10 * time.Millisecond)
	err = lc.RemoveIfIdle(ctx, s.ID, now)
	require.NoError(t, err)

	_, ok := registry.Get(s.ID)
	assert.False(t, ok)
}

func TestRemoveIfIdleTearsDownWithoutActiveClients(t *testing.T) {
	lc, registry, _, _ := newTestLifecycle(time.Millisecond, time.Hour)
	ctx := context.Background()

	s, err := lc.AddExpirable(ctx, "e1", "rtsp://x/e1", false)
	require.NoError(t, err)

	err = lc.RemoveIfIdle(ctx, s.ID, time.Now())
	require.NoError(t, err)

	_, ok := registry.Get(s.ID)
	assert.False(t, ok)
}

func TestRemoveUnpreparesHandlesAndIsTolerantOfFailure(t *testing.T) {
	lc, _, refs, engine := newTestLifecycle(5*time.Minute, 0)
	ctx := context.Background()

	s, err := lc.AddExpirable(ctx, "a", "rtsp://x/a", false)
	require.NoError(t, err)
	require.NoError(t, engine.Configure(s.MountPath(), 3))

	engine.FailUnprepare = map[string]error{s.MountPath(): assertErr("simulated unprepare failure")}

	_, err = lc.Remove(ctx, s.ID)
	assert.Error(t, err, "unprepare failure should surface, but teardown still completes")

	assert.Empty(t, refs.Handles(s.MountPath()))
}

type simpleErr string

func (e simpleErr) Error() string { return string(e) }

func assertErr(msg string) error { return simpleErr(msg) }
