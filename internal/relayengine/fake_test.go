package relayengine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeMountAndUnmount(t *testing.T) {
	f := NewFake()
	ctx := context.Background()

	factory, err := f.BuildFactory("rtsp://x/a", false)
	require.NoError(t, err)

	require.NoError(t, f.Mount(ctx, "/cam1", factory))
	mounted, ok := f.MountedFactory("/cam1")
	require.True(t, ok)
	assert.Equal(t, "rtsp://x/a", mounted.SourceURL)

	require.NoError(t, f.Unmount(ctx, "/cam1"))
	_, ok = f.MountedFactory("/cam1")
	assert.False(t, ok)

	// Unmounting an absent path is a no-op.
	require.NoError(t, f.Unmount(ctx, "/never-mounted"))
}

func TestFakeConfigureInvokesCallback(t *testing.T) {
	f := NewFake()
	var gotPath string
	var gotSessions int

	f.OnMediaConfigure("/cam1", func(path string, info *MediaInstanceInfo) {
		gotPath = path
		gotSessions = info.Sessions
	})

	require.NoError(t, f.Configure("/cam1", 2))
	assert.Equal(t, "/cam1", gotPath)
	assert.Equal(t, 2, gotSessions)
}

func TestFakeConfigureWithoutCallbackErrors(t *testing.T) {
	f := NewFake()
	err := f.Configure("/nothing", 1)
	assert.Error(t, err)
}
