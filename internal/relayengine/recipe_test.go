package relayengine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFactoryPassthrough(t *testing.T) {
	f, err := buildFactory("rtsp://x/a", false)
	require.NoError(t, err)

	assert.Equal(t, Passthrough, f.Recipe)
	assert.True(t, f.Shared)
	assert.Equal(t, "pay0", f.PayloadElement)
	assert.Equal(t, 96, f.PayloadType)
	assert.Contains(t, f.LaunchString, "protocols=tcp")
	assert.Contains(t, f.LaunchString, "latency=50")
	assert.Contains(t, f.LaunchString, "pay0")
	assert.NotContains(t, f.LaunchString, "videoscale")
}

func TestBuildFactoryDownscale(t *testing.T) {
	f, err := buildFactory("rtsp://x/a", true)
	require.NoError(t, err)

	assert.Equal(t, Downscale, f.Recipe)
	for _, want := range []string{"width=640", "height=320", "I420", "bitrate=500", "ultrafast", "key-int-max=30", "pay0"} {
		assert.True(t, strings.Contains(f.LaunchString, want), "launch string missing %q: %s", want, f.LaunchString)
	}
}

func TestBuildFactoryRejectsEmptySource(t *testing.T) {
	_, err := buildFactory("", false)
	assert.Error(t, err)
}
