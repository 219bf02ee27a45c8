package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoaderDefaults(t *testing.T) {
	t.Setenv("MEDIAMTX_BASE_URL", "http://127.0.0.1:9997")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.HTTP.Host)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 5*time.Minute, cfg.Lifecycle.ExpirationTime)
	assert.False(t, cfg.Lifecycle.LoadDefaultStreams)
	assert.Equal(t, "id", cfg.CameraStore.PartitionKey)
}

func TestLoaderReadsFlatEnvVars(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("STREAM_EXPIRATION_TIME_IN_MINUTES", "15")
	t.Setenv("TABLE_NAME", "cameras")
	t.Setenv("RTSP_SERVER_USER", "admin")
	t.Setenv("MEDIAMTX_BASE_URL", "http://mediamtx:9997")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, 15*time.Minute, cfg.Lifecycle.ExpirationTime)
	assert.Equal(t, "cameras", cfg.CameraStore.TableName)
	assert.Equal(t, "admin", cfg.RTSP.User)
}

func TestValidateRejectsBadPort(t *testing.T) {
	cfg := &Config{
		HTTP:            HTTPConfig{Port: 0},
		Lifecycle:       LifecycleConfig{ExpirationTime: time.Minute},
		MediaMTXBaseURL: "http://x",
	}
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsShortMaxLifetime(t *testing.T) {
	cfg := &Config{
		HTTP:            HTTPConfig{Port: 8080},
		Lifecycle:       LifecycleConfig{ExpirationTime: 10 * time.Minute, MaxLifetime: 5 * time.Minute},
		MediaMTXBaseURL: "http://x",
	}
	assert.Error(t, cfg.Validate())
}
