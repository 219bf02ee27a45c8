// Package config defines the relay service's runtime configuration and
// the environment variables it is sourced from.
package config

import (
	"fmt"
	"time"

	"github.com/relaycore/dynrelay/internal/logging"
)

// HTTPConfig controls the public HTTP API surface (§6).
type HTTPConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr returns the host:port listen address.
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RTSPServerConfig describes the embedded media engine's public-facing
// identity, used to derive stream URLs returned to callers.
type RTSPServerConfig struct {
	RootURL     string `mapstructure:"root_url"`
	HostAddress string `mapstructure:"host_address"`
	HostName    string `mapstructure:"host_name"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
}

// PublicURL returns the rtsp:// URL a client should use to reach the
// given mount path, in the "<scheme>://<user>:<pass>@<host>:<port>/<path>"
// form documented by the external interface. When no user is configured
// the credentials are left out: "<scheme>://<host>:<port>/<path>".
func (c RTSPServerConfig) PublicURL(path string) string {
	if c.User != "" {
		return fmt.Sprintf("rtsp://%s:%s@%s:%d/%s", c.User, c.Password, c.HostName, c.Port, path)
	}
	return fmt.Sprintf("rtsp://%s:%d/%s", c.HostName, c.Port, path)
}

// LifecycleConfig controls stream expiration and sweep behavior (§4.4, §4.5).
type LifecycleConfig struct {
	ExpirationTime     time.Duration `mapstructure:"expiration_time"`
	MaxLifetime        time.Duration `mapstructure:"max_lifetime"`
	LoadDefaultStreams bool          `mapstructure:"load_default_streams"`
}

// CameraStoreConfig selects and configures the Bootstrap Loader's backing
// store (C6). When TableName is empty the file-backed store is used.
type CameraStoreConfig struct {
	TableName    string `mapstructure:"table_name"`
	PartitionKey string `mapstructure:"partition_key"`
	FilePath     string `mapstructure:"file_path"`
	AWSRegion    string `mapstructure:"aws_region"`
}

// Config is the fully resolved runtime configuration for cmd/relayd.
type Config struct {
	HTTP            HTTPConfig        `mapstructure:"http"`
	RTSP            RTSPServerConfig  `mapstructure:"rtsp"`
	Lifecycle       LifecycleConfig   `mapstructure:"lifecycle"`
	CameraStore     CameraStoreConfig `mapstructure:"camera_store"`
	Logging         logging.Config    `mapstructure:"logging"`
	MediaMTXBaseURL string            `mapstructure:"mediamtx_base_url"`
	ShutdownTimeout time.Duration     `mapstructure:"shutdown_timeout"`
}

// Validate rejects configurations that would make the service unable to
// start or would contradict the data-model invariants.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("config: http port %d out of range", c.HTTP.Port)
	}
	if c.Lifecycle.ExpirationTime <= 0 {
		return fmt.Errorf("config: stream expiration time must be positive")
	}
	if c.Lifecycle.MaxLifetime > 0 && c.Lifecycle.MaxLifetime < c.Lifecycle.ExpirationTime {
		return fmt.Errorf("config: max lifetime must not be shorter than expiration time")
	}
	if c.MediaMTXBaseURL == "" {
		return fmt.Errorf("config: media engine base url is required")
	}
	return nil
}
