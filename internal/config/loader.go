package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Loader resolves a Config from environment variables using explicit
// per-key bindings, mirroring the flat (unprefixed) env var names the
// service has always exposed rather than a prefixed/automatic scheme.
type Loader struct {
	v *viper.Viper
}

// NewLoader constructs a Loader with defaults pre-populated.
func NewLoader() *Loader {
	l := &Loader{v: viper.New()}
	l.setDefaults()
	l.bindEnv()
	return l
}

func (l *Loader) setDefaults() {
	l.v.SetDefault("http.host", "0.0.0.0")
	l.v.SetDefault("http.port", 8080)

	l.v.SetDefault("rtsp.root_url", "")
	l.v.SetDefault("rtsp.host_address", "0.0.0.0")
	l.v.SetDefault("rtsp.host_name", "127.0.0.1")
	l.v.SetDefault("rtsp.port", 8554)
	l.v.SetDefault("rtsp.user", "")
	l.v.SetDefault("rtsp.password", "")

	l.v.SetDefault("lifecycle.expiration_time_minutes", 5)
	l.v.SetDefault("lifecycle.max_lifetime_minutes", 0)
	l.v.SetDefault("lifecycle.load_default_streams", false)

	l.v.SetDefault("camera_store.table_name", "")
	l.v.SetDefault("camera_store.partition_key", "id")
	l.v.SetDefault("camera_store.file_path", "cameras.yaml")
	l.v.SetDefault("camera_store.aws_region", "us-east-1")

	l.v.SetDefault("mediamtx_base_url", "http://127.0.0.1:9997")
	l.v.SetDefault("shutdown_timeout_seconds", 30)

	l.v.SetDefault("logging.level", "info")
	l.v.SetDefault("logging.format", "text")
	l.v.SetDefault("logging.console_enabled", true)
	l.v.SetDefault("logging.file_enabled", false)
	l.v.SetDefault("logging.file_path", "")
	l.v.SetDefault("logging.max_file_size_mb", 10)
	l.v.SetDefault("logging.backup_count", 3)
}

// bindEnv wires each viper key to the literal env var name the external
// interface documents, rather than relying on automatic prefix+case
// translation (the service's env vars are not uniformly prefixed).
func (l *Loader) bindEnv() {
	must := func(key, env string) {
		if err := l.v.BindEnv(key, env); err != nil {
			panic(fmt.Sprintf("config: bind env %s: %v", env, err))
		}
	}

	must("http.host", "HTTP_HOST")
	must("http.port", "HTTP_PORT")

	must("rtsp.root_url", "ROOT_URL")
	must("rtsp.host_address", "RTSP_SERVER_HOST_ADDRESS")
	must("rtsp.host_name", "RTSP_SERVER_HOST_NAME")
	must("rtsp.port", "RTSP_SERVER_PORT")
	must("rtsp.user", "RTSP_SERVER_USER")
	must("rtsp.password", "RTSP_SERVER_PASSWORD")

	must("lifecycle.expiration_time_minutes", "STREAM_EXPIRATION_TIME_IN_MINUTES")
	must("lifecycle.max_lifetime_minutes", "STREAM_MAX_LIFETIME_IN_MINUTES")
	must("lifecycle.load_default_streams", "LOAD_DEFAULT_STREAMS")

	must("camera_store.table_name", "TABLE_NAME")
	must("camera_store.partition_key", "PARTITION_KEY")
	must("camera_store.file_path", "CAMERA_STORE_FILE_PATH")
	must("camera_store.aws_region", "AWS_REGION")

	must("mediamtx_base_url", "MEDIAMTX_BASE_URL")
	must("shutdown_timeout_seconds", "SHUTDOWN_TIMEOUT_SECONDS")

	must("logging.level", "LOG_LEVEL")
	must("logging.format", "LOG_FORMAT")
	must("logging.console_enabled", "LOG_CONSOLE_ENABLED")
	must("logging.file_enabled", "LOG_FILE_ENABLED")
	must("logging.file_path", "LOG_FILE_PATH")
}

// Load builds and validates the Config.
func (l *Loader) Load() (*Config, error) {
	cfg := &Config{
		HTTP: HTTPConfig{
			Host: l.v.GetString("http.host"),
			Port: l.v.GetInt("http.port"),
		},
		RTSP: RTSPServerConfig{
			RootURL:     l.v.GetString("rtsp.root_url"),
			HostAddress: l.v.GetString("rtsp.host_address"),
			HostName:    l.v.GetString("rtsp.host_name"),
			Port:        l.v.GetInt("rtsp.port"),
			User:        l.v.GetString("rtsp.user"),
			Password:    l.v.GetString("rtsp.password"),
		},
		Lifecycle: LifecycleConfig{
			ExpirationTime:     time.Duration(l.v.GetInt("lifecycle.expiration_time_minutes")) * time.Minute,
			MaxLifetime:        time.Duration(l.v.GetInt("lifecycle.max_lifetime_minutes")) * time.Minute,
			LoadDefaultStreams: l.v.GetBool("lifecycle.load_default_streams"),
		},
		CameraStore: CameraStoreConfig{
			TableName:    l.v.GetString("camera_store.table_name"),
			PartitionKey: l.v.GetString("camera_store.partition_key"),
			FilePath:     l.v.GetString("camera_store.file_path"),
			AWSRegion:    l.v.GetString("camera_store.aws_region"),
		},
		Logging: loggingConfigFrom(l.v),
		MediaMTXBaseURL: l.v.GetString("mediamtx_base_url"),
		ShutdownTimeout: time.Duration(l.v.GetInt("shutdown_timeout_seconds")) * time.Second,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
