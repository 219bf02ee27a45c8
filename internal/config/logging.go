package config

import (
	"github.com/spf13/viper"

	"github.com/relaycore/dynrelay/internal/logging"
)

func loggingConfigFrom(v *viper.Viper) logging.Config {
	return logging.Config{
		Level:          v.GetString("logging.level"),
		Format:         v.GetString("logging.format"),
		FileEnabled:    v.GetBool("logging.file_enabled"),
		FilePath:       v.GetString("logging.file_path"),
		MaxFileSizeMB:  v.GetInt("logging.max_file_size_mb"),
		BackupCount:    v.GetInt("logging.backup_count"),
		ConsoleEnabled: v.GetBool("logging.console_enabled"),
	}
}
