package config

import (
	"github.com/spf13/viper"
)

type (
	Config struct {
		Database
		Log
	}

	Database struct {
		Path string

		// QuotaBytes caps disk usage; 0 disables the check.
		QuotaBytes int64

		// ReconcileOnOpen runs the orphan purge and index repair pass
		// every time the store is opened.
		ReconcileOnOpen bool
	}

	Log struct {
		Level string
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("database_quota_bytes", 0)
	v.SetDefault("database_reconcile_on_open", true)
	v.SetDefault("log_level", "info")

	return &Config{
		Database: Database{
			Path:            v.GetString("database_path"),
			QuotaBytes:      v.GetInt64("database_quota_bytes"),
			ReconcileOnOpen: v.GetBool("database_reconcile_on_open"),
		},
		Log: Log{
			Level: v.GetString("log_level"),
		},
	}
}
