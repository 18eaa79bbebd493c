// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package config

import (
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "PDBMIRROR"

type Config struct {
	ListenAddr  string
	PostgresDSN string
	SyncSecret  string

	SnapshotBaseURL string
	LiveBaseURL     string
	UserAgent       string

	SyncInterval time.Duration
	SyncPageSize int
	QueryLimit   int

	UpstreamTimeout time.Duration
	RetryAttempts   uint
	RetryDelay      time.Duration
	RetryMaxDelay   time.Duration

	LogFile string
}

// Load reads configuration from PDBMIRROR_* environment variables,
// falling back to defaults that point at the real PeeringDB endpoints.
func Load() *Config {
	options := viper.New()

	options.SetDefault("Listen_Addr", ":8080")
	options.SetDefault("PG_DSN", "")
	options.SetDefault("Sync_Secret", "")
	options.SetDefault("Snapshot_Base_URL", "https://public.peeringdb.com")
	options.SetDefault("Live_Base_URL", "https://www.peeringdb.com/api")
	options.SetDefault("User_Agent", "pdbmirror/1.0")
	options.SetDefault("Sync_Interval", "1h")
	options.SetDefault("Sync_Page_Size", 1000)
	options.SetDefault("Query_Limit", 250)
	options.SetDefault("Upstream_Timeout", "60s")
	options.SetDefault("Retry_Attempts", 5)
	options.SetDefault("Retry_Delay", "1s")
	options.SetDefault("Retry_Max_Delay", "60s")
	options.SetDefault("Log_File", "pdbmirror.log")

	options.SetEnvPrefix(envPrefix)
	options.AutomaticEnv()

	return &Config{
		ListenAddr:      options.GetString("Listen_Addr"),
		PostgresDSN:     options.GetString("PG_DSN"),
		SyncSecret:      options.GetString("Sync_Secret"),
		SnapshotBaseURL: options.GetString("Snapshot_Base_URL"),
		LiveBaseURL:     options.GetString("Live_Base_URL"),
		UserAgent:       options.GetString("User_Agent"),
		SyncInterval:    options.GetDuration("Sync_Interval"),
		SyncPageSize:    options.GetInt("Sync_Page_Size"),
		QueryLimit:      options.GetInt("Query_Limit"),
		UpstreamTimeout: options.GetDuration("Upstream_Timeout"),
		RetryAttempts:   options.GetUint("Retry_Attempts"),
		RetryDelay:      options.GetDuration("Retry_Delay"),
		RetryMaxDelay:   options.GetDuration("Retry_Max_Delay"),
		LogFile:         options.GetString("Log_File"),
	}
}
