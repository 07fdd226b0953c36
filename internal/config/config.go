package config

import "time"

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Immich   ImmichConfig   `mapstructure:"immich"`
	Job      JobConfig      `mapstructure:"job"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// DatabaseConfig holds the catalog database connection parameters
type DatabaseConfig struct {
	Hostname       string        `mapstructure:"hostname"`
	Port           int           `mapstructure:"port"`
	Name           string        `mapstructure:"name"`
	Username       string        `mapstructure:"username"`
	Password       string        `mapstructure:"password"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	QueryTimeout   time.Duration `mapstructure:"query_timeout"`
}

// ImmichConfig holds the remote asset API settings
type ImmichConfig struct {
	URL             string        `mapstructure:"url"`
	APIKey          string        `mapstructure:"api_key"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	SSLVerification bool          `mapstructure:"ssl_verification"`
}

// JobConfig controls what the reconciliation job considers and how it acts
type JobConfig struct {
	// UploadPath is the raw comma-separated list of LIKE patterns.
	UploadPath      string  `mapstructure:"upload_path"`
	DryRun          bool    `mapstructure:"dry_run"`
	MaxMissingRatio float64 `mapstructure:"max_missing_ratio"`

	// Patterns is derived from UploadPath by Load.
	Patterns []string `mapstructure:"-"`
}

// ScheduleConfig controls when the job runs
type ScheduleConfig struct {
	CronExpression    string `mapstructure:"cron_expression"`
	RunAtFirstStartup bool   `mapstructure:"run_at_first_startup"`
}

// LogConfig controls log output
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig controls the optional health and metrics endpoint
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// Enabled reports whether the metrics endpoint should be started
func (m MetricsConfig) Enabled() bool {
	return m.Addr != ""
}
