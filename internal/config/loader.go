package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// setting binds a config key to its environment variable and default value
type setting struct {
	key    string
	env    string
	defval any
}

// settings enumerates every option, its environment variable, and its default.
// A nil default means the option has no default.
var settings = []setting{
	{"database.hostname", "DB_HOSTNAME", "immich_postgres"},
	{"database.port", "DB_PORT", 5432},
	{"database.name", "DB_DATABASE_NAME", "immich"},
	{"database.username", "DB_USERNAME", "postgres"},
	{"database.password", "DB_PASSWORD", "postgres"},
	{"database.connect_timeout", "DB_CONNECT_TIMEOUT", 10 * time.Second},
	{"database.query_timeout", "DB_QUERY_TIMEOUT", 60 * time.Second},

	{"immich.url", "IMMICH_URL", nil},
	{"immich.api_key", "IMMICH_API_KEY", nil},
	{"immich.request_timeout", "REQUEST_TIMEOUT", 30 * time.Second},
	{"immich.ssl_verification", "SSL_VERIFICATION", true},

	{"job.upload_path", "IMMICH_UPLOAD_PATH", "/usr/src/app/upload/library/%"},
	{"job.dry_run", "DRY_RUN", true},
	{"job.max_missing_ratio", "MAX_MISSING_RATIO", 0.1},

	{"schedule.cron_expression", "CRON_EXPRESSION", "0 3 * * *"},
	{"schedule.run_at_first_startup", "RUN_AT_FIRST_STARTUP", false},

	{"log.level", "LOG_LEVEL", "info"},
	{"log.format", "LOG_FORMAT", "text"},

	{"metrics.addr", "METRICS_ADDR", ""},
}

// Load reads configuration from an optional file and environment variables.
// Environment variables always take precedence over the file.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	for _, s := range settings {
		if s.defval != nil {
			v.SetDefault(s.key, s.defval)
		} else {
			v.SetDefault(s.key, "")
		}
		if err := v.BindEnv(s.key, s.env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", s.env, err)
		}
	}

	if configPath == "" {
		configPath = os.Getenv("CONFIG_FILE")
	}
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Job.Patterns = SplitPatterns(cfg.Job.UploadPath)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// SplitPatterns turns a comma-separated pattern list into trimmed, non-empty patterns
func SplitPatterns(raw string) []string {
	var patterns []string
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		patterns = append(patterns, p)
	}
	return patterns
}

// EnvNames returns the environment variable for every known setting, in declaration order
func EnvNames() []string {
	names := make([]string, 0, len(settings))
	for _, s := range settings {
		names = append(names, s.env)
	}
	return names
}
