package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Validate checks the configuration for errors and inconsistencies
func (c *Config) Validate() error {
	if err := c.validateDatabase(); err != nil {
		return fmt.Errorf("database config: %w", err)
	}

	if err := c.validateJob(); err != nil {
		return fmt.Errorf("job config: %w", err)
	}

	if err := c.validateImmich(); err != nil {
		return fmt.Errorf("immich config: %w", err)
	}

	if err := c.validateSchedule(); err != nil {
		return fmt.Errorf("schedule config: %w", err)
	}

	if err := c.validateLog(); err != nil {
		return fmt.Errorf("log config: %w", err)
	}

	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Hostname == "" {
		return fmt.Errorf("DB_HOSTNAME is required")
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("DB_PORT must be between 1 and 65535")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_DATABASE_NAME is required")
	}
	if c.Database.ConnectTimeout < 1*time.Second {
		return fmt.Errorf("DB_CONNECT_TIMEOUT must be at least 1 second")
	}
	if c.Database.QueryTimeout < 1*time.Second {
		return fmt.Errorf("DB_QUERY_TIMEOUT must be at least 1 second")
	}
	return nil
}

func (c *Config) validateJob() error {
	if len(c.Job.Patterns) == 0 {
		return fmt.Errorf("IMMICH_UPLOAD_PATH must contain at least one pattern")
	}
	if !(c.Job.MaxMissingRatio >= 0 && c.Job.MaxMissingRatio <= 1) {
		return fmt.Errorf("MAX_MISSING_RATIO must be between 0 and 1, got %v", c.Job.MaxMissingRatio)
	}
	return nil
}

func (c *Config) validateImmich() error {
	if c.Immich.RequestTimeout < 1*time.Second {
		return fmt.Errorf("REQUEST_TIMEOUT must be at least 1 second")
	}
	if c.Immich.RequestTimeout > 5*time.Minute {
		return fmt.Errorf("REQUEST_TIMEOUT must not exceed 5 minutes")
	}

	// A dry run never calls the API, so credentials are optional there
	if c.Job.DryRun && c.Immich.URL == "" {
		return nil
	}

	if c.Immich.URL == "" {
		return fmt.Errorf("IMMICH_URL is required when DRY_RUN is false")
	}
	if !strings.HasPrefix(c.Immich.URL, "http://") && !strings.HasPrefix(c.Immich.URL, "https://") {
		return fmt.Errorf("IMMICH_URL must start with http:// or https://")
	}
	if _, err := url.Parse(c.Immich.URL); err != nil {
		return fmt.Errorf("IMMICH_URL is not a valid URL: %w", err)
	}
	if !c.Job.DryRun && c.Immich.APIKey == "" {
		return fmt.Errorf("IMMICH_API_KEY is required when DRY_RUN is false")
	}
	return nil
}

func (c *Config) validateSchedule() error {
	schedule, err := cron.ParseStandard(c.Schedule.CronExpression)
	if err != nil {
		return fmt.Errorf("CRON_EXPRESSION %q: %w", c.Schedule.CronExpression, err)
	}
	if schedule.Next(time.Now()).IsZero() {
		return fmt.Errorf("CRON_EXPRESSION %q never fires", c.Schedule.CronExpression)
	}
	return nil
}

func (c *Config) validateLog() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !isValidChoice(c.Log.Level, validLogLevels) {
		return fmt.Errorf("LOG_LEVEL must be one of: %s", strings.Join(validLogLevels, ", "))
	}

	validFormats := []string{"text", "json"}
	if !isValidChoice(c.Log.Format, validFormats) {
		return fmt.Errorf("LOG_FORMAT must be one of: %s", strings.Join(validFormats, ", "))
	}
	return nil
}

// isValidChoice checks if a value is in a list of valid choices
func isValidChoice(value string, choices []string) bool {
	value = strings.ToLower(value)
	for _, choice := range choices {
		if value == choice {
			return true
		}
	}
	return false
}
