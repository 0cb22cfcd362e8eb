package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" validate:"required"`
	Provider  ProviderConfig  `mapstructure:"provider" validate:"required"`
}

// ServerConfig contains all HTTP server related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// SchedulerConfig contains settings for the task scheduler and job manager.
type SchedulerConfig struct {
	// DefaultTimeout is the declared per-task timeout in seconds used when
	// neither the caller nor the task type config specifies one.
	DefaultTimeout int `mapstructure:"default_timeout" validate:"required,gt=0"`

	// MisfireGraceSeconds is how late a scheduled run may start before it
	// is discarded instead of executed.
	MisfireGraceSeconds int `mapstructure:"misfire_grace_seconds" validate:"gte=0"`

	// HistoryLimit caps the number of records returned by task history queries.
	HistoryLimit int `mapstructure:"history_limit" validate:"gt=0"`

	// DailyNavSyncSpec is the cron expression for the periodic NAV list sync.
	// Empty disables the periodic job.
	DailyNavSyncSpec string `mapstructure:"daily_nav_sync_spec"`
}

// ProviderConfig contains settings for the external fund data provider.
type ProviderConfig struct {
	BaseURL        string `mapstructure:"base_url" validate:"required,url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" validate:"required,gt=0"`
}
