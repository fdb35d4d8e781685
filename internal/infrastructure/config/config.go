package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"

	sharedConfig "allocmgr/internal/shared/config"
)

type Config struct {
	Server     sharedConfig.ServerConfig     `mapstructure:"server"`
	Database   sharedConfig.DatabaseConfig   `mapstructure:"database"`
	Logger     sharedConfig.LoggerConfig     `mapstructure:"logger"`
	Email      sharedConfig.EmailConfig      `mapstructure:"email"`
	Redis      sharedConfig.RedisConfig      `mapstructure:"redis"`
	Directory  sharedConfig.DirectoryConfig  `mapstructure:"directory"`
	Filesystem sharedConfig.FilesystemConfig `mapstructure:"filesystem"`
	Allocation sharedConfig.AllocationConfig `mapstructure:"allocation"`
	Lifecycle  sharedConfig.LifecycleConfig  `mapstructure:"lifecycle"`
	Worker     sharedConfig.WorkerConfig     `mapstructure:"worker"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load loads configuration from file and environment variables
func Load(env string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../configs")
	viper.AddConfigPath("../../configs")

	viper.SetEnvPrefix("ALLOCMGR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Allow env parameter to override server mode if provided
	if env != "" && env != "default" {
		viper.Set("server.mode", env)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	appConfigMu.Lock()
	appConfig = &config
	appConfigMu.Unlock()

	return &config, nil
}

// Get returns the loaded configuration
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "debug")

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 3306)
	viper.SetDefault("database.username", "root")
	viper.SetDefault("database.password", "password")
	viper.SetDefault("database.database", "allocmgr_dev")
	viper.SetDefault("database.max_idle_conns", 10)
	viper.SetDefault("database.max_open_conns", 100)
	viper.SetDefault("database.conn_max_lifetime", 60)

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")
	viper.SetDefault("logger.output_path", "stdout")

	// Email defaults
	viper.SetDefault("email.smtp_host", "localhost")
	viper.SetDefault("email.smtp_port", 1025)
	viper.SetDefault("email.smtp_user", "")
	viper.SetDefault("email.smtp_password", "")
	viper.SetDefault("email.from_address", "noreply@allocmgr.local")
	viper.SetDefault("email.from_name", "Research Storage")
	viper.SetDefault("email.admin_list", []string{})

	// Redis defaults
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Directory service defaults (disabled until configured)
	viper.SetDefault("directory.enabled", false)
	viper.SetDefault("directory.base_url", "")
	viper.SetDefault("directory.token_url", "")
	viper.SetDefault("directory.client_id", "")
	viper.SetDefault("directory.client_secret", "")
	viper.SetDefault("directory.netbios_domain", "IC")

	// Filesystem control-plane defaults (disabled until configured)
	viper.SetDefault("filesystem.enabled", false)
	viper.SetDefault("filesystem.api_url", "")
	viper.SetDefault("filesystem.verify_tls", true)
	viper.SetDefault("filesystem.job_timeout_sec", 300)
	viper.SetDefault("filesystem.name", "gpfs0")
	viper.SetDefault("filesystem.mount_path", "/")
	viper.SetDefault("filesystem.top_level_dir", "rds/projects")
	viper.SetDefault("filesystem.fileset_posix_permissions", "2770")
	viper.SetDefault("filesystem.parent_posix_permissions", "0750")
	viper.SetDefault("filesystem.fileset_owner_acl", "rwmxDaAnNcCos")
	viper.SetDefault("filesystem.fileset_group_acl", "rwmxDanNcs")
	viper.SetDefault("filesystem.fileset_other_acl", "")
	viper.SetDefault("filesystem.parent_owner_acl", "rwmxDaAnNcCos")
	viper.SetDefault("filesystem.parent_group_acl", "rxancs")
	viper.SetDefault("filesystem.parent_other_acl", "")
	viper.SetDefault("filesystem.files_quota", "1000000")

	// Allocation defaults
	viper.SetDefault("allocation.shortname_prefix", "rdf-")
	viper.SetDefault("allocation.min_storage_tb", 1)
	viper.SetDefault("allocation.max_storage_tb", 500)

	// Lifecycle defaults
	viper.SetDefault("lifecycle.expiry_warning_days", []int{90, 60, 30, 7, 1})
	viper.SetDefault("lifecycle.removal_warning_days", []int{0, -14})
	viper.SetDefault("lifecycle.deletion_warning_days", []int{-30, -60})
	viper.SetDefault("lifecycle.deletion_notice_days", []int{-90})
	viper.SetDefault("lifecycle.removal_days", 30)
	viper.SetDefault("lifecycle.deletion_days", 90)

	// Worker defaults
	viper.SetDefault("worker.task_poll_seconds", 5)
	viper.SetDefault("worker.reconcile_interval_hours", 24)
	viper.SetDefault("worker.lifecycle_interval_hours", 24)
	viper.SetDefault("worker.notify_interval_hours", 24)
	viper.SetDefault("worker.prune_interval_hours", 24)
	viper.SetDefault("worker.timezone", "Europe/London")
}
