package config

import "fmt"

type ServerConfig struct {
	Host        string   `mapstructure:"host"`
	Port        int      `mapstructure:"port"`
	Mode        string   `mapstructure:"mode"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type EmailConfig struct {
	SMTPHost     string   `mapstructure:"smtp_host"`
	SMTPPort     int      `mapstructure:"smtp_port"`
	SMTPUser     string   `mapstructure:"smtp_user"`
	SMTPPassword string   `mapstructure:"smtp_password"`
	FromAddress  string   `mapstructure:"from_address"`
	FromName     string   `mapstructure:"from_name"`
	AdminList    []string `mapstructure:"admin_list"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// DirectoryConfig configures the group-membership directory service client.
type DirectoryConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	BaseURL       string `mapstructure:"base_url"`
	TokenURL      string `mapstructure:"token_url"`
	ClientID      string `mapstructure:"client_id"`
	ClientSecret  string `mapstructure:"client_secret"`
	NetBIOSDomain string `mapstructure:"netbios_domain"`
}

// FilesystemConfig configures the distributed filesystem control-plane client
// and the fileset layout conventions.
type FilesystemConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	APIURL        string `mapstructure:"api_url"`
	Username      string `mapstructure:"username"`
	Password      string `mapstructure:"password"`
	VerifyTLS     bool   `mapstructure:"verify_tls"`
	JobTimeoutSec int    `mapstructure:"job_timeout_sec"`

	Name            string `mapstructure:"name"`
	MountPath       string `mapstructure:"mount_path"`
	TopLevelDir     string `mapstructure:"top_level_dir"`
	FilesetPOSIX    string `mapstructure:"fileset_posix_permissions"`
	ParentPOSIX     string `mapstructure:"parent_posix_permissions"`
	FilesetOwnerACL string `mapstructure:"fileset_owner_acl"`
	FilesetGroupACL string `mapstructure:"fileset_group_acl"`
	FilesetOtherACL string `mapstructure:"fileset_other_acl"`
	ParentOwnerACL  string `mapstructure:"parent_owner_acl"`
	ParentGroupACL  string `mapstructure:"parent_group_acl"`
	ParentOtherACL  string `mapstructure:"parent_other_acl"`
	FilesQuota      string `mapstructure:"files_quota"`
}

// GIDRange is one half-open [Start, Stop) band of assignable group ids.
type GIDRange struct {
	Start int `mapstructure:"start"`
	Stop  int `mapstructure:"stop"`
}

// AllocationConfig configures allocation provisioning conventions.
type AllocationConfig struct {
	ShortnamePrefix string     `mapstructure:"shortname_prefix"`
	GIDRanges       []GIDRange `mapstructure:"gid_ranges"`
	MinStorageTB    int        `mapstructure:"min_storage_tb"`
	MaxStorageTB    int        `mapstructure:"max_storage_tb"`
}

// LifecycleConfig holds the expiry notification schedules and the day
// thresholds for status transitions. ExpiryWarningDays offsets are positive
// days before the end date; the other schedules hold zero or negative
// offsets counted from the end date.
type LifecycleConfig struct {
	ExpiryWarningDays   []int `mapstructure:"expiry_warning_days"`
	RemovalWarningDays  []int `mapstructure:"removal_warning_days"`
	DeletionWarningDays []int `mapstructure:"deletion_warning_days"`
	DeletionNoticeDays  []int `mapstructure:"deletion_notice_days"`
	RemovalDays         int   `mapstructure:"removal_days"`
	DeletionDays        int   `mapstructure:"deletion_days"`
}

// WorkerConfig controls background job cadence.
type WorkerConfig struct {
	TaskPollSeconds        int    `mapstructure:"task_poll_seconds"`
	ReconcileIntervalHours int    `mapstructure:"reconcile_interval_hours"`
	LifecycleIntervalHours int    `mapstructure:"lifecycle_interval_hours"`
	NotifyIntervalHours    int    `mapstructure:"notify_interval_hours"`
	PruneIntervalHours     int    `mapstructure:"prune_interval_hours"`
	Timezone               string `mapstructure:"timezone"`
}
