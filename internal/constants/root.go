package constants

import "time"

const (
	AppName            = "soberlit"
	DefaultKeyringUser = "database-connection"
	BuddyKeyringUser   = "buddy-webhook-secret"
	DefaultConfigPath  = "~/.config/soberlit/soberlit.db"
	Version            = "v0.3.0"

	// ConnectionEnvVar overrides --config with a PostgreSQL connection string
	ConnectionEnvVar = "SOBERLIT_DB_CONNECTION"

	// Log constants
	LogDirName     = "logs"
	LogMaxSizeMB   = 10
	LogMaxBackups  = 3
	LogMaxAgeDays  = 28
	LogLevelEnvVar = "SOBERLIT_LOG_LEVEL"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "soberlit-"
	BackupFileSuffix = ".db"

	// Notify constants
	NotifierLockfileName = "soberlit-notifier.lock"
	TrayProcessName      = "soberlit-tray"
	TraySecretHeader     = "X-Soberlit-Tray-Secret"
	BuddySecretHeader    = "X-Soberlit-Secret"
	BuddyNotifyTimeout   = 5 * time.Second

	// Dispatcher constants
	DispatchTick          = 30 * time.Second
	HandlerBudget         = 10 * time.Second
	InexactDeliveryWindow = 5 * time.Minute
	StoreOpTimeout        = 3 * time.Second

	// Escalation constants
	WakeLockTimeout      = 10 * time.Minute
	AlarmSoundInterval   = 2 * time.Second
	VibrationPulse       = 400 * time.Millisecond
	VibrationPause       = 600 * time.Millisecond
	DefaultServerAddress = "127.0.0.1:37781"

	// BootIDPath is read to bind alarms to the current OS boot
	BootIDPath = "/proc/sys/kernel/random/boot_id"
)
