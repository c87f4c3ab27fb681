package config

const (
	// AppName is the name of the application.
	AppName = "vanguard"

	// EnvBotToken is the environment variable for the bot token.
	EnvBotToken = `BOT_TOKEN`

	// EnvApplicationId is the environment variable for the application ID.
	EnvApplicationId = `APPLICATION_ID`

	// EnvMongoUri is the environment variable for the MongoDB URI.
	EnvMongoUri = `MONGO_URI`

	// EnvMonitoringPort is the environment variable for the monitoring port.
	EnvMonitoringPort = `MONITORING_PORT`

	// EnvBackupDir is the environment variable for the ticket backup directory.
	EnvBackupDir = `BACKUP_DIR`

	// EnvRateLimitFailClosed is the environment variable that flips the rate limiter to
	// deny ticket creation when the store is unreachable. The default is fail open.
	EnvRateLimitFailClosed = `RATE_LIMIT_FAIL_CLOSED`
)

var (
	// BotToken is the token for the bot.
	BotToken string

	// ApplicationId is the ID of the application.
	ApplicationId string

	// MongoUri is the URI for the MongoDB database.
	MongoUri string

	// MonitoringPort is the port for the monitoring server.
	MonitoringPort string

	// BackupDir is the directory that ticket backups are written to.
	BackupDir string

	// RateLimitFailClosed is whether the rate limiter denies on store failure.
	RateLimitFailClosed bool
)
