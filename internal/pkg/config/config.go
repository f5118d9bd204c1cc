package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/piresc/otpgate/internal/pkg/constants"
	"github.com/piresc/otpgate/internal/pkg/models"
	"github.com/spf13/viper"
)

// InitConfig loads configuration from the environment. When APP_ENV is local (the default)
// the env file at configPath is loaded first.
func InitConfig(configPath string) *models.Config {
	v := newViper()
	if v.GetString("APP_ENV") == "local" {
		// Load config from file
		if err := godotenv.Load(configPath); err != nil {
			log.Println("error loading config from file", err)
		}
	}
	return loadConfig(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_NAME", "otpgate")
	v.SetDefault("APP_ENV", "local")
	v.SetDefault("APP_DEBUG", true)
	v.SetDefault("APP_VERSION", "development")

	v.SetDefault("SERVER_PORT", 9990)
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", 30)

	v.SetDefault("DB_DRIVER", "pgx")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_SSL_MODE", "disable")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_USER_TTL", 10*time.Minute)

	v.SetDefault("NATS_URL", "nats://localhost:4222")

	v.SetDefault("JWT_EXPIRATION", 60*24)
	v.SetDefault("JWT_ISSUER", "otpgate")

	v.SetDefault("OTP_TTL", constants.OTPTTL)
	v.SetDefault("OTP_CLEANUP_DELAY", constants.OTPCleanupDelay)

	v.SetDefault("SMS_PROVIDER", "log")
	v.SetDefault("SMS_TIMEOUT", 10*time.Second)
	v.SetDefault("TWILIO_BASE_URL", "https://api.twilio.com")
	v.SetDefault("SMS_NATS_SUBJECT", constants.SubjectSMSSend)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_TYPE", "stdout")
	return v
}

func loadConfig(v *viper.Viper) *models.Config {
	configs := &models.Config{}

	// App config
	configs.App.Name = v.GetString("APP_NAME")
	configs.App.Environment = v.GetString("APP_ENV")
	configs.App.Debug = v.GetBool("APP_DEBUG")
	configs.App.Version = v.GetString("APP_VERSION")

	// Server config
	configs.Server.Host = v.GetString("SERVER_HOST")
	configs.Server.Port = v.GetInt("SERVER_PORT")
	configs.Server.ReadTimeout = v.GetInt("SERVER_READ_TIMEOUT")
	configs.Server.WriteTimeout = v.GetInt("SERVER_WRITE_TIMEOUT")
	configs.Server.ShutdownTimeout = v.GetInt("SERVER_SHUTDOWN_TIMEOUT")

	// Database config
	configs.Database.Driver = v.GetString("DB_DRIVER")
	configs.Database.Host = v.GetString("DB_HOST")
	configs.Database.Port = v.GetInt("DB_PORT")
	configs.Database.Username = v.GetString("DB_USERNAME")
	configs.Database.Password = v.GetString("DB_PASSWORD")
	configs.Database.Database = v.GetString("DB_DATABASE")
	configs.Database.SSLMode = v.GetString("DB_SSL_MODE")
	configs.Database.MaxConns = v.GetInt("DB_MAX_CONNS")
	configs.Database.IdleConns = v.GetInt("DB_IDLE_CONNS")

	// Redis config
	configs.Redis.Host = v.GetString("REDIS_HOST")
	configs.Redis.Port = v.GetInt("REDIS_PORT")
	configs.Redis.Password = v.GetString("REDIS_PASSWORD")
	configs.Redis.DB = v.GetInt("REDIS_DB")
	configs.Redis.PoolSize = v.GetInt("REDIS_POOL_SIZE")
	configs.Redis.UserTTL = v.GetDuration("REDIS_USER_TTL")

	// NATS config
	configs.NATS.URL = v.GetString("NATS_URL")

	// JWT config
	configs.JWT.Secret = v.GetString("JWT_SECRET")
	configs.JWT.Expiration = v.GetInt("JWT_EXPIRATION")
	configs.JWT.Issuer = v.GetString("JWT_ISSUER")

	// OTP config
	configs.OTP.TTL = v.GetDuration("OTP_TTL")
	configs.OTP.CleanupDelay = v.GetDuration("OTP_CLEANUP_DELAY")

	// SMS config
	configs.SMS.Provider = v.GetString("SMS_PROVIDER")
	configs.SMS.Timeout = v.GetDuration("SMS_TIMEOUT")
	configs.SMS.TwilioAccountSID = v.GetString("TWILIO_ACCOUNT_SID")
	configs.SMS.TwilioAuthToken = v.GetString("TWILIO_AUTH_TOKEN")
	configs.SMS.TwilioFromNumber = v.GetString("TWILIO_FROM_NUMBER")
	configs.SMS.TwilioBaseURL = v.GetString("TWILIO_BASE_URL")
	configs.SMS.NATSSubject = v.GetString("SMS_NATS_SUBJECT")

	// NewRelic config
	configs.NewRelic.LicenseKey = v.GetString("NEW_RELIC_LICENSE_KEY")
	configs.NewRelic.AppName = v.GetString("NEW_RELIC_APP_NAME")
	configs.NewRelic.Enabled = v.GetBool("NEW_RELIC_ENABLED")
	configs.NewRelic.LogsEnabled = v.GetBool("NEW_RELIC_LOGS_ENABLED")
	configs.NewRelic.ForwardLogs = v.GetBool("NEW_RELIC_FORWARD_LOGS")

	// Logger config
	configs.Logger.Level = v.GetString("LOG_LEVEL")
	configs.Logger.FilePath = v.GetString("LOG_FILE_PATH")
	configs.Logger.Type = v.GetString("LOG_TYPE")

	return configs
}
