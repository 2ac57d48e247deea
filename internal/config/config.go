package config

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Mail      MailConfig      `mapstructure:"mail"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// Mail providers understood by the mailer package.
const (
	ProviderSES    = "ses"
	ProviderGmail  = "gmail"
	ProviderDryRun = "dryrun"
)

// MailConfig holds outbound email configuration
type MailConfig struct {
	Provider     string `mapstructure:"provider"`
	From         string `mapstructure:"from"`
	ReplyTo      string `mapstructure:"reply_to"`
	MaxAttempts  int    `mapstructure:"max_attempts"`
	SESRegion    string `mapstructure:"ses_region"`
	SESAccessKey string `mapstructure:"ses_access_key"`
	SESSecretKey string `mapstructure:"ses_secret_key"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RefreshToken string `mapstructure:"refresh_token"`
	UserEmail    string `mapstructure:"user_email"`
	// AttemptTimeout bounds a single provider call
	AttemptTimeout time.Duration `mapstructure:"attempt_timeout"`
}

// EngineConfig holds the daily send engine configuration
type EngineConfig struct {
	Timezone    string        `mapstructure:"timezone"`
	BatchSize   int           `mapstructure:"batch_size"`
	BatchDelay  time.Duration `mapstructure:"batch_delay"`
	SendTimeout time.Duration `mapstructure:"send_timeout"`
	BaseURL     string        `mapstructure:"base_url"`
	DryRun      bool          `mapstructure:"dry_run"`
	// DateOverride pins "today" for test deployments; malformed values are ignored.
	DateOverride string `mapstructure:"date_override"`
}

// SchedulerConfig holds scheduler configuration
type SchedulerConfig struct {
	Enabled             bool   `mapstructure:"enabled"`
	EnqueueSpec         string `mapstructure:"enqueue_spec"`
	PollIntervalMinutes int    `mapstructure:"poll_interval_minutes"`
	MaxRetries          int    `mapstructure:"max_retries"`
}

// RedisConfig holds the run lock backend configuration
type RedisConfig struct {
	URL     string        `mapstructure:"url"`
	LockTTL time.Duration `mapstructure:"lock_ttl"`
}

// AuthConfig holds the shared secrets for the trigger endpoints
type AuthConfig struct {
	CronSecret   string `mapstructure:"cron_secret"`
	WorkerSecret string `mapstructure:"worker_secret"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// LoadConfig loads configuration from environment variables and config file
func LoadConfig() (*Config, error) {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.AutomaticEnv()
	bindEnvVars(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "90s")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("mail.provider", ProviderSES)
	v.SetDefault("mail.from", "Hakote <noreply@hakote.dev>")
	v.SetDefault("mail.max_attempts", 3)
	v.SetDefault("mail.attempt_timeout", "10s")
	v.SetDefault("mail.ses_region", "ap-northeast-2")

	v.SetDefault("engine.timezone", "Asia/Seoul")
	v.SetDefault("engine.batch_size", 10)
	v.SetDefault("engine.batch_delay", "5s")
	v.SetDefault("engine.send_timeout", "45s")
	v.SetDefault("engine.base_url", "http://localhost:8080")
	v.SetDefault("engine.dry_run", false)

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.enqueue_spec", "0 0 7 * * MON-FRI")
	v.SetDefault("scheduler.poll_interval_minutes", 1)
	v.SetDefault("scheduler.max_retries", 3)

	v.SetDefault("redis.lock_ttl", "10m")

	v.SetDefault("log.level", "info")
}

func bindEnvVars(v *viper.Viper) {
	// Server
	v.BindEnv("server.port", "SERVER_PORT")
	v.BindEnv("server.read_timeout", "SERVER_READ_TIMEOUT")
	v.BindEnv("server.write_timeout", "SERVER_WRITE_TIMEOUT")

	// Database
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("database.dbname", "DB_NAME")
	v.BindEnv("database.sslmode", "DB_SSLMODE")

	// Mail
	v.BindEnv("mail.provider", "MAIL_PROVIDER")
	v.BindEnv("mail.from", "EMAIL_FROM")
	v.BindEnv("mail.reply_to", "SUPPORT_EMAIL")
	v.BindEnv("mail.max_attempts", "MAIL_MAX_ATTEMPTS")
	v.BindEnv("mail.attempt_timeout", "MAIL_ATTEMPT_TIMEOUT")
	v.BindEnv("mail.ses_region", "AWS_REGION")
	v.BindEnv("mail.ses_access_key", "AWS_ACCESS_KEY_ID")
	v.BindEnv("mail.ses_secret_key", "AWS_SECRET_ACCESS_KEY")
	v.BindEnv("mail.client_id", "GMAIL_CLIENT_ID")
	v.BindEnv("mail.client_secret", "GMAIL_CLIENT_SECRET")
	v.BindEnv("mail.refresh_token", "GMAIL_REFRESH_TOKEN")
	v.BindEnv("mail.user_email", "GMAIL_USER_EMAIL")

	// Engine
	v.BindEnv("engine.timezone", "ENGINE_TIMEZONE")
	v.BindEnv("engine.batch_size", "ENGINE_BATCH_SIZE")
	v.BindEnv("engine.batch_delay", "ENGINE_BATCH_DELAY")
	v.BindEnv("engine.send_timeout", "ENGINE_SEND_TIMEOUT")
	v.BindEnv("engine.base_url", "BASE_URL")
	v.BindEnv("engine.dry_run", "ENGINE_DRY_RUN")
	v.BindEnv("engine.date_override", "TEST_DATE")

	// Scheduler
	v.BindEnv("scheduler.enabled", "SCHEDULER_ENABLED")
	v.BindEnv("scheduler.enqueue_spec", "SCHEDULER_ENQUEUE_SPEC")
	v.BindEnv("scheduler.poll_interval_minutes", "SCHEDULER_POLL_INTERVAL_MINUTES")
	v.BindEnv("scheduler.max_retries", "SCHEDULER_MAX_RETRIES")

	// Redis
	v.BindEnv("redis.url", "REDIS_URL")
	v.BindEnv("redis.lock_ttl", "REDIS_LOCK_TTL")

	// Auth
	v.BindEnv("auth.cron_secret", "CRON_SECRET")
	v.BindEnv("auth.worker_secret", "WORKER_SECRET")

	// Log
	v.BindEnv("log.level", "LOG_LEVEL")
}

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		c.User, c.Password, c.Host, c.Port, c.DBName)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if c.Database.Host == "" || c.Database.User == "" || c.Database.DBName == "" {
		return fmt.Errorf("database host, user, and dbname are required")
	}

	switch c.Mail.Provider {
	case ProviderSES:
		if c.Mail.SESRegion == "" {
			return fmt.Errorf("SES region is required when using the ses provider")
		}
	case ProviderGmail:
		if c.Mail.ClientID == "" || c.Mail.ClientSecret == "" || c.Mail.RefreshToken == "" {
			return fmt.Errorf("Gmail OAuth2 credentials are required when using the gmail provider")
		}
	case ProviderDryRun:
	default:
		return fmt.Errorf("unknown mail provider %q", c.Mail.Provider)
	}

	if c.Mail.From == "" {
		return fmt.Errorf("mail from address is required")
	}

	if c.Engine.BatchSize <= 0 {
		return fmt.Errorf("engine batch size must be greater than 0")
	}
	if c.Engine.BatchDelay < 0 {
		return fmt.Errorf("engine batch delay must not be negative")
	}
	if _, err := time.LoadLocation(c.Engine.Timezone); err != nil {
		return fmt.Errorf("invalid engine timezone %q: %w", c.Engine.Timezone, err)
	}

	if c.Scheduler.Enabled && c.Scheduler.PollIntervalMinutes <= 0 {
		return fmt.Errorf("scheduler poll interval must be greater than 0")
	}

	if c.Auth.CronSecret == "" || c.Auth.WorkerSecret == "" {
		return fmt.Errorf("cron and worker secrets are required")
	}

	return nil
}
