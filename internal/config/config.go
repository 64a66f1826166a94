package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `json:"server"`
	Database  DatabaseConfig  `json:"database"`
	Security  SecurityConfig  `json:"security"`
	Storage   StorageConfig   `json:"storage"`
	Kafka     KafkaConfig     `json:"kafka"`
	Email     EmailConfig     `json:"email"`
	Scheduler SchedulerConfig `json:"scheduler"`
	Logging   LoggingConfig   `json:"logging"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	IdleTimeout     time.Duration `json:"idle_timeout"`
	AllowedOrigins  []string      `json:"allowed_origins"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	// PublicURL is printed on certificates as the verification link base
	PublicURL       string        `json:"public_url"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Host           string        `json:"host"`
	Port           int           `json:"port"`
	User           string        `json:"user"`
	Password       string        `json:"password"`
	DBName         string        `json:"db_name"`
	SSLMode        string        `json:"ssl_mode"`
	MaxConnections int           `json:"max_connections"`
	MaxIdleConns   int           `json:"max_idle_conns"`
	MaxLifetime    time.Duration `json:"max_lifetime"`
}

// SecurityConfig holds token and certificate signing secrets
type SecurityConfig struct {
	JWTSecret          string        `json:"jwt_secret"`
	TokenTTL           time.Duration `json:"token_ttl"`
	CertificateSignKey string        `json:"certificate_sign_key"`
}

// StorageConfig selects where certificate documents are kept.
// Driver is "s3" or "memory".
type StorageConfig struct {
	Driver          string `json:"driver"`
	Bucket          string `json:"bucket"`
	Region          string `json:"region"`
	Endpoint        string `json:"endpoint"`
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
	UsePathStyle    bool   `json:"use_path_style"`
}

// KafkaConfig configures lifecycle event publishing
type KafkaConfig struct {
	Enabled bool     `json:"enabled"`
	Brokers []string `json:"brokers"`
	Topic   string   `json:"topic"`
}

// EmailConfig configures SES delivery
type EmailConfig struct {
	Enabled     bool   `json:"enabled"`
	Region      string `json:"region"`
	FromAddress string `json:"from_address"`
	FromName    string `json:"from_name"`
}

// SchedulerConfig holds cron specs for background jobs. Empty disables a job.
type SchedulerConfig struct {
	DashboardRefresh    string        `json:"dashboard_refresh"`
	CertificateBackfill string        `json:"certificate_backfill"`
	TokenPurge          string        `json:"token_purge"`
	DashboardCacheTTL   time.Duration `json:"dashboard_cache_ttl"`
}

// LoggingConfig
type LoggingConfig struct {
	Level string `json:"level"`
}

// Default returns the configuration used when no file or environment is present
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			AllowedOrigins:  []string{"http://localhost:3000"},
			ShutdownTimeout: 5 * time.Second,
			PublicURL:       "http://localhost:8080",
		},
		Database: DatabaseConfig{
			Host:           "localhost",
			Port:           5432,
			User:           os.Getenv("USER"),
			DBName:         "givehub_portal",
			SSLMode:        "disable",
			MaxConnections: 25,
			MaxIdleConns:   5,
			MaxLifetime:    30 * time.Minute,
		},
		Security: SecurityConfig{
			TokenTTL: 24 * time.Hour,
		},
		Storage: StorageConfig{
			Driver: "memory",
			Bucket: "givehub-certificates",
			Region: "us-east-1",
		},
		Kafka: KafkaConfig{
			Brokers: []string{"localhost:9092"},
			Topic:   "donation-lifecycle",
		},
		Email: EmailConfig{
			Region:   "us-east-1",
			FromName: "GiveHub",
		},
		Scheduler: SchedulerConfig{
			DashboardRefresh:    "0 */5 * * * *",
			CertificateBackfill: "0 */10 * * * *",
			TokenPurge:          "0 0 * * * *",
			DashboardCacheTTL:   5 * time.Minute,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// LoadConfig loads configuration from file and environment variables.
// A .env file in the working directory is loaded first when present.
func LoadConfig(configPath string) (*Config, error) {
	_ = godotenv.Load()

	config := Default()

	// Load from file if exists
	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			if err := json.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	// Override with environment variables
	overrideWithEnv(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks settings the service cannot start without
func (c *Config) Validate() error {
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("security.jwt_secret is required")
	}
	if len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("security.jwt_secret must be at least 32 bytes")
	}
	if c.Security.CertificateSignKey == "" {
		c.Security.CertificateSignKey = c.Security.JWTSecret
	}
	switch c.Storage.Driver {
	case "memory":
	case "s3":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage.bucket is required for the s3 driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when kafka is enabled")
	}
	if c.Email.Enabled && c.Email.FromAddress == "" {
		return fmt.Errorf("email.from_address is required when email is enabled")
	}
	return nil
}

func overrideWithEnv(config *Config) {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if origins := os.Getenv("SERVER_ALLOWED_ORIGINS"); origins != "" {
		config.Server.AllowedOrigins = splitList(origins)
	}
	if publicURL := os.Getenv("PUBLIC_URL"); publicURL != "" {
		config.Server.PublicURL = strings.TrimRight(publicURL, "/")
	}
	if dbHost := os.Getenv("DATABASE_HOST"); dbHost != "" {
		config.Database.Host = dbHost
	}
	if dbPort := os.Getenv("DATABASE_PORT"); dbPort != "" {
		if p, err := strconv.Atoi(dbPort); err == nil {
			config.Database.Port = p
		}
	}
	if dbUser := os.Getenv("DATABASE_USER"); dbUser != "" {
		config.Database.User = dbUser
	}
	if dbPass := os.Getenv("DATABASE_PASSWORD"); dbPass != "" {
		config.Database.Password = dbPass
	}
	if dbName := os.Getenv("DATABASE_DBNAME"); dbName != "" {
		config.Database.DBName = dbName
	}
	if sslMode := os.Getenv("DATABASE_SSLMODE"); sslMode != "" {
		config.Database.SSLMode = sslMode
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		config.Security.JWTSecret = secret
	}
	if ttl := os.Getenv("JWT_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			config.Security.TokenTTL = d
		}
	}
	if key := os.Getenv("CERTIFICATE_SIGN_KEY"); key != "" {
		config.Security.CertificateSignKey = key
	}
	if driver := os.Getenv("STORAGE_DRIVER"); driver != "" {
		config.Storage.Driver = driver
	}
	if bucket := os.Getenv("S3_BUCKET"); bucket != "" {
		config.Storage.Bucket = bucket
	}
	if region := os.Getenv("AWS_REGION"); region != "" {
		config.Storage.Region = region
		config.Email.Region = region
	}
	if endpoint := os.Getenv("S3_ENDPOINT"); endpoint != "" {
		config.Storage.Endpoint = endpoint
		config.Storage.UsePathStyle = true
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		config.Kafka.Brokers = splitList(brokers)
		config.Kafka.Enabled = true
	}
	if topic := os.Getenv("KAFKA_TOPIC"); topic != "" {
		config.Kafka.Topic = topic
	}
	if from := os.Getenv("EMAIL_FROM_ADDRESS"); from != "" {
		config.Email.FromAddress = from
		config.Email.Enabled = true
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// GetDatabaseURL returns the database connection string
func (c *DatabaseConfig) GetDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
